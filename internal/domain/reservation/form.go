package reservation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/stayfinder/stayfinder-api/internal/domain/catalog"
	"github.com/stayfinder/stayfinder-api/internal/domain/pricing"
	"github.com/stayfinder/stayfinder-api/internal/pkg/logger"
	"github.com/stayfinder/stayfinder-api/internal/pkg/stayapi"
	"github.com/stayfinder/stayfinder-api/internal/pkg/validator"
)

const DefaultSubmitTimeout = 15 * time.Second

// Reserver creates reservations on the accommodation API.
type Reserver interface {
	CreateReservation(ctx context.Context, req stayapi.ReservationRequest) (*stayapi.Reservation, error)
}

// Config tunes a Form.
type Config struct {
	SubmitTimeout time.Duration
}

// Form is the reservation form controller for a single accommodation.
// Field edits are synchronous; Submit is the only call that does I/O.
type Form struct {
	mu sync.Mutex

	accommodation catalog.Accommodation
	api           Reserver
	timeout       time.Duration

	draft       Draft
	state       State
	failure     string
	validation  *ValidationError
	reservation *stayapi.Reservation
}

// NewForm creates an idle form with an empty draft.
func NewForm(acc catalog.Accommodation, api Reserver, cfg Config) *Form {
	timeout := cfg.SubmitTimeout
	if timeout <= 0 {
		timeout = DefaultSubmitTimeout
	}
	return &Form{
		accommodation: acc,
		api:           api,
		timeout:       timeout,
		draft:         emptyDraft(),
		state:         StateIdle,
	}
}

// Accommodation returns the accommodation the form books.
func (f *Form) Accommodation() catalog.Accommodation {
	return f.accommodation
}

// Update is a batch of edits applied in the order check-in, check-out,
// guests, room type. Nil fields are left unchanged. A Clear flag sets the
// matching date to empty.
type Update struct {
	CheckIn       *time.Time
	ClearCheckIn  bool
	CheckOut      *time.Time
	ClearCheckOut bool
	Guests        *int
	RoomType      *string
}

// Apply checks the whole update against the current draft and applies it
// only if every edit is accepted. On error the form is left untouched.
func (f *Form) Apply(u Update) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == StateSubmitting {
		return ErrSubmitInProgress
	}

	next := f.copyDraft()

	if u.CheckIn != nil || u.ClearCheckIn {
		next.CheckIn = copyTime(u.CheckIn)
		if next.CheckIn != nil && next.CheckOut != nil && next.CheckOut.Before(*next.CheckIn) {
			next.CheckOut = nil
		}
	}
	if u.CheckOut != nil || u.ClearCheckOut {
		if u.CheckOut != nil && next.CheckIn != nil && u.CheckOut.Before(*next.CheckIn) {
			return ErrCheckOutBeforeCheckIn
		}
		next.CheckOut = copyTime(u.CheckOut)
	}
	if u.Guests != nil {
		next.Guests = pricing.ClampGuests(*u.Guests, next.RoomType)
	}
	if u.RoomType != nil {
		var selected *catalog.RoomType
		if *u.RoomType != "" {
			rt, ok := f.accommodation.RoomTypes.Find(*u.RoomType)
			if !ok {
				return ErrUnknownRoomType
			}
			selected = &rt
		}
		next.RoomType = selected
		next.Guests = pricing.ClampGuests(next.Guests, selected)
	}

	f.reset()
	f.draft = next
	return nil
}

// SetCheckIn sets or clears (nil) the check-in date. A check-out that would
// now precede check-in is cleared.
func (f *Form) SetCheckIn(date *time.Time) error {
	return f.Apply(Update{CheckIn: date, ClearCheckIn: date == nil})
}

// SetCheckOut sets or clears (nil) the check-out date. A date before the
// current check-in is rejected and the previous value kept.
func (f *Form) SetCheckOut(date *time.Time) error {
	return f.Apply(Update{CheckOut: date, ClearCheckOut: date == nil})
}

// SetGuests sets the guest count, clamped to the allowed occupancy.
func (f *Form) SetGuests(n int) error {
	return f.Apply(Update{Guests: &n})
}

// SelectRoomType selects a room type by name; "" clears the selection.
func (f *Form) SelectRoomType(name string) error {
	return f.Apply(Update{RoomType: &name})
}

// Submit validates the draft and sends it to the reservation API.
// A Submit while another one is pending returns ErrSubmitInProgress.
func (f *Form) Submit(ctx context.Context) (*stayapi.Reservation, error) {
	f.mu.Lock()
	if f.state == StateSubmitting {
		f.mu.Unlock()
		return nil, ErrSubmitInProgress
	}

	if verr := f.validate(); verr != nil {
		f.reset()
		f.validation = verr
		f.mu.Unlock()
		return nil, verr
	}

	req := f.request()
	if errs := validator.Validate(&req); errs != nil {
		verr := &ValidationError{Message: MsgSubmitFailed, Fields: errs}
		f.reset()
		f.validation = verr
		f.mu.Unlock()
		return nil, verr
	}

	f.state = StateSubmitting
	f.failure = ""
	f.validation = nil
	f.reservation = nil
	f.mu.Unlock()

	l := logger.FromContext(ctx)
	l.Info().
		Int64("accommodation_id", req.AccommodationID).
		Str("check_in", req.CheckIn).
		Str("check_out", req.CheckOut).
		Int("guests", req.Guests).
		Float64("total_price", req.TotalPrice).
		Msg("Submitting reservation")

	// The call outlives a dropped client connection but not the submit timeout.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
	defer cancel()

	res, err := f.api.CreateReservation(callCtx, req)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		reason := failureReason(err)
		f.state = StateFailed
		f.failure = reason
		l.Warn().Err(err).Str("reason", reason).Msg("Reservation failed")
		return nil, &SubmitError{Reason: reason, Err: err}
	}

	f.state = StateSucceeded
	f.draft = emptyDraft()
	f.reservation = res
	if res != nil {
		logger.LogInfo(ctx, "Reservation created", "reservation_id", res.ID)
	}
	return res, nil
}

// State returns the current submission state.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Draft returns a copy of the current draft.
func (f *Form) Draft() Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.copyDraft()
}

// Quote prices the current draft.
func (f *Form) Quote() pricing.Quote {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quote()
}

// View is a consistent snapshot of the form.
type View struct {
	AccommodationID int64
	Draft           Draft
	MaxGuests       int
	Quote           pricing.Quote
	State           State
	Error           string
	Validation      *ValidationError
	Reservation     *stayapi.Reservation
}

// View returns a snapshot taken under a single lock.
func (f *Form) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()

	return View{
		AccommodationID: f.accommodation.ID,
		Draft:           f.copyDraft(),
		MaxGuests:       pricing.MaxGuests(f.draft.RoomType),
		Quote:           f.quote(),
		State:           f.state,
		Error:           f.failure,
		Validation:      f.validation,
		Reservation:     f.reservation,
	}
}

// reset returns a settled form to Idle; must hold mu.
func (f *Form) reset() {
	f.state = StateIdle
	f.failure = ""
	f.validation = nil
	f.reservation = nil
}

func (f *Form) quote() pricing.Quote {
	return pricing.Compute(pricing.Stay{
		CheckIn:  f.draft.CheckIn,
		CheckOut: f.draft.CheckOut,
		Guests:   f.draft.Guests,
		RoomType: f.draft.RoomType,
	}, f.accommodation.PriceRange, f.accommodation.RoomTypes)
}

func (f *Form) validate() *ValidationError {
	fields := make(map[string]string)
	d := f.draft

	if d.CheckIn == nil {
		fields["check_in"] = MsgCheckInRequired
	}
	if d.CheckOut == nil {
		fields["check_out"] = MsgCheckOutRequired
	} else if d.CheckIn != nil && d.CheckOut.Before(*d.CheckIn) {
		fields["check_out"] = MsgCheckOutOrder
	}
	if len(f.accommodation.RoomTypes) > 0 && d.RoomType == nil {
		fields["room_type"] = MsgRoomTypeRequired
	}

	if len(fields) == 0 {
		return nil
	}
	verr := &ValidationError{Fields: fields}
	for _, key := range validationOrder {
		if msg, ok := fields[key]; ok {
			verr.Message = msg
			break
		}
	}
	return verr
}

func (f *Form) request() stayapi.ReservationRequest {
	req := stayapi.ReservationRequest{
		AccommodationID: f.accommodation.ID,
		CheckIn:         f.draft.CheckIn.Format(validator.ISODateLayout),
		CheckOut:        f.draft.CheckOut.Format(validator.ISODateLayout),
		Guests:          f.draft.Guests,
		TotalPrice:      f.quote().Total,
	}
	if f.draft.RoomType != nil {
		req.RoomType = f.draft.RoomType.Type
	}
	return req
}

func (f *Form) copyDraft() Draft {
	d := Draft{
		CheckIn:  copyTime(f.draft.CheckIn),
		CheckOut: copyTime(f.draft.CheckOut),
		Guests:   f.draft.Guests,
	}
	if f.draft.RoomType != nil {
		rt := *f.draft.RoomType
		d.RoomType = &rt
	}
	return d
}

func failureReason(err error) string {
	if apiErr, ok := stayapi.AsAPIError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, stayapi.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return MsgSubmitTimedOut
	}
	return MsgSubmitFailed
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
