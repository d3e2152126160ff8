package reservation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/stayfinder/stayfinder-api/internal/domain/catalog"
	"github.com/stayfinder/stayfinder-api/internal/pkg/session"
	"github.com/stayfinder/stayfinder-api/internal/pkg/stayapi"
)

type fakeSource struct {
	items map[int64]catalog.Accommodation
}

func (s *fakeSource) Get(ctx context.Context, id int64) (*catalog.Accommodation, error) {
	acc, ok := s.items[id]
	if !ok {
		return nil, &stayapi.APIError{Status: http.StatusNotFound, Message: "Accommodation not found"}
	}
	return &acc, nil
}

type fakeAPI struct {
	*fakeReserver
	page      *stayapi.ReservationPage
	cancelled []int64
	cancelErr error
}

func (f *fakeAPI) ListReservations(ctx context.Context, page int) (*stayapi.ReservationPage, error) {
	return f.page, nil
}

func (f *fakeAPI) CancelReservation(ctx context.Context, id int64) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.cancelled = append(f.cancelled, id)
	return nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
	Meta *struct {
		Total int `json:"total"`
		Page  int `json:"page"`
		Pages int `json:"pages"`
	} `json:"meta"`
}

type testServer struct {
	router http.Handler
	api    *fakeAPI
	tokens map[string]*session.Session
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	api := &fakeAPI{fakeReserver: &fakeReserver{}}
	source := &fakeSource{items: map[int64]catalog.Accommodation{
		5: rangeAccommodation(),
		6: roomAccommodation(),
	}}
	svc := NewService(source, func(*session.Session) API { return api }, NewRegistry(time.Minute), Config{SubmitTimeout: time.Second})
	h := NewHandler(svc)

	ts := &testServer{api: api, tokens: map[string]*session.Session{}}
	for _, tok := range []string{"alice", "bob"} {
		s, err := session.New(tok)
		if err != nil {
			t.Fatalf("session: %v", err)
		}
		ts.tokens[tok] = s
	}

	auth := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := ts.tokens[r.Header.Get("X-Test-User")]
			if s != nil {
				r = r.WithContext(session.WithContext(r.Context(), s))
			}
			next.ServeHTTP(w, r)
		})
	}

	r := chi.NewRouter()
	r.With(auth).Post("/accommodations/{id}/forms", h.OpenForm)
	r.Mount("/forms", h.FormRoutes(auth))
	r.Mount("/reservations", h.HistoryRoutes(auth))
	ts.router = r
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, user, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	rr := httptest.NewRecorder()
	ts.router.ServeHTTP(rr, req)

	var env envelope
	if rr.Body.Len() > 0 {
		if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, rr.Body.String())
		}
	}
	return rr.Code, env
}

func (ts *testServer) openForm(t *testing.T, accommodationID, user string) FormResponse {
	t.Helper()
	code, env := ts.do(t, http.MethodPost, "/accommodations/"+accommodationID+"/forms", user, "")
	if code != http.StatusCreated {
		t.Fatalf("open form: expected 201, got %d", code)
	}
	var form FormResponse
	if err := json.Unmarshal(env.Data, &form); err != nil {
		t.Fatalf("decode form: %v", err)
	}
	return form
}

func TestHandler_FormLifecycle(t *testing.T) {
	ts := newTestServer(t)
	form := ts.openForm(t, "6", "alice")
	if form.State != StateIdle || form.Draft.Guests != 1 || form.Draft.MaxGuests != 10 {
		t.Fatalf("unexpected new form %+v", form)
	}

	code, env := ts.do(t, http.MethodPatch, "/forms/"+form.ID, "alice",
		`{"check_in":"2024-06-01","check_out":"2024-06-03","guests":3,"room_type":"Standard"}`)
	if code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", code)
	}
	var updated struct {
		Draft DraftResponse `json:"draft"`
		Quote struct {
			Total  float64 `json:"total"`
			Nights int     `json:"nights"`
		} `json:"quote"`
		State string `json:"state"`
	}
	if err := json.Unmarshal(env.Data, &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Quote.Total != 242 || updated.Quote.Nights != 2 || updated.State != "idle" || updated.Draft.RoomType != "Standard" {
		t.Fatalf("unexpected update result %+v", updated)
	}

	code, env = ts.do(t, http.MethodPost, "/forms/"+form.ID+"/submit", "alice", "")
	if code != http.StatusCreated {
		t.Fatalf("submit: expected 201, got %d (%+v)", code, env.Error)
	}
	if ts.api.last.RoomType != "Standard" || ts.api.last.CheckOut != "2024-06-03" {
		t.Fatalf("unexpected payload %+v", ts.api.last)
	}

	code, _ = ts.do(t, http.MethodDelete, "/forms/"+form.ID, "alice", "")
	if code != http.StatusNoContent {
		t.Fatalf("close: expected 204, got %d", code)
	}
	code, _ = ts.do(t, http.MethodGet, "/forms/"+form.ID, "alice", "")
	if code != http.StatusNotFound {
		t.Fatalf("expected 404 after close, got %d", code)
	}
}

func TestHandler_SubmitValidation(t *testing.T) {
	ts := newTestServer(t)
	form := ts.openForm(t, "6", "alice")

	ts.do(t, http.MethodPatch, "/forms/"+form.ID, "alice", `{"check_in":"2024-06-01","check_out":"2024-06-03"}`)
	code, env := ts.do(t, http.MethodPost, "/forms/"+form.ID+"/submit", "alice", "")
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", code)
	}
	if env.Error == nil || env.Error.Message != "Please select a room type" || env.Error.Details["room_type"] == "" {
		t.Fatalf("unexpected error body %+v", env.Error)
	}
	if ts.api.Calls() != 0 {
		t.Fatalf("expected no API call, got %d", ts.api.Calls())
	}
}

func TestHandler_SubmitAPIFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.api.err = &stayapi.APIError{Status: http.StatusInternalServerError, Message: "Reservation service unavailable"}
	form := ts.openForm(t, "5", "alice")

	ts.do(t, http.MethodPatch, "/forms/"+form.ID, "alice", `{"check_in":"2024-06-01","check_out":"2024-06-03"}`)
	code, env := ts.do(t, http.MethodPost, "/forms/"+form.ID+"/submit", "alice", "")
	if code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", code)
	}
	if env.Error == nil || env.Error.Message != "Reservation service unavailable" {
		t.Fatalf("unexpected error body %+v", env.Error)
	}

	_, env = ts.do(t, http.MethodGet, "/forms/"+form.ID, "alice", "")
	var view FormResponse
	if err := json.Unmarshal(env.Data, &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.State != StateFailed || view.Draft.CheckIn != "2024-06-01" {
		t.Fatalf("expected failed form with draft kept, got %+v", view)
	}
}

func TestHandler_UpdateRejectsBadInput(t *testing.T) {
	ts := newTestServer(t)
	form := ts.openForm(t, "6", "alice")

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "bad date", body: `{"check_in":"06/01/2024"}`, want: http.StatusUnprocessableEntity},
		{name: "unknown room", body: `{"room_type":"Penthouse"}`, want: http.StatusUnprocessableEntity},
		{name: "bad json", body: `{`, want: http.StatusBadRequest},
		{name: "negative guests", body: `{"guests":-1}`, want: http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := ts.do(t, http.MethodPatch, "/forms/"+form.ID, "alice", tt.body)
			if code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, code)
			}
		})
	}

	ts.do(t, http.MethodPatch, "/forms/"+form.ID, "alice", `{"check_in":"2024-06-05"}`)
	code, env := ts.do(t, http.MethodPatch, "/forms/"+form.ID, "alice", `{"check_out":"2024-06-04"}`)
	if code != http.StatusUnprocessableEntity || env.Error.Details["check_out"] != MsgCheckOutOrder {
		t.Fatalf("expected ordering error, got %d %+v", code, env.Error)
	}
}

func TestHandler_UpdateRejectedAsAWhole(t *testing.T) {
	ts := newTestServer(t)
	form := ts.openForm(t, "6", "alice")

	code, _ := ts.do(t, http.MethodPatch, "/forms/"+form.ID, "alice", `{"check_in":"2024-06-01","check_out":"2024-06-03"}`)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}

	code, env := ts.do(t, http.MethodPatch, "/forms/"+form.ID, "alice",
		`{"check_in":"2024-06-10","check_out":"2024-06-05","guests":2}`)
	if code != http.StatusUnprocessableEntity || env.Error.Details["check_out"] != MsgCheckOutOrder {
		t.Fatalf("expected ordering error, got %d %+v", code, env.Error)
	}

	_, env = ts.do(t, http.MethodGet, "/forms/"+form.ID, "alice", "")
	var view FormResponse
	if err := json.Unmarshal(env.Data, &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Draft.CheckIn != "2024-06-01" || view.Draft.CheckOut != "2024-06-03" || view.Draft.Guests != 1 {
		t.Fatalf("expected draft untouched, got %+v", view.Draft)
	}
}

func TestHandler_SameSubjectDifferentTokenIsAnotherSession(t *testing.T) {
	ts := newTestServer(t)

	claims := jwt.MapClaims{"sub": "42"}
	for user, secret := range map[string]string{"owner": "real-secret", "forger": "made-up"} {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		s, err := session.New(token)
		if err != nil {
			t.Fatalf("session: %v", err)
		}
		ts.tokens[user] = s
	}
	if ts.tokens["owner"].Subject() != ts.tokens["forger"].Subject() {
		t.Fatal("expected both tokens to claim the same subject")
	}

	form := ts.openForm(t, "5", "owner")

	if code, _ := ts.do(t, http.MethodGet, "/forms/"+form.ID, "forger", ""); code != http.StatusNotFound {
		t.Fatalf("expected 404 for a different token, got %d", code)
	}
	if code, _ := ts.do(t, http.MethodPost, "/forms/"+form.ID+"/submit", "forger", ""); code != http.StatusNotFound {
		t.Fatalf("expected 404 on submit with a different token, got %d", code)
	}
	if code, _ := ts.do(t, http.MethodDelete, "/forms/"+form.ID, "forger", ""); code != http.StatusNotFound {
		t.Fatalf("expected 404 on close with a different token, got %d", code)
	}
	if ts.api.Calls() != 0 {
		t.Fatalf("expected no reservation call, got %d", ts.api.Calls())
	}
	if code, _ := ts.do(t, http.MethodGet, "/forms/"+form.ID, "owner", ""); code != http.StatusOK {
		t.Fatalf("expected owner to keep the form, got %d", code)
	}
}

func TestHandler_FormsAreSessionScoped(t *testing.T) {
	ts := newTestServer(t)
	form := ts.openForm(t, "5", "alice")

	if code, _ := ts.do(t, http.MethodGet, "/forms/"+form.ID, "bob", ""); code != http.StatusNotFound {
		t.Fatalf("expected 404 for other session, got %d", code)
	}
	if code, _ := ts.do(t, http.MethodGet, "/forms/"+form.ID, "", ""); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", code)
	}
	if code, _ := ts.do(t, http.MethodGet, "/forms/not-a-uuid", "alice", ""); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", code)
	}
}

func TestHandler_OpenFormUnknownAccommodation(t *testing.T) {
	ts := newTestServer(t)
	code, env := ts.do(t, http.MethodPost, "/accommodations/99/forms", "alice", "")
	if code != http.StatusNotFound || env.Error.Message != MsgAccommodationGone {
		t.Fatalf("expected 404, got %d %+v", code, env.Error)
	}
}

func TestHandler_History(t *testing.T) {
	ts := newTestServer(t)
	ts.api.page = &stayapi.ReservationPage{
		Items:       []stayapi.Reservation{{ID: 3, Status: stayapi.ReservationActive}},
		Total:       11,
		Pages:       2,
		CurrentPage: 2,
	}

	code, env := ts.do(t, http.MethodGet, "/reservations?page=2", "alice", "")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if env.Meta == nil || env.Meta.Total != 11 || env.Meta.Page != 2 || env.Meta.Pages != 2 {
		t.Fatalf("unexpected meta %+v", env.Meta)
	}

	code, env = ts.do(t, http.MethodPost, "/reservations/3/cancel", "alice", "")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	var cancelled CancelResponse
	if err := json.Unmarshal(env.Data, &cancelled); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cancelled.Status != stayapi.ReservationCancelled || len(ts.api.cancelled) != 1 || ts.api.cancelled[0] != 3 {
		t.Fatalf("unexpected cancel result %+v %v", cancelled, ts.api.cancelled)
	}

	ts.api.cancelErr = &stayapi.APIError{Status: http.StatusBadRequest, Message: "Reservation already cancelled"}
	code, env = ts.do(t, http.MethodPost, "/reservations/3/cancel", "alice", "")
	if code != http.StatusBadRequest || env.Error.Message != "Reservation already cancelled" {
		t.Fatalf("expected upstream 400, got %d %+v", code, env.Error)
	}
}
