package stayapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/stayfinder/stayfinder-api/internal/domain/catalog"
	"github.com/stayfinder/stayfinder-api/internal/pkg/errorhandler"
	"github.com/stayfinder/stayfinder-api/internal/pkg/session"
	"github.com/stayfinder/stayfinder-api/internal/pkg/validator"
)

const (
	defaultTimeout = 10 * time.Second
	serviceName    = "stay-api"
	maxErrorBody   = 64 << 10
)

var (
	ErrTimeout      = errors.New("stay api timeout")
	ErrNetwork      = errors.New("stay api network error")
	ErrInvalidInput = errors.New("stay api invalid input")
	ErrConfig       = errors.New("stay api config error")
)

// APIError is a non-2xx response from the accommodation API.
type APIError struct {
	Status  int
	Message string
	Body    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("stay api http error: status=%d message=%s", e.Status, e.Message)
	}
	return fmt.Sprintf("stay api http error: status=%d body=%s", e.Status, e.Body)
}

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsNotFound reports a 404 from the API.
func IsNotFound(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Status == http.StatusNotFound
}

// IsUnauthorized reports a 401 from the API.
func IsUnauthorized(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Status == http.StatusUnauthorized
}

// Client represents the accommodation/reservation API client.
type Client struct {
	baseURL string
	ua      string
	http    *http.Client
	session *session.Session
}

// NewClient creates a new API client without a session.
func NewClient(baseURL string, timeout time.Duration, ua string) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		ua:      ua,
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// WithSession returns a copy of the client that authenticates as s.
// The underlying transport is shared.
func (c *Client) WithSession(s *session.Session) *Client {
	cp := *c
	cp.session = s
	return &cp
}

// Session returns the session the client authenticates with, if any.
func (c *Client) Session() *session.Session {
	return c.session
}

// SearchAccommodations runs GET /api/accommodations.
func (c *Client) SearchAccommodations(ctx context.Context, params SearchParams) (*AccommodationPage, error) {
	var page AccommodationPage
	if err := c.do(ctx, http.MethodGet, "/api/accommodations", params.Values(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetAccommodation runs GET /api/accommodations/{id}.
func (c *Client) GetAccommodation(ctx context.Context, id int64) (*catalog.Accommodation, error) {
	var acc catalog.Accommodation
	if err := c.do(ctx, http.MethodGet, "/api/accommodations/"+strconv.FormatInt(id, 10), nil, nil, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

// CreateReservation runs POST /api/reservations.
func (c *Client) CreateReservation(ctx context.Context, req ReservationRequest) (*Reservation, error) {
	if errs := validator.Validate(&req); errs != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, errs)
	}

	var out Reservation
	if err := c.do(ctx, http.MethodPost, "/api/reservations", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListReservations runs GET /api/reservations?page=.
func (c *Client) ListReservations(ctx context.Context, page int) (*ReservationPage, error) {
	if page <= 0 {
		page = 1
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))

	var out ReservationPage
	if err := c.do(ctx, http.MethodGet, "/api/reservations", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelReservation runs POST /api/reservations/{id}/cancel.
func (c *Client) CancelReservation(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, "/api/reservations/"+strconv.FormatInt(id, 10)+"/cancel", nil, nil, nil)
}

// ListFavorites runs GET /api/favorites?type=.
func (c *Client) ListFavorites(ctx context.Context, favType string) ([]Favorite, error) {
	q := url.Values{}
	if favType != "" {
		q.Set("type", favType)
	}

	var out []Favorite
	if err := c.do(ctx, http.MethodGet, "/api/favorites", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddFavorite runs POST /api/favorites.
func (c *Client) AddFavorite(ctx context.Context, req FavoriteRequest) (*Favorite, error) {
	if errs := validator.Validate(&req); errs != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, errs)
	}

	var out Favorite
	if err := c.do(ctx, http.MethodPost, "/api/favorites", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveFavorite runs DELETE /api/favorites/{id}.
func (c *Client) RemoveFavorite(ctx context.Context, favoriteID int64) error {
	return c.do(ctx, http.MethodDelete, "/api/favorites/"+strconv.FormatInt(favoriteID, 10), nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c == nil || c.http == nil {
		return fmt.Errorf("%w: client is nil", ErrConfig)
	}
	if strings.TrimSpace(c.baseURL) == "" {
		return fmt.Errorf("%w: base_url is empty", ErrConfig)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("stay api request error: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("stay api request error: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil {
		req.Header.Set("Authorization", c.session.AuthorizationHeader())
	}
	if c.ua != "" {
		req.Header.Set("User-Agent", c.ua)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		classified := classifyRequestError(ctx, err)
		errorhandler.LogExternalServiceError(ctx, serviceName, method+" "+path, 0, classified, "")
		return classified
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if readErr != nil {
			raw = []byte("<failed to read body: " + readErr.Error() + ">")
		}
		apiErr := &APIError{
			Status:  resp.StatusCode,
			Message: errorMessage(raw),
			Body:    string(raw),
		}
		errorhandler.LogExternalServiceError(ctx, serviceName, method+" "+path, resp.StatusCode, apiErr, apiErr.Body)
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("stay api decode error: %w", err)
	}
	return nil
}

// errorMessage pulls the human readable error out of a response body.
// Accepted shapes: {"error": "..."}, {"message": "..."}, {"error": {"message": "..."}}.
func errorMessage(body []byte) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	for _, key := range []string{"error", "message", "detail"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && strings.TrimSpace(s) != "" {
			return s
		}
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
	}
	return ""
}

func classifyRequestError(ctx context.Context, err error) error {
	if isTimeoutError(ctx, err) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	if isNetworkError(err) {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	return fmt.Errorf("stay api request error: %w", err)
}

func isTimeoutError(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

func isNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH) {
		return true
	}

	return false
}

// HTTPStatus maps a client error to the status the gateway answers with.
func HTTPStatus(err error) int {
	if apiErr, ok := AsAPIError(err); ok {
		switch apiErr.Status {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden,
			http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity:
			return apiErr.Status
		}
		return http.StatusBadGateway
	}
	switch {
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

// Message returns the API's error text, or fallback when there is none.
func Message(err error, fallback string) string {
	if apiErr, ok := AsAPIError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
