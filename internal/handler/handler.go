// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Shivanand-hulikatti/workspace-booking/internal/auth"
	"github.com/Shivanand-hulikatti/workspace-booking/internal/model"
	"github.com/Shivanand-hulikatti/workspace-booking/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BookingHandler holds all HTTP handlers for the workspace booking API.
type BookingHandler struct {
	svc *service.BookingService
	log *zap.Logger
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(svc *service.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{svc: svc, log: log}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// statusFor maps the domain error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, model.ErrInvalidRange),
		errors.Is(err, model.ErrInactiveResource),
		errors.Is(err, model.ErrInvalidTransition),
		errors.Is(err, model.ErrAlreadyTerminal):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, model.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrUpstreamFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with its mapped status. notFound replaces the message for
// 404s so callers see which entity was missing.
func (h *BookingHandler) fail(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	status := statusFor(err)
	switch status {
	case http.StatusInternalServerError:
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, status, "internal server error")
	case http.StatusNotFound:
		writeError(w, status, notFound)
	case http.StatusConflict:
		writeError(w, status, "space is not available for the selected time slot")
	default:
		writeError(w, status, err.Error())
	}
}

func spaceID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid space id", service.ErrInvalidRequest)
	}
	return id, nil
}

func parseFilter(r *http.Request) (model.ResourceFilter, error) {
	q := r.URL.Query()
	f := model.ResourceFilter{
		Kind:     model.ResourceKind(q.Get("type")),
		Location: strings.TrimSpace(q.Get("location")),
	}
	if v := q.Get("min_capacity"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, fmt.Errorf("%w: min_capacity must be an integer", service.ErrInvalidRequest)
		}
		f.MinCapacity = n
	}
	if v := q.Get("max_price"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, fmt.Errorf("%w: max_price must be a number", service.ErrInvalidRequest)
		}
		f.MaxPrice = p
	}
	return f, nil
}

// ─── Spaces ───────────────────────────────────────────────────────────────────

// ListSpaces handles GET /spaces
// Filters: type, location, min_capacity, max_price.
func (h *BookingHandler) ListSpaces(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	spaces, err := h.svc.ListSpaces(r.Context(), f)
	if err != nil {
		h.fail(w, r, err, "space not found")
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if spaces == nil {
		spaces = []model.Resource{}
	}
	writeJSON(w, http.StatusOK, spaces)
}

// GetSpace handles GET /spaces/{id}
func (h *BookingHandler) GetSpace(w http.ResponseWriter, r *http.Request) {
	id, err := spaceID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	space, err := h.svc.GetSpace(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "space not found")
		return
	}
	writeJSON(w, http.StatusOK, space)
}

// Availability handles GET /spaces/{id}/availability?date=YYYY-MM-DD
func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request) {
	id, err := spaceID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	day, err := h.svc.Availability(r.Context(), id, r.URL.Query().Get("date"))
	if err != nil {
		h.fail(w, r, err, "space not found")
		return
	}
	writeJSON(w, http.StatusOK, day)
}

// ─── Bookings ─────────────────────────────────────────────────────────────────

// CreateBooking handles POST /bookings
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req model.CreateReservationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := h.svc.CreateReservation(r.Context(), auth.ActorFrom(r.Context()), req)
	if err != nil {
		h.fail(w, r, err, "space not found")
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// MyBookings handles GET /bookings/me?upcoming_only=&status=
func (h *BookingHandler) MyBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var upcoming bool
	if v := q.Get("upcoming_only"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "upcoming_only must be a boolean")
			return
		}
		upcoming = b
	}

	list, err := h.svc.ListMine(r.Context(), auth.ActorFrom(r.Context()), upcoming, model.ReservationStatus(q.Get("status")))
	if err != nil {
		h.fail(w, r, err, "booking not found")
		return
	}
	if list == nil {
		list = []model.Reservation{}
	}
	writeJSON(w, http.StatusOK, list)
}

// GetBooking handles GET /bookings/{id}
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.GetReservation(r.Context(), auth.ActorFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "booking not found")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CancelBooking handles DELETE /bookings/{id}
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.CancelReservation(r.Context(), auth.ActorFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "booking not found")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ─── Admin ───────────────────────────────────────────────────────────────────

func parseAdminQuery(r *http.Request) (model.AdminBookingQuery, error) {
	q := r.URL.Query()
	out := model.AdminBookingQuery{
		Status:   q.Get("status"),
		DateFrom: q.Get("date_from"),
		DateTo:   q.Get("date_to"),
	}
	ints := []struct {
		name string
		dst  *int64
	}{
		{"space_id", &out.ResourceID},
		{"user_id", &out.ActorID},
	}
	for _, p := range ints {
		if v := q.Get(p.name); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return out, fmt.Errorf("%w: %s must be an integer", service.ErrInvalidRequest, p.name)
			}
			*p.dst = n
		}
	}
	for name, dst := range map[string]*int{"limit": &out.Limit, "offset": &out.Offset} {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return out, fmt.Errorf("%w: %s must be an integer", service.ErrInvalidRequest, name)
			}
			*dst = n
		}
	}
	return out, nil
}

// AdminBookings handles GET /admin/bookings
// Filters: status, space_id, user_id, date_from, date_to, limit, offset.
func (h *BookingHandler) AdminBookings(w http.ResponseWriter, r *http.Request) {
	q, err := parseAdminQuery(r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	list, err := h.svc.ListReservations(r.Context(), auth.ActorFrom(r.Context()), q)
	if err != nil {
		h.fail(w, r, err, "booking not found")
		return
	}
	if list == nil {
		list = []model.Reservation{}
	}
	writeJSON(w, http.StatusOK, list)
}

// AdminUpdateBooking handles PUT /admin/bookings/{id}
func (h *BookingHandler) AdminUpdateBooking(w http.ResponseWriter, r *http.Request) {
	var req model.AdminUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	res, err := h.svc.AmendReservation(r.Context(), auth.ActorFrom(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, r, err, "booking not found")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ─── Assistant ────────────────────────────────────────────────────────────────

// Chat handles POST /agent/chat
// Anonymous callers may chat; actions that need identity answer accordingly.
func (h *BookingHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.svc.Chat(r.Context(), auth.ActorFrom(r.Context()), req)
	if err != nil {
		if errors.Is(err, model.ErrUpstreamFailure) && resp != nil {
			h.log.Warn("assistant upstream failure", zap.Error(err))
			writeJSON(w, http.StatusBadGateway, resp)
			return
		}
		h.fail(w, r, err, "not found")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// AgentStatus handles GET /agent/status
func (h *BookingHandler) AgentStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.AgentStatus())
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
