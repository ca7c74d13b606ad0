// Package service implements request validation and orchestration between
// HTTP handlers and the booking core (ledger, projector, assistant loop).
package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/workspace-booking/internal/assistant"
	"github.com/Shivanand-hulikatti/workspace-booking/internal/availability"
	"github.com/Shivanand-hulikatti/workspace-booking/internal/ledger"
	"github.com/Shivanand-hulikatti/workspace-booking/internal/model"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ErrInvalidRequest is returned when a payload or query fails validation.
var ErrInvalidRequest = errors.New("invalid request")

// Catalog is the read side of the resource catalog.
type Catalog interface {
	Get(ctx context.Context, id int64) (*model.Resource, error)
	ListActive(ctx context.Context, f model.ResourceFilter) ([]model.Resource, error)
}

// BookingService orchestrates catalog, reservation and assistant operations.
type BookingService struct {
	catalog    Catalog
	ledger     *ledger.Ledger
	projector  *availability.Projector
	loop       *assistant.Loop
	agentReady bool
	validate   *validator.Validate
	log        *zap.Logger
}

// NewBookingService constructs a BookingService. agentReady reports whether
// a reasoning service is configured behind loop.
func NewBookingService(
	catalog Catalog,
	l *ledger.Ledger,
	projector *availability.Projector,
	loop *assistant.Loop,
	agentReady bool,
	log *zap.Logger,
) *BookingService {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &BookingService{
		catalog:    catalog,
		ledger:     l,
		projector:  projector,
		loop:       loop,
		agentReady: agentReady,
		validate:   v,
		log:        log,
	}
}

// ListSpaces returns active resources matching f.
func (s *BookingService) ListSpaces(ctx context.Context, f model.ResourceFilter) ([]model.Resource, error) {
	if f.Kind != "" && !f.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown space type %q", ErrInvalidRequest, f.Kind)
	}
	if f.MinCapacity < 0 || f.MaxPrice < 0 {
		return nil, fmt.Errorf("%w: filters must not be negative", ErrInvalidRequest)
	}
	spaces, err := s.catalog.ListActive(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list spaces: %w", err)
	}
	return spaces, nil
}

// GetSpace returns a single resource by ID.
func (s *BookingService) GetSpace(ctx context.Context, id int64) (*model.Resource, error) {
	space, err := s.catalog.Get(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get space: %w", err)
	}
	return space, nil
}

// Availability projects the slot grid of resource id on date (YYYY-MM-DD).
func (s *BookingService) Availability(ctx context.Context, id int64, date string) (*model.DayAvailability, error) {
	if date == "" {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidRequest)
	}
	day, err := availability.ParseDay(date, s.projector.Hours().Location)
	if err != nil {
		return nil, err
	}
	return s.projector.Project(ctx, id, day)
}

// CreateReservation validates req and books it for actor.
func (s *BookingService) CreateReservation(ctx context.Context, actor *model.Actor, req model.CreateReservationRequest) (*model.Reservation, error) {
	if actor == nil {
		return nil, model.ErrUnauthenticated
	}
	req.Note = strings.TrimSpace(req.Note)
	if err := s.check(req); err != nil {
		return nil, err
	}

	r, err := s.ledger.Create(ctx, ledger.CreateInput{
		ResourceID: req.ResourceID,
		ActorID:    actor.ID,
		Start:      req.Start,
		End:        req.End,
		Note:       req.Note,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("reservation created",
		zap.String("reservation_id", r.ID),
		zap.Int64("space_id", r.ResourceID),
		zap.Int64("user_id", r.ActorID),
	)
	return r, nil
}

// ListMine returns actor's reservations, optionally narrowed to upcoming
// ones and to one status.
func (s *BookingService) ListMine(ctx context.Context, actor *model.Actor, upcomingOnly bool, status model.ReservationStatus) ([]model.Reservation, error) {
	if actor == nil {
		return nil, model.ErrUnauthenticated
	}
	switch status {
	case "", model.StatusPending, model.StatusConfirmed, model.StatusCancelled, model.StatusCompleted:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, status)
	}

	list, err := s.ledger.ListForActor(ctx, actor.ID, upcomingOnly)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return list, nil
	}
	filtered := list[:0]
	for _, r := range list {
		if r.Status == status {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// GetReservation returns a reservation owned by actor, or any reservation
// for admins.
func (s *BookingService) GetReservation(ctx context.Context, actor *model.Actor, id string) (*model.Reservation, error) {
	if actor == nil {
		return nil, model.ErrUnauthenticated
	}
	return s.ledger.Get(ctx, id, actor.ID, actor.IsAdmin)
}

// CancelReservation cancels reservation id on behalf of actor.
func (s *BookingService) CancelReservation(ctx context.Context, actor *model.Actor, id string) (*model.Reservation, error) {
	if actor == nil {
		return nil, model.ErrUnauthenticated
	}
	r, err := s.ledger.Cancel(ctx, id, actor.ID, actor.IsAdmin)
	if err != nil {
		return nil, err
	}
	s.log.Info("reservation cancelled", zap.String("reservation_id", r.ID), zap.Int64("user_id", actor.ID))
	return r, nil
}

// DefaultAdminPageSize is the listing page size when the query sets none.
const DefaultAdminPageSize = 50

// ListReservations returns reservations across all users for an admin,
// latest start first.
func (s *BookingService) ListReservations(ctx context.Context, actor *model.Actor, q model.AdminBookingQuery) ([]model.Reservation, error) {
	if actor == nil {
		return nil, model.ErrUnauthenticated
	}
	if !actor.IsAdmin {
		return nil, model.ErrForbidden
	}
	if err := s.check(q); err != nil {
		return nil, err
	}

	f := model.ReservationFilter{
		Status:     model.ReservationStatus(q.Status),
		ResourceID: q.ResourceID,
		ActorID:    q.ActorID,
		Limit:      q.Limit,
		Offset:     q.Offset,
	}
	if f.Limit == 0 {
		f.Limit = DefaultAdminPageSize
	}
	loc := s.projector.Hours().Location
	if q.DateFrom != "" {
		from, err := time.ParseInLocation(time.DateOnly, q.DateFrom, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: date_from: %v", ErrInvalidRequest, err)
		}
		f.From = from
	}
	if q.DateTo != "" {
		to, err := time.ParseInLocation(time.DateOnly, q.DateTo, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: date_to: %v", ErrInvalidRequest, err)
		}
		f.To = to.AddDate(0, 0, 1)
	}
	if !f.From.IsZero() && !f.To.IsZero() && !f.From.Before(f.To) {
		return nil, fmt.Errorf("%w: date_from is after date_to", ErrInvalidRequest)
	}
	return s.ledger.List(ctx, f)
}

// AmendReservation applies an admin's status or notes edit.
func (s *BookingService) AmendReservation(ctx context.Context, actor *model.Actor, id string, req model.AdminUpdateRequest) (*model.Reservation, error) {
	if actor == nil {
		return nil, model.ErrUnauthenticated
	}
	if req.Note != nil {
		trimmed := strings.TrimSpace(*req.Note)
		req.Note = &trimmed
	}
	if err := s.check(req); err != nil {
		return nil, err
	}
	if req.Status == nil && req.Note == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidRequest)
	}
	return s.ledger.Amend(ctx, id, actor.ID, actor.IsAdmin, ledger.Amendment{Status: req.Status, Note: req.Note})
}

// Chat runs one assistant turn. The returned history is the request history
// followed by the user message and the answer. When the reasoning service
// fails, Chat returns a response carrying the fallback answer and the
// unchanged history, together with an error wrapping
// model.ErrUpstreamFailure.
func (s *BookingService) Chat(ctx context.Context, actor *model.Actor, req model.ChatRequest) (*model.ChatResponse, error) {
	req.Message = strings.TrimSpace(req.Message)
	if err := s.check(req); err != nil {
		return nil, err
	}

	history := make([]assistant.Turn, 0, len(req.ConversationHistory))
	for _, m := range req.ConversationHistory {
		if m.Role == string(assistant.RoleAssistant) {
			history = append(history, assistant.AssistantTurn(m.Content))
			continue
		}
		history = append(history, assistant.UserTurn(m.Content))
	}

	prior := make([]model.ChatMessage, len(req.ConversationHistory), len(req.ConversationHistory)+2)
	copy(prior, req.ConversationHistory)

	res, err := s.loop.Run(ctx, actor, history, req.Message)
	if err != nil {
		return &model.ChatResponse{Response: res.Answer, ConversationHistory: prior}, err
	}
	if res.Degraded {
		s.log.Warn("chat turn degraded", zap.Int("steps", res.Steps))
	}

	return &model.ChatResponse{
		Response: res.Answer,
		ConversationHistory: append(prior,
			model.ChatMessage{Role: string(assistant.RoleUser), Content: req.Message},
			model.ChatMessage{Role: string(assistant.RoleAssistant), Content: res.Answer},
		),
	}, nil
}

// AgentStatus reports whether chat can reach a reasoning service.
func (s *BookingService) AgentStatus() model.AgentStatus {
	if !s.agentReady {
		return model.AgentStatus{
			Status:  "unavailable",
			Message: "AI assistant is currently unavailable: no reasoning service configured",
		}
	}
	return model.AgentStatus{Status: "available", Message: "AI assistant is ready to help"}
}

func (s *BookingService) check(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(msgs, "; "))
}
