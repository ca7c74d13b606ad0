// Package model defines the core domain types for the workspace booking system.
package model

import "time"

// ResourceKind is the category of a bookable resource.
type ResourceKind string

const (
	KindHotDesk       ResourceKind = "hot_desk"
	KindPrivateOffice ResourceKind = "private_office"
	KindMeetingRoom   ResourceKind = "meeting_room"
	KindEventSpace    ResourceKind = "event_space"
	KindPhoneBooth    ResourceKind = "phone_booth"
)

// ResourceKinds lists every valid kind in display order.
var ResourceKinds = []ResourceKind{KindHotDesk, KindPrivateOffice, KindMeetingRoom, KindEventSpace, KindPhoneBooth}

// Valid reports whether k is one of the known kinds.
func (k ResourceKind) Valid() bool {
	for _, known := range ResourceKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Resource is a bookable workspace owned by the catalog.
type Resource struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	Kind          ResourceKind `json:"type"`
	Description   string       `json:"description,omitempty"`
	Location      string       `json:"location"`
	Floor         string       `json:"floor,omitempty"`
	Capacity      int          `json:"capacity"`
	PricePerHour  float64      `json:"price_per_hour"`
	PricePerDay   *float64     `json:"price_per_day,omitempty"`
	PricePerMonth *float64     `json:"price_per_month,omitempty"`
	Amenities     []string     `json:"amenities"`
	IsActive      bool         `json:"is_active"`
}

// ResourceFilter narrows a catalog search. Zero values mean "no filter".
type ResourceFilter struct {
	Kind        ResourceKind
	Location    string
	MinCapacity int
	MaxPrice    float64
}

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
	StatusCompleted ReservationStatus = "completed"
)

// Live reports whether the status still holds its time range.
func (s ReservationStatus) Live() bool {
	return s == StatusPending || s == StatusConfirmed
}

// CanBecome reports whether an administrative edit may move s to next.
// Statuses only move forward: pending, confirmed, then cancelled or
// completed.
func (s ReservationStatus) CanBecome(next ReservationStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled || next == StatusCompleted
	case StatusConfirmed:
		return next == StatusCancelled || next == StatusCompleted
	}
	return false
}

// ReservationFilter narrows an administrative listing. Zero fields match
// everything; From and To bound the start time as [From, To).
type ReservationFilter struct {
	Status     ReservationStatus
	ResourceID int64
	ActorID    int64
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}

// Match reports whether r passes every set field of f. Paging is ignored.
func (f ReservationFilter) Match(r *Reservation) bool {
	switch {
	case f.Status != "" && r.Status != f.Status,
		f.ResourceID != 0 && r.ResourceID != f.ResourceID,
		f.ActorID != 0 && r.ActorID != f.ActorID,
		!f.From.IsZero() && r.Start.Before(f.From),
		!f.To.IsZero() && !r.Start.Before(f.To):
		return false
	}
	return true
}

// Reservation is a time-ranged claim on one resource by one actor.
// The range is half-open: [Start, End).
type Reservation struct {
	ID         string            `json:"id"`
	ResourceID int64             `json:"space_id"`
	ActorID    int64             `json:"user_id"`
	Start      time.Time         `json:"start_time"`
	End        time.Time         `json:"end_time"`
	Status     ReservationStatus `json:"status"`
	TotalPrice float64           `json:"total_price"`
	Note       string            `json:"notes,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Overlaps reports whether r intersects [start, end). Touching boundaries do
// not overlap.
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.Start.Before(end) && r.End.After(start)
}

// DurationHours returns the reserved length in hours.
func (r *Reservation) DurationHours() float64 {
	return r.End.Sub(r.Start).Hours()
}

// Actor is the identified caller. A nil *Actor is an anonymous caller.
type Actor struct {
	ID      int64
	IsAdmin bool
	Active  bool
}

// Slot is one fixed-width cell of a day's availability grid.
type Slot struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	IsFree bool      `json:"available"`
}

// DayAvailability is the slot grid for one resource on one calendar day.
type DayAvailability struct {
	ResourceID int64  `json:"space_id"`
	Date       string `json:"date"`
	Slots      []Slot `json:"available_slots"`
}

// CreateReservationRequest is the payload for a direct booking.
type CreateReservationRequest struct {
	ResourceID int64     `json:"space_id" validate:"required,gt=0"`
	Start      time.Time `json:"start_time" validate:"required"`
	End        time.Time `json:"end_time" validate:"required"`
	Note       string    `json:"notes" validate:"max=1000"`
}

// AdminUpdateRequest edits a reservation's status or notes. Nil fields are
// left unchanged; the price is never recomputed.
type AdminUpdateRequest struct {
	Status *ReservationStatus `json:"status" validate:"omitempty,oneof=pending confirmed cancelled completed"`
	Note   *string            `json:"notes" validate:"omitempty,max=1000"`
}

// AdminBookingQuery is the query of the administrative booking listing.
// Dates are YYYY-MM-DD in the operating time zone; DateTo is inclusive.
type AdminBookingQuery struct {
	Status     string `json:"status" validate:"omitempty,oneof=pending confirmed cancelled completed"`
	ResourceID int64  `json:"space_id" validate:"gte=0"`
	ActorID    int64  `json:"user_id" validate:"gte=0"`
	DateFrom   string `json:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo     string `json:"date_to" validate:"omitempty,datetime=2006-01-02"`
	Limit      int    `json:"limit" validate:"gte=0,lte=100"`
	Offset     int    `json:"offset" validate:"gte=0"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ChatMessage is one entry of the client-held conversation history.
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content"`
}

// ChatRequest is the payload for one assistant turn.
type ChatRequest struct {
	Message             string        `json:"message" validate:"required,max=4000"`
	ConversationHistory []ChatMessage `json:"conversation_history" validate:"max=200,dive"`
}

// ChatResponse carries the assistant's answer and the updated history.
type ChatResponse struct {
	Response            string        `json:"response"`
	ConversationHistory []ChatMessage `json:"conversation_history"`
}

// AgentStatus reports whether the reasoning service is configured.
type AgentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
