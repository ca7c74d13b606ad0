// Package actions defines the closed set of operations the assistant may
// request and turns each of them into plain text for the conversation.
package actions

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Action names as published to the reasoning service.
const (
	NameSearch            = "search_spaces"
	NameCheckAvailability = "check_availability"
	NameCreateReservation = "create_booking"
	NameListMine          = "get_user_bookings"
	NameCancel            = "cancel_booking"
)

// ErrUnknownAction is returned by Decode for names outside the catalog.
var ErrUnknownAction = errors.New("unknown action")

// Call is an action requested by the reasoning service.
type Call struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// Action is one of Search, CheckAvailability, CreateReservation, ListMine
// or Cancel. The set is closed.
type Action interface {
	Name() string
	sealed()
}

// Search lists active resources.
type Search struct {
	SpaceType       string  `json:"space_type" validate:"omitempty,oneof=hot_desk private_office meeting_room event_space phone_booth"`
	Location        string  `json:"location" validate:"max=100"`
	MinCapacity     int     `json:"min_capacity" validate:"gte=0"`
	MaxPricePerHour float64 `json:"max_price_per_hour" validate:"gte=0"`
}

// CheckAvailability projects one resource's day.
type CheckAvailability struct {
	SpaceID   int64  `json:"space_id" validate:"required,gt=0"`
	CheckDate string `json:"check_date" validate:"required"`
}

// CreateReservation books whole hours on one day.
type CreateReservation struct {
	SpaceID     int64  `json:"space_id" validate:"required,gt=0"`
	BookingDate string `json:"booking_date" validate:"required"`
	StartHour   int    `json:"start_hour" validate:"gte=0,lte=24"`
	EndHour     int    `json:"end_hour" validate:"gte=0,lte=24"`
	Notes       string `json:"notes" validate:"max=1000"`
}

// ListMine lists the caller's reservations.
type ListMine struct {
	UpcomingOnly *bool `json:"upcoming_only"`
}

// Upcoming reports the effective filter; it defaults to true.
func (a ListMine) Upcoming() bool {
	return a.UpcomingOnly == nil || *a.UpcomingOnly
}

// Cancel cancels one of the caller's reservations.
type Cancel struct {
	BookingID string `json:"booking_id" validate:"required"`
}

func (Search) Name() string            { return NameSearch }
func (CheckAvailability) Name() string { return NameCheckAvailability }
func (CreateReservation) Name() string { return NameCreateReservation }
func (ListMine) Name() string          { return NameListMine }
func (Cancel) Name() string            { return NameCancel }

func (Search) sealed()            {}
func (CheckAvailability) sealed() {}
func (CreateReservation) sealed() {}
func (ListMine) sealed()          {}
func (Cancel) sealed()            {}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Decode turns a requested call into a validated Action.
func Decode(name string, args map[string]any) (Action, error) {
	switch name {
	case NameSearch:
		return decodeAs[Search](args)
	case NameCheckAvailability:
		return decodeAs[CheckAvailability](args)
	case NameCreateReservation:
		return decodeAs[CreateReservation](args)
	case NameListMine:
		return decodeAs[ListMine](args)
	case NameCancel:
		return decodeAs[Cancel](args)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
}

func decodeAs[T Action](args map[string]any) (Action, error) {
	var a T
	if len(args) > 0 {
		raw, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("encode arguments: %w", err)
		}
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("decode arguments: %w", err)
		}
	}
	if err := validate.Struct(a); err != nil {
		return nil, describeValidation(err)
	}
	return a, nil
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(parts, "; "))
}
