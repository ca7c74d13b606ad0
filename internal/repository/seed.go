package repository

import (
	"context"
	"fmt"

	"github.com/Shivanand-hulikatti/workspace-booking/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rates struct {
	hour       float64
	day, month *float64
}

func amount(v float64) *float64 { return &v }

func seedResource(id int64, name string, kind model.ResourceKind, desc, location, floor string, capacity int, r rates, amenities ...string) model.Resource {
	return model.Resource{
		ID:            id,
		Name:          name,
		Kind:          kind,
		Description:   desc,
		Location:      location,
		Floor:         floor,
		Capacity:      capacity,
		PricePerHour:  r.hour,
		PricePerDay:   r.day,
		PricePerMonth: r.month,
		Amenities:     amenities,
		IsActive:      true,
	}
}

// SeedResources returns the default catalog used in memory mode and by
// SeedCatalog for an empty database.
func SeedResources() []model.Resource {
	return []model.Resource{
		seedResource(1, "Private Office A1", model.KindPrivateOffice,
			"Fully furnished private office with natural lighting, perfect for small teams.",
			"KL Eco City", "Level 15", 4, rates{50, amount(350), amount(4500)},
			"wifi", "air_conditioning", "whiteboard", "tv_screen", "phone_booth"),
		seedResource(2, "Private Office B2", model.KindPrivateOffice,
			"Spacious corner office with panoramic city views, ideal for growing teams.",
			"KL Eco City", "Level 18", 8, rates{80, amount(550), amount(7500)},
			"wifi", "air_conditioning", "whiteboard", "tv_screen", "phone_booth", "standing_desk"),
		seedResource(3, "Hot Desk Zone A", model.KindHotDesk,
			"Flexible hot desk in our vibrant open workspace area.",
			"Bangsar South", "Level 8", 1, rates{15, amount(80), amount(800)},
			"wifi", "air_conditioning", "locker", "printing"),
		seedResource(4, "Hot Desk Zone B", model.KindHotDesk,
			"Quiet zone hot desk for focused work with ergonomic setup.",
			"KL Eco City", "Level 12", 1, rates{18, amount(95), amount(950)},
			"wifi", "air_conditioning", "locker", "printing", "standing_desk"),
		seedResource(5, "Meeting Room - Boardroom", model.KindMeetingRoom,
			"Executive boardroom with premium AV equipment for important meetings.",
			"KL Eco City", "Level 20", 12, rates{120, amount(800), nil},
			"wifi", "air_conditioning", "whiteboard", "tv_screen", "video_conferencing", "catering"),
		seedResource(6, "Meeting Room - Brainstorm", model.KindMeetingRoom,
			"Creative meeting space with writable walls and flexible furniture.",
			"Bangsar South", "Level 5", 6, rates{60, amount(400), nil},
			"wifi", "air_conditioning", "whiteboard", "tv_screen", "writable_walls"),
		seedResource(7, "Event Space", model.KindEventSpace,
			"Large event space perfect for workshops, seminars, and networking events.",
			"KL Eco City", "Level 3", 50, rates{300, amount(2000), nil},
			"wifi", "air_conditioning", "projector", "sound_system", "catering", "stage"),
		seedResource(8, "Phone Booth 1", model.KindPhoneBooth,
			"Soundproof phone booth for private calls and video meetings.",
			"KL Eco City", "Level 15", 1, rates{hour: 20},
			"wifi", "air_conditioning", "video_conferencing"),
	}
}

// SeedCatalog inserts SeedResources when the resources table is empty.
// It reports how many rows were written.
func SeedCatalog(ctx context.Context, db *pgxpool.Pool) (int, error) {
	var count int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM resources`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count resources: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	resources := SeedResources()
	for _, r := range resources {
		_, err = tx.Exec(ctx,
			`INSERT INTO resources
			   (id, name, type, description, location, floor, capacity,
			    price_per_hour, price_per_day, price_per_month, amenities, is_active)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			r.ID, r.Name, string(r.Kind), r.Description, r.Location, r.Floor, r.Capacity,
			r.PricePerHour, r.PricePerDay, r.PricePerMonth, r.Amenities, r.IsActive,
		)
		if err != nil {
			return 0, fmt.Errorf("insert resource %q: %w", r.Name, err)
		}
	}
	_, err = tx.Exec(ctx, `SELECT setval(pg_get_serial_sequence('resources', 'id'), (SELECT MAX(id) FROM resources))`)
	if err != nil {
		return 0, fmt.Errorf("advance resource sequence: %w", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return len(resources), nil
}
