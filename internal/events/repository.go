package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-orgs/backend/internal/models"
	"github.com/campus-orgs/backend/pkg/apperr"
)

// Repository handles event, location, category and attendee persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an events repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateWithRoster writes the location, the event, its categories and links and its
// attendees in one transaction. Categories are upserted by (name, organization).
// Attendees must be members of the organization; attendees are assumed unique.
// ev.ID, ev.LocationID and ev.CreatedAt are filled on success.
func (r *Repository) CreateWithRoster(ctx context.Context, ev *models.Event, loc *models.Location, categories []string, attendees []models.AttendeeInput) error {
	startTime, err := toPgTime(ev.StartTime)
	if err != nil {
		return apperr.Validation("start_time must be a time in HH:MM format")
	}
	endTime, err := toPgTime(ev.EndTime)
	if err != nil {
		return apperr.Validation("end_time must be a time in HH:MM format")
	}

	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO locations (online, online_url, location) VALUES ($1, NULLIF($2, ''), NULLIF($3, '')) RETURNING id`,
			loc.Online, loc.OnlineURL, loc.Location,
		).Scan(&loc.ID)
		if err != nil {
			return apperr.FromPostgres(err, "create location")
		}
		ev.LocationID = loc.ID

		err = tx.QueryRow(ctx,
			`INSERT INTO events (organization_id, created_by_id, location_id, name, description,
				start_date, end_date, start_time, end_time, open, slots)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 RETURNING id, created_at`,
			ev.OrganizationID, ev.CreatedByID, ev.LocationID, ev.Name, ev.Description,
			ev.StartDate, ev.EndDate, startTime, endTime, ev.Open, ev.Slots,
		).Scan(&ev.ID, &ev.CreatedAt)
		if err != nil {
			return apperr.FromPostgres(err, "create event")
		}

		if len(categories) > 0 {
			links := make([][]any, 0, len(categories))
			for _, name := range categories {
				var categoryID uuid.UUID
				err := tx.QueryRow(ctx,
					`INSERT INTO event_categories (organization_id, name) VALUES ($1, $2)
					 ON CONFLICT (name, organization_id) DO UPDATE SET name = EXCLUDED.name
					 RETURNING id`,
					ev.OrganizationID, name,
				).Scan(&categoryID)
				if err != nil {
					return apperr.FromPostgres(err, "upsert category")
				}
				links = append(links, []any{ev.ID, categoryID})
			}
			if _, err := tx.CopyFrom(ctx,
				pgx.Identifier{"event_category_links"},
				[]string{"event_id", "category_id"},
				pgx.CopyFromRows(links),
			); err != nil {
				return apperr.FromPostgres(err, "link categories")
			}
		}

		if len(attendees) > 0 {
			ids := make([]string, 0, len(attendees))
			rows := make([][]any, 0, len(attendees))
			for _, a := range attendees {
				ids = append(ids, a.UserID.String())
				rows = append(rows, []any{ev.ID, a.UserID, models.AttendeeStatusPending, a.Required})
			}
			var members int
			err := tx.QueryRow(ctx,
				`SELECT COUNT(*) FROM user_organizations WHERE organization_id = $1 AND user_id = ANY($2::uuid[])`,
				ev.OrganizationID, ids,
			).Scan(&members)
			if err != nil {
				return apperr.FromPostgres(err, "check attendees")
			}
			if members != len(attendees) {
				return apperr.NotFound("every attendee must be a member of the organization", nil)
			}
			if _, err := tx.CopyFrom(ctx,
				pgx.Identifier{"event_attendees"},
				[]string{"event_id", "user_id", "status", "required"},
				pgx.CopyFromRows(rows),
			); err != nil {
				return apperr.FromPostgres(err, "add attendees")
			}
		}
		return nil
	})
	return apperr.FromPostgres(err, "create event")
}

// ListByOrganization returns every event of the organization, soonest first, with
// its location, categories and attendees.
func (r *Repository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]models.EventDetails, error) {
	const q = `SELECT e.id, e.organization_id, e.created_by_id, e.location_id, e.name, e.description,
		e.start_date, e.end_date, e.start_time, e.end_time, e.open, e.slots, e.created_at,
		l.id, l.online, COALESCE(l.online_url, ''), COALESCE(l.location, '')
		FROM events e
		INNER JOIN locations l ON l.id = e.location_id
		WHERE e.organization_id = $1
		ORDER BY e.start_date, e.start_time, e.created_at`
	rows, err := r.pool.Query(ctx, q, orgID)
	if err != nil {
		return nil, apperr.FromPostgres(err, "list events")
	}
	defer rows.Close()

	list := []models.EventDetails{}
	index := map[uuid.UUID]int{}
	for rows.Next() {
		var d models.EventDetails
		var start, end pgtype.Time
		var slots *int32
		if err := rows.Scan(
			&d.ID, &d.OrganizationID, &d.CreatedByID, &d.LocationID, &d.Name, &d.Description,
			&d.StartDate, &d.EndDate, &start, &end, &d.Open, &slots, &d.CreatedAt,
			&d.Location.ID, &d.Location.Online, &d.Location.OnlineURL, &d.Location.Location,
		); err != nil {
			return nil, apperr.FromPostgres(err, "list events")
		}
		d.StartTime = fromPgTime(start)
		d.EndTime = fromPgTime(end)
		if slots != nil {
			n := int(*slots)
			d.Slots = &n
		}
		d.Categories = []models.EventCategory{}
		d.Attendees = []models.EventAttendee{}
		index[d.ID] = len(list)
		list = append(list, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.FromPostgres(err, "list events")
	}
	if len(list) == 0 {
		return list, nil
	}

	if err := r.attachCategories(ctx, orgID, list, index); err != nil {
		return nil, err
	}
	if err := r.attachAttendees(ctx, orgID, list, index); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *Repository) attachCategories(ctx context.Context, orgID uuid.UUID, list []models.EventDetails, index map[uuid.UUID]int) error {
	rows, err := r.pool.Query(ctx,
		`SELECT l.event_id, c.id, c.organization_id, c.name
		 FROM event_category_links l
		 INNER JOIN event_categories c ON c.id = l.category_id
		 INNER JOIN events e ON e.id = l.event_id
		 WHERE e.organization_id = $1
		 ORDER BY c.name`,
		orgID,
	)
	if err != nil {
		return apperr.FromPostgres(err, "list event categories")
	}
	defer rows.Close()
	for rows.Next() {
		var eventID uuid.UUID
		var c models.EventCategory
		if err := rows.Scan(&eventID, &c.ID, &c.OrganizationID, &c.Name); err != nil {
			return apperr.FromPostgres(err, "list event categories")
		}
		if i, ok := index[eventID]; ok {
			list[i].Categories = append(list[i].Categories, c)
		}
	}
	return apperr.FromPostgres(rows.Err(), "list event categories")
}

func (r *Repository) attachAttendees(ctx context.Context, orgID uuid.UUID, list []models.EventDetails, index map[uuid.UUID]int) error {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.event_id, a.user_id, u.name, a.status, a.required
		 FROM event_attendees a
		 INNER JOIN users u ON u.id = a.user_id
		 INNER JOIN events e ON e.id = a.event_id
		 WHERE e.organization_id = $1
		 ORDER BY a.required DESC, u.name`,
		orgID,
	)
	if err != nil {
		return apperr.FromPostgres(err, "list event attendees")
	}
	defer rows.Close()
	for rows.Next() {
		var a models.EventAttendee
		if err := rows.Scan(&a.ID, &a.EventID, &a.UserID, &a.Name, &a.Status, &a.Required); err != nil {
			return apperr.FromPostgres(err, "list event attendees")
		}
		if i, ok := index[a.EventID]; ok {
			list[i].Attendees = append(list[i].Attendees, a)
		}
	}
	return apperr.FromPostgres(rows.Err(), "list event attendees")
}

// toPgTime converts an HH:MM clock value to a TIME parameter.
func toPgTime(clock string) (pgtype.Time, error) {
	t, err := time.Parse(models.ClockLayout, clock)
	if err != nil {
		return pgtype.Time{}, fmt.Errorf("parse clock %q: %w", clock, err)
	}
	us := (int64(t.Hour())*3600 + int64(t.Minute())*60) * int64(time.Second/time.Microsecond)
	return pgtype.Time{Microseconds: us, Valid: true}, nil
}

func fromPgTime(t pgtype.Time) string {
	if !t.Valid {
		return ""
	}
	d := time.Duration(t.Microseconds) * time.Microsecond
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}
