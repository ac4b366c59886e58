package models

import (
	"time"

	"github.com/google/uuid"
)

// Attendee statuses. New attendees always start as pending.
const (
	AttendeeStatusPending  = "PENDING"
	AttendeeStatusAccepted = "ACCEPTED"
	AttendeeStatusDeclined = "DECLINED"
)

// DateLayout and ClockLayout are the wire formats of event dates and times.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// Location is where an event happens. Only one of OnlineURL and Location is set.
type Location struct {
	ID        uuid.UUID `json:"id"`
	Online    bool      `json:"online"`
	OnlineURL string    `json:"online_url,omitempty"`
	Location  string    `json:"location,omitempty"`
}

// Event is a scheduled activity of an organization.
// StartTime and EndTime are times of day in ClockLayout.
type Event struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	CreatedByID    uuid.UUID `json:"created_by_id"`
	LocationID     uuid.UUID `json:"location_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	StartTime      string    `json:"start_time"`
	EndTime        string    `json:"end_time"`
	Open           bool      `json:"open"`
	Slots          *int      `json:"slots,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// EventCategory is a tag scoped to one organization, unique by name.
type EventCategory struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"name"`
}

// EventCategoryLink attaches a category to an event.
type EventCategoryLink struct {
	EventID    uuid.UUID `json:"event_id"`
	CategoryID uuid.UUID `json:"category_id"`
}

// EventAttendee is a user invited to an event.
type EventAttendee struct {
	ID       uuid.UUID `json:"id"`
	EventID  uuid.UUID `json:"event_id"`
	UserID   uuid.UUID `json:"user_id"`
	Name     string    `json:"name,omitempty"`
	Status   string    `json:"status"`
	Required bool      `json:"required"`
}

// AttendeeInput is one roster entry supplied when an event is created.
type AttendeeInput struct {
	UserID   uuid.UUID `json:"id"`
	Required bool      `json:"required"`
}

// EventDetails is an event with everything it owns.
type EventDetails struct {
	Event
	Location   Location        `json:"location"`
	Categories []EventCategory `json:"categories"`
	Attendees  []EventAttendee `json:"attendees"`
}
