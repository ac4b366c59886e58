package events

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/campus-orgs/backend/internal/models"
	"github.com/campus-orgs/backend/pkg/apperr"
)

const (
	minNameLength        = 3
	maxDescriptionLength = 250
	maxCategories        = 5
)

// Tag is a category label. It decodes from either "Social" or {"text": "Social"}.
type Tag string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Tag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var obj struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		*t = Tag(obj.Text)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*t = Tag(s)
	return nil
}

// CreateEventInput is the attribute set of a new event. Dates use models.DateLayout
// and times models.ClockLayout.
type CreateEventInput struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	Online         bool   `json:"online"`
	OnlineURL      string `json:"online_url"`
	Location       string `json:"location"`
	UnlimitedSlots bool   `json:"unlimited_slots"`
	Slots          *int   `json:"slots"`
	Categories     []Tag  `json:"categories"`
}

// draft is a validated event ready to persist.
type draft struct {
	event      models.Event
	location   models.Location
	categories []string
	attendees  []models.AttendeeInput
}

// prepare validates in against today (in the caller's calendar) and normalizes categories and attendees.
func prepare(in CreateEventInput, attendees []models.AttendeeInput, today time.Time) (*draft, error) {
	name := strings.TrimSpace(in.Name)
	if utf8.RuneCountInString(name) < minNameLength {
		return nil, apperr.Validation("name must be at least %d characters", minNameLength)
	}
	desc := strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(desc) > maxDescriptionLength {
		return nil, apperr.Validation("description must be at most %d characters", maxDescriptionLength)
	}

	startDate, err := parseDate("start_date", in.StartDate)
	if err != nil {
		return nil, err
	}
	endDate, err := parseDate("end_date", in.EndDate)
	if err != nil {
		return nil, err
	}
	today = dateOnly(today)
	if startDate.Before(today) {
		return nil, apperr.Validation("start_date cannot be in the past")
	}
	if endDate.Before(startDate) {
		return nil, apperr.Validation("end_date must not be before start_date")
	}

	startTime, err := parseClock("start_time", in.StartTime)
	if err != nil {
		return nil, err
	}
	endTime, err := parseClock("end_time", in.EndTime)
	if err != nil {
		return nil, err
	}
	if endDate.Equal(startDate) && !endTime.After(startTime) {
		return nil, apperr.Validation("end_time must be after start_time on a single-day event")
	}

	loc, err := location(in)
	if err != nil {
		return nil, err
	}

	var slots *int
	if !in.UnlimitedSlots && in.Slots != nil {
		if *in.Slots < 1 {
			return nil, apperr.Validation("slots must be at least 1")
		}
		n := *in.Slots
		slots = &n
	}

	categories, err := normalizeCategories(in.Categories)
	if err != nil {
		return nil, err
	}

	for _, a := range attendees {
		if a.UserID == uuid.Nil {
			return nil, apperr.Validation("attendee id is required")
		}
	}
	roster := dedupeAttendees(attendees)
	if slots != nil && len(roster) > *slots {
		return nil, apperr.Validation("%d attendees exceed the %d available slots", len(roster), *slots)
	}

	return &draft{
		event: models.Event{
			Name:        name,
			Description: desc,
			StartDate:   startDate,
			EndDate:     endDate,
			StartTime:   startTime.Format(models.ClockLayout),
			EndTime:     endTime.Format(models.ClockLayout),
			Open:        in.UnlimitedSlots,
			Slots:       slots,
		},
		location:   loc,
		categories: categories,
		attendees:  roster,
	}, nil
}

func parseDate(field, v string) (time.Time, error) {
	d, err := time.Parse(models.DateLayout, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, apperr.Validation("%s must be a date in YYYY-MM-DD format", field)
	}
	return d, nil
}

func parseClock(field, v string) (time.Time, error) {
	t, err := time.Parse(models.ClockLayout, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, apperr.Validation("%s must be a time in HH:MM format", field)
	}
	return t, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// location keeps only the field selected by the online flag.
func location(in CreateEventInput) (models.Location, error) {
	if in.Online {
		raw := strings.TrimSpace(in.OnlineURL)
		u, err := url.Parse(raw)
		if raw == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return models.Location{}, apperr.Validation("online events need an http(s) online_url")
		}
		return models.Location{Online: true, OnlineURL: raw}, nil
	}
	place := strings.TrimSpace(in.Location)
	if place == "" {
		return models.Location{}, apperr.Validation("in-person events need a location")
	}
	return models.Location{Location: place}, nil
}

// normalizeCategories lower-cases and trims tags, drops blanks and collapses duplicates
// while keeping first-seen order.
func normalizeCategories(tags []Tag) ([]string, error) {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		name := strings.ToLower(strings.TrimSpace(string(t)))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	if len(out) > maxCategories {
		return nil, apperr.Validation("at most %d categories are allowed", maxCategories)
	}
	return out, nil
}

// dedupeAttendees keeps one entry per user; required wins over optional.
func dedupeAttendees(in []models.AttendeeInput) []models.AttendeeInput {
	index := make(map[uuid.UUID]int, len(in))
	out := make([]models.AttendeeInput, 0, len(in))
	for _, a := range in {
		if i, ok := index[a.UserID]; ok {
			out[i].Required = out[i].Required || a.Required
			continue
		}
		index[a.UserID] = len(out)
		out = append(out, a)
	}
	return out
}
