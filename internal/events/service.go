package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campus-orgs/backend/internal/feed"
	"github.com/campus-orgs/backend/internal/models"
	"github.com/campus-orgs/backend/pkg/apperr"
)

// Store is the event persistence used by Service.
type Store interface {
	CreateWithRoster(ctx context.Context, ev *models.Event, loc *models.Location, categories []string, attendees []models.AttendeeInput) error
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]models.EventDetails, error)
}

// Notifier publishes activity on an organization's feed.
type Notifier interface {
	Publish(ctx context.Context, orgID uuid.UUID, event string, data any) error
}

// Service implements event provisioning.
type Service struct {
	store  Store
	feed   Notifier
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates an events service. notifier may be nil.
func NewService(store Store, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, feed: notifier, logger: logger, now: time.Now}
}

// CreateEvent validates the input and atomically creates the event with its
// location, categories and PENDING attendees.
func (s *Service) CreateEvent(ctx context.Context, orgID, creatorID uuid.UUID, in CreateEventInput, attendees []models.AttendeeInput) (*models.Event, error) {
	if orgID == uuid.Nil || creatorID == uuid.Nil {
		return nil, apperr.Validation("organization and creator are required")
	}
	d, err := prepare(in, attendees, s.now())
	if err != nil {
		return nil, err
	}
	ev := d.event
	ev.OrganizationID = orgID
	ev.CreatedByID = creatorID
	loc := d.location

	if err := s.store.CreateWithRoster(ctx, &ev, &loc, d.categories, d.attendees); err != nil {
		s.logger.Warn("create event failed",
			zap.String("org_id", orgID.String()),
			zap.String("creator_id", creatorID.String()),
			zap.String("kind", string(apperr.KindOf(err))),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("event created",
		zap.String("event_id", ev.ID.String()),
		zap.String("org_id", orgID.String()),
		zap.Int("categories", len(d.categories)),
		zap.Int("attendees", len(d.attendees)),
	)
	if s.feed != nil {
		err := s.feed.Publish(context.WithoutCancel(ctx), orgID, feed.EventEventCreated, map[string]any{
			"id":         ev.ID,
			"name":       ev.Name,
			"start_date": ev.StartDate.Format(models.DateLayout),
		})
		if err != nil {
			s.logger.Warn("feed publish failed", zap.String("event_id", ev.ID.String()), zap.Error(err))
		}
	}
	return &ev, nil
}

// ListEvents returns the organization's events with their details.
func (s *Service) ListEvents(ctx context.Context, orgID uuid.UUID) ([]models.EventDetails, error) {
	return s.store.ListByOrganization(ctx, orgID)
}
