package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/campus-orgs/backend/internal/feed"
	"github.com/campus-orgs/backend/internal/models"
	"github.com/campus-orgs/backend/pkg/apperr"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateWithRoster(ctx context.Context, ev *models.Event, loc *models.Location, categories []string, attendees []models.AttendeeInput) error {
	return m.Called(ctx, ev, loc, categories, attendees).Error(0)
}

func (m *mockStore) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]models.EventDetails, error) {
	args := m.Called(ctx, orgID)
	return args.Get(0).([]models.EventDetails), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Publish(ctx context.Context, orgID uuid.UUID, event string, data any) error {
	return m.Called(ctx, orgID, event, data).Error(0)
}

func newTestService(store Store, notifier Notifier) *Service {
	svc := NewService(store, notifier, nil)
	svc.now = func() time.Time { return today }
	return svc
}

func TestCreateEvent_PassesNormalizedDraft(t *testing.T) {
	store, notifier := new(mockStore), new(mockNotifier)
	svc := newTestService(store, notifier)
	orgID, creator, user := uuid.New(), uuid.New(), uuid.New()
	eventID := uuid.New()

	in := validEvent()
	in.Categories = []Tag{"Social", "social"}
	roster := []models.AttendeeInput{{UserID: user}, {UserID: user, Required: true}}

	store.On("CreateWithRoster", mock.Anything,
		mock.MatchedBy(func(ev *models.Event) bool {
			return ev.OrganizationID == orgID && ev.CreatedByID == creator && ev.StartTime == "18:00"
		}),
		&models.Location{Location: "Student Union 101"},
		[]string{"social"},
		[]models.AttendeeInput{{UserID: user, Required: true}},
	).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Event).ID = eventID
	}).Return(nil)
	notifier.On("Publish", mock.Anything, orgID, feed.EventEventCreated, mock.Anything).Return(nil)

	ev, err := svc.CreateEvent(context.Background(), orgID, creator, in, roster)
	require.NoError(t, err)
	assert.Equal(t, eventID, ev.ID)
	store.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestCreateEvent_ValidationSkipsStore(t *testing.T) {
	store := new(mockStore)
	svc := newTestService(store, nil)

	in := validEvent()
	in.StartDate = "2026-01-01"
	_, err := svc.CreateEvent(context.Background(), uuid.New(), uuid.New(), in, nil)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.CreateEvent(context.Background(), uuid.Nil, uuid.New(), validEvent(), nil)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	store.AssertNotCalled(t, "CreateWithRoster", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateEvent_StoreErrorSurfacesKind(t *testing.T) {
	store, notifier := new(mockStore), new(mockNotifier)
	svc := newTestService(store, notifier)
	store.On("CreateWithRoster", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(apperr.NotFound("add attendees: referenced record does not exist", nil))

	_, err := svc.CreateEvent(context.Background(), uuid.New(), uuid.New(), validEvent(),
		[]models.AttendeeInput{{UserID: uuid.New()}})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	notifier.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
