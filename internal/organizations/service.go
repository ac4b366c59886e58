package organizations

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campus-orgs/backend/internal/feed"
	"github.com/campus-orgs/backend/internal/models"
	"github.com/campus-orgs/backend/pkg/apperr"
	"github.com/campus-orgs/backend/pkg/queue"
)

const exploreLimit = 20

// Store is the organization persistence used by Service.
type Store interface {
	CreateWithOwner(ctx context.Context, org *models.Organization, ownerID uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.OrganizationSummary, error)
	GetByJoinCode(ctx context.Context, code string) (*models.Organization, error)
	RoleOf(ctx context.Context, orgID, userID uuid.UUID) (string, error)
	IsMember(ctx context.Context, orgID, userID uuid.UUID) (bool, error)
	Explore(ctx context.Context, term, code string, limit int) ([]models.OrganizationSummary, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.OrganizationSummary, error)
	ListMembers(ctx context.Context, orgID uuid.UUID) ([]models.Member, error)
	AddMember(ctx context.Context, orgID, userID uuid.UUID, roleName string) error
	RemoveMember(ctx context.Context, orgID, userID uuid.UUID) (bool, error)
}

// AssetCleaner schedules deletion of uploaded images that no organization will reference.
type AssetCleaner interface {
	EnqueueAssetCleanup(ctx context.Context, payload queue.AssetCleanupPayload) error
}

// Notifier publishes activity on an organization's feed.
type Notifier interface {
	Publish(ctx context.Context, orgID uuid.UUID, event string, data any) error
}

// Service implements organization provisioning and membership.
type Service struct {
	store   Store
	cleaner AssetCleaner
	feed    Notifier
	logger  *zap.Logger
}

// NewService creates an organizations service. cleaner and notifier may be nil.
func NewService(store Store, cleaner AssetCleaner, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, cleaner: cleaner, feed: notifier, logger: logger}
}

// CreateOrganization validates the input and atomically creates the organization,
// its Owner/Admin/General roles and the creator's Owner membership.
// When creation fails the supplied asset keys are queued for deletion.
func (s *Service) CreateOrganization(ctx context.Context, creatorID uuid.UUID, in CreateOrganizationInput, assets models.AssetRefs) (*models.Organization, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		s.releaseAssets(ctx, creatorID, in.Username, assets)
		return nil, err
	}

	org := in.toModel(assets)
	if err := s.store.CreateWithOwner(ctx, org, creatorID); err != nil {
		s.logger.Warn("create organization failed",
			zap.String("creator_id", creatorID.String()),
			zap.String("username", org.Username),
			zap.String("kind", string(apperr.KindOf(err))),
			zap.Error(err),
		)
		s.releaseAssets(ctx, creatorID, org.Username, assets)
		return nil, err
	}

	s.logger.Info("organization created", zap.String("org_id", org.ID.String()), zap.String("owner_id", creatorID.String()))
	return org, nil
}

func (s *Service) releaseAssets(ctx context.Context, creatorID uuid.UUID, username string, assets models.AssetRefs) {
	keys := assets.Keys()
	if s.cleaner == nil || len(keys) == 0 {
		return
	}
	err := s.cleaner.EnqueueAssetCleanup(context.WithoutCancel(ctx), queue.AssetCleanupPayload{
		Keys:                 keys,
		OrganizationUsername: username,
		RequestedBy:          creatorID,
	})
	if err != nil {
		s.logger.Error("enqueue asset cleanup failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

func (s *Service) notify(ctx context.Context, orgID uuid.UUID, event string, data any) {
	if s.feed == nil {
		return
	}
	if err := s.feed.Publish(context.WithoutCancel(ctx), orgID, event, data); err != nil {
		s.logger.Warn("feed publish failed", zap.String("org_id", orgID.String()), zap.String("event", event), zap.Error(err))
	}
}

// GetOrganization returns the organization with its member count.
func (s *Service) GetOrganization(ctx context.Context, id uuid.UUID) (*models.OrganizationSummary, error) {
	return s.store.GetByID(ctx, id)
}

// IsMember reports whether userID belongs to orgID.
func (s *Service) IsMember(ctx context.Context, orgID, userID uuid.UUID) (bool, error) {
	return s.store.IsMember(ctx, orgID, userID)
}

// RoleOf returns the user's role name in the organization.
func (s *Service) RoleOf(ctx context.Context, orgID, userID uuid.UUID) (string, error) {
	return s.store.RoleOf(ctx, orgID, userID)
}

// Explore searches organizations by name or username substring, or by exact join code.
// Queries shorter than MinExploreQuery return no results.
func (s *Service) Explore(ctx context.Context, query string) ([]models.OrganizationSummary, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinExploreQuery {
		return []models.OrganizationSummary{}, nil
	}
	return s.store.Explore(ctx, query, NormalizeJoinCode(query), exploreLimit)
}

// ListForUser returns the organizations the user belongs to.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.OrganizationSummary, error) {
	return s.store.ListForUser(ctx, userID)
}

// ListMembers returns the organization directory.
func (s *Service) ListMembers(ctx context.Context, orgID uuid.UUID) ([]models.Member, error) {
	return s.store.ListMembers(ctx, orgID)
}

// JoinByCode makes the user a General member of the organization owning code.
func (s *Service) JoinByCode(ctx context.Context, userID uuid.UUID, code string) (*models.Organization, error) {
	code = NormalizeJoinCode(code)
	if err := ValidateJoinCode(code); err != nil {
		return nil, err
	}
	org, err := s.store.GetByJoinCode(ctx, code)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.NotFound("no organization uses this join code", err)
		}
		return nil, err
	}
	if err := s.store.AddMember(ctx, org.ID, userID, models.RoleGeneral); err != nil {
		return nil, err
	}
	s.logger.Info("member joined", zap.String("org_id", org.ID.String()), zap.String("user_id", userID.String()))
	s.notify(ctx, org.ID, feed.EventMemberJoined, map[string]any{"user_id": userID, "role": models.RoleGeneral})
	return org, nil
}

// Leave removes the user's membership. The Owner cannot leave.
func (s *Service) Leave(ctx context.Context, orgID, userID uuid.UUID) error {
	role, err := s.store.RoleOf(ctx, orgID, userID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.NotFound("not a member of this organization", err)
		}
		return err
	}
	if role == models.RoleOwner {
		return apperr.Forbidden("the owner cannot leave the organization")
	}
	removed, err := s.store.RemoveMember(ctx, orgID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return apperr.NotFound("not a member of this organization", nil)
	}
	s.logger.Info("member left", zap.String("org_id", orgID.String()), zap.String("user_id", userID.String()))
	s.notify(ctx, orgID, feed.EventMemberLeft, map[string]any{"user_id": userID})
	return nil
}
