package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/soadesk/billing_backoffice/internal/apperrors"
	"github.com/soadesk/billing_backoffice/internal/core/domain"
	portsrepo "github.com/soadesk/billing_backoffice/internal/core/ports/repositories"
	portssvc "github.com/soadesk/billing_backoffice/internal/core/ports/services"
	"github.com/soadesk/billing_backoffice/internal/dto"
	"github.com/soadesk/billing_backoffice/internal/utils"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// userService manages back-office operators and doubles as the
// capability resolver for route guards.
type userService struct {
	BaseService
	userRepo portsrepo.UserRepositoryFacade
	auditor  portssvc.AuditRecorder
}

// NewUserService creates a new UserSvcFacade.
func NewUserService(userRepo portsrepo.UserRepositoryFacade, auditor portssvc.AuditRecorder) portssvc.UserSvcFacade {
	return &userService{userRepo: userRepo, auditor: auditor}
}

// NewCapabilityResolver exposes the user store as a CapabilityResolver.
func NewCapabilityResolver(userRepo portsrepo.UserReader) portssvc.CapabilityResolver {
	return &capabilityResolver{userRepo: userRepo}
}

var _ portssvc.UserSvcFacade = (*userService)(nil)

// CreateUser registers an operator with a bcrypt-hashed password.
func (s *userService) CreateUser(ctx context.Context, req dto.CreateUserRequest, actorID string) (*domain.User, error) {
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		UserID:       uuid.NewString(),
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		PasswordHash: hash,
		Role:         req.Role,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}

	if err := s.userRepo.SaveUser(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: username %q is taken", apperrors.ErrDuplicate, req.Username)
		}
		s.LogError(ctx, err, "Failed to save user", slog.String("username", req.Username))
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	s.auditor.Record(ctx, domain.AuditEntry{
		ActorID:    actorID,
		Action:     "user.create",
		EntityType: "User",
		EntityID:   user.UserID,
		Metadata:   map[string]interface{}{"role": string(user.Role)},
	})
	return &user, nil
}

// GetUserByID returns the user.
func (s *userService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	return s.userRepo.FindUserByID(ctx, userID)
}

// Authenticate checks credentials and returns the user on success.
// Unknown usernames and wrong passwords are indistinguishable to the
// caller.
func (s *userService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrForbidden, ErrInvalidCredentials.Error())
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrForbidden, ErrInvalidCredentials.Error())
	}
	return user, nil
}

// capabilityResolver answers capability checks from the user store.
type capabilityResolver struct {
	userRepo portsrepo.UserReader
}

var _ portssvc.CapabilityResolver = (*capabilityResolver)(nil)

func (r *capabilityResolver) Can(ctx context.Context, actorID string, cap domain.Capability) (bool, error) {
	user, err := r.userRepo.FindUserByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to resolve capabilities for %s: %w", actorID, err)
	}
	return user.Role.HasCapability(cap), nil
}
