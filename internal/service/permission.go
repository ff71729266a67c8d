package service

import (
	"context"
	"sync"
	"time"

	"credito/internal/model"
	"credito/internal/repository"

	"github.com/google/uuid"
)

// PermissionChecker answers whether an actor holds a named capability. The
// formal-application lifecycle consults it before accepting a merchant
// submission.
type PermissionChecker interface {
	ActorHasCapability(ctx context.Context, actorID uuid.UUID, capability string) (bool, error)
}

type permCacheEntry struct {
	codes     []string
	expiresAt time.Time
}

type permissionChecker struct {
	users repository.UserRepository
	roles repository.RoleRepository

	cache    sync.Map // role name -> permCacheEntry
	cacheTTL time.Duration
}

func NewPermissionChecker(users repository.UserRepository, roles repository.RoleRepository) PermissionChecker {
	return &permissionChecker{
		users:    users,
		roles:    roles,
		cacheTTL: 5 * time.Minute,
	}
}

func (p *permissionChecker) ActorHasCapability(ctx context.Context, actorID uuid.UUID, capability string) (bool, error) {
	user, err := p.users.GetByID(ctx, actorID.String())
	if err != nil {
		return false, err
	}

	// Administrators always pass
	if user.Role == model.RoleAdmin {
		return true, nil
	}

	codes, err := p.permissionsForRole(ctx, user.Role)
	if err != nil {
		return false, err
	}
	for _, code := range codes {
		if code == capability {
			return true, nil
		}
	}
	return false, nil
}

func (p *permissionChecker) permissionsForRole(ctx context.Context, roleName string) ([]string, error) {
	if entry, ok := p.cache.Load(roleName); ok {
		cached := entry.(permCacheEntry)
		if time.Now().Before(cached.expiresAt) {
			return cached.codes, nil
		}
	}

	codes, err := p.roles.GetPermissionsByRoleName(ctx, roleName)
	if err != nil {
		return nil, err
	}

	p.cache.Store(roleName, permCacheEntry{
		codes:     codes,
		expiresAt: time.Now().Add(p.cacheTTL),
	})
	return codes, nil
}
