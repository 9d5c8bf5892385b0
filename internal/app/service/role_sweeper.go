package service

import (
	"context"
	"time"

	"github.com/mynu/mynu-backend/internal/app/repository"
	"github.com/mynu/mynu-backend/pkg/logger"
)

// RoleSweeper demotes users whose subscriptions have run out.
type RoleSweeper interface {
	DemoteEnded(ctx context.Context, now time.Time) (int, error)
}

type roleSweeper struct {
	userRepo repository.UserRepository
	subRepo  repository.SubscriptionRepository
	catalog  *PlanCatalog
}

func NewRoleSweeper(userRepo repository.UserRepository, subRepo repository.SubscriptionRepository, catalog *PlanCatalog) RoleSweeper {
	return &roleSweeper{userRepo: userRepo, subRepo: subRepo, catalog: catalog}
}

// DemoteEnded recomputes the role of every user owning an ended subscription and
// returns how many roles changed.
func (s *roleSweeper) DemoteEnded(ctx context.Context, now time.Time) (int, error) {
	ended, err := s.subRepo.FindEnded(now)
	if err != nil {
		return 0, err
	}

	seen := make(map[uint]bool)
	changed := 0
	for _, sub := range ended {
		if ctx.Err() != nil {
			return changed, ctx.Err()
		}
		if seen[sub.UserID] {
			continue
		}
		seen[sub.UserID] = true

		user, err := s.userRepo.FindByID(sub.UserID)
		if err != nil {
			logger.Warn("Skipping subscription of missing user", map[string]interface{}{
				"subscription_id": sub.ID,
				"user_id":         sub.UserID,
			})
			continue
		}

		role, err := syncUserRole(s.userRepo, s.subRepo, s.catalog, user.ID, user.Role, now)
		if err != nil {
			return changed, err
		}
		if role != user.Role {
			changed++
		}
	}

	return changed, nil
}
