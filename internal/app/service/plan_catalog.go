package service

import (
	"strconv"
	"time"

	"github.com/mynu/mynu-backend/config"
	"github.com/mynu/mynu-backend/internal/app/model"
)

// Plan maps a Stripe price to the role it grants.
type Plan struct {
	Role      model.UserRole
	PriceID   string
	TrialDays int64
}

// PlanCatalog is the set of sellable prices.
type PlanCatalog struct {
	byPrice map[string]Plan
}

func NewPlanCatalog(plans []config.PlanConfig) *PlanCatalog {
	c := &PlanCatalog{byPrice: make(map[string]Plan, len(plans))}
	for _, p := range plans {
		c.byPrice[p.PriceID] = Plan{Role: model.UserRole(p.Role), PriceID: p.PriceID, TrialDays: p.TrialDays}
	}
	return c
}

func (c *PlanCatalog) ByPrice(priceID string) (Plan, bool) {
	p, ok := c.byPrice[priceID]
	return p, ok
}

var roleRank = map[model.UserRole]int{
	model.RoleFree:       0,
	model.RolePro:        1,
	model.RoleEnterprise: 2,
}

// roleFor returns the highest role granted by the valid subscriptions, free when none.
func (c *PlanCatalog) roleFor(subs []model.Subscription, now time.Time) model.UserRole {
	best := model.RoleFree
	for i := range subs {
		if !subs[i].Valid(now) {
			continue
		}
		plan, ok := c.ByPrice(subs[i].StripePrice)
		if !ok {
			continue
		}
		if roleRank[plan.Role] > roleRank[best] {
			best = plan.Role
		}
	}
	return best
}

func uintString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
