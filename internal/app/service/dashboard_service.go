package service

import (
	"time"

	"github.com/mynu/mynu-backend/internal/app/repository"
	"github.com/mynu/mynu-backend/pkg/logger"
)

const topDishesLimit = 5

// AllowedWindows are the accepted dashboard periods in days.
var AllowedWindows = map[int]bool{7: true, 30: true, 90: true}

type DashboardMetrics struct {
	Days           int                         `json:"days"`
	TotalVisits    int64                       `json:"total_visits"`
	ActiveDishes   int64                       `json:"active_dishes"`
	MenusCreated   int64                       `json:"menus_created"`
	LastDishUpdate *time.Time                  `json:"last_dish_update"`
	TopDishes      []repository.DishVisitCount `json:"top_dishes"`
}

type DashboardService interface {
	Metrics(userID uint, days int) (*DashboardMetrics, error)
}

type dashboardService struct {
	storeRepo repository.StoreRepository
	menuRepo  repository.MenuRepository
	dishRepo  repository.DishRepository
	visitRepo repository.VisitRepository
	now       func() time.Time
}

func NewDashboardService(
	storeRepo repository.StoreRepository,
	menuRepo repository.MenuRepository,
	dishRepo repository.DishRepository,
	visitRepo repository.VisitRepository,
) DashboardService {
	return &dashboardService{
		storeRepo: storeRepo,
		menuRepo:  menuRepo,
		dishRepo:  dishRepo,
		visitRepo: visitRepo,
		now:       time.Now,
	}
}

// Metrics computes the store metrics for the last days, counting rows strictly after the cutoff.
func (s *dashboardService) Metrics(userID uint, days int) (*DashboardMetrics, error) {
	if !AllowedWindows[days] {
		return nil, ErrInvalidWindow
	}

	store, err := ownership{stores: s.storeRepo}.storeOf(userID)
	if err != nil {
		return nil, err
	}

	cutoff := s.now().AddDate(0, 0, -days)
	metrics := &DashboardMetrics{Days: days}

	if metrics.TotalVisits, err = s.visitRepo.CountSince(store.ID, cutoff); err != nil {
		return nil, err
	}
	if metrics.ActiveDishes, err = s.dishRepo.CountActive(store.ID); err != nil {
		return nil, err
	}
	if metrics.MenusCreated, err = s.menuRepo.CountCreatedSince(store.ID, cutoff); err != nil {
		return nil, err
	}
	if metrics.LastDishUpdate, err = s.dishRepo.LastUpdate(store.ID); err != nil {
		return nil, err
	}
	if metrics.TopDishes, err = s.visitRepo.TopDishes(store.ID, cutoff, topDishesLimit); err != nil {
		return nil, err
	}
	if metrics.TopDishes == nil {
		metrics.TopDishes = []repository.DishVisitCount{}
	}

	logger.Debug("Dashboard metrics computed", map[string]interface{}{
		"store_id":     store.ID,
		"days":         days,
		"total_visits": metrics.TotalVisits,
	})
	return metrics, nil
}
