package repository

import (
	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/pkg/logger"
	"gorm.io/gorm"
)

type RoleRepository interface {
	FindAll() ([]model.Role, error)
	FindByName(name model.UserRole) (*model.Role, error)
}

type roleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) FindAll() ([]model.Role, error) {
	var roles []model.Role
	if err := r.db.Order("id ASC").Find(&roles).Error; err != nil {
		logger.Error("Failed to list roles", err)
		return nil, err
	}
	return roles, nil
}

func (r *roleRepository) FindByName(name model.UserRole) (*model.Role, error) {
	var role model.Role
	if err := r.db.Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}
