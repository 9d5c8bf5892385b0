package db

import (
	"errors"

	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/pkg/logger"
	"gorm.io/gorm"
)

// Models lists every table owned by the service, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.Role{},
		&model.User{},
		&model.Store{},
		&model.Menu{},
		&model.Section{},
		&model.Dish{},
		&model.Visit{},
		&model.Subscription{},
	}
}

// Migrate runs database migrations and seeds the role catalog
func Migrate() error {
	return MigrateDB(DB)
}

// MigrateDB migrates the given connection.
func MigrateDB(conn *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := conn.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	if err := SeedRoles(conn); err != nil {
		logger.Error("Failed to seed roles during migration", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// SeedRoles inserts missing roles and refreshes the permissions of existing ones.
func SeedRoles(conn *gorm.DB) error {
	for _, role := range model.DefaultRoles() {
		var existing model.Role
		err := conn.Where("name = ?", role.Name).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := conn.Create(&role).Error; err != nil {
				logger.Error("Failed to create role", err, map[string]interface{}{
					"role": role.Name,
				})
				return err
			}
		case err != nil:
			return err
		default:
			existing.Permissions = role.Permissions
			if err := conn.Save(&existing).Error; err != nil {
				return err
			}
		}
	}

	logger.Info("Roles seeded", map[string]interface{}{
		"roles": len(model.DefaultRoles()),
	})
	return nil
}
