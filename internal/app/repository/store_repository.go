package repository

import (
	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StoreRepository interface {
	Create(store *model.Store) error
	Update(store *model.Store) error
	FindByID(id uint) (*model.Store, error)
	FindByUserID(userID uint) (*model.Store, error)
	FindBySlug(slug string) (*model.Store, error)
	SlugExists(slug string) (bool, error)
	// Delete removes the store and everything under it, returning the file
	// paths that belonged to the deleted rows.
	Delete(id uint) ([]string, error)
}

type storeRepository struct {
	db *gorm.DB
}

func NewStoreRepository(db *gorm.DB) StoreRepository {
	return &storeRepository{db: db}
}

func (r *storeRepository) Create(store *model.Store) error {
	logger.Debug("Creating store in database", map[string]interface{}{
		"name":    store.Name,
		"user_id": store.UserID,
	})

	if err := r.db.Omit(clause.Associations).Create(store).Error; err != nil {
		logger.Error("Failed to create store in database", err, map[string]interface{}{
			"name":    store.Name,
			"user_id": store.UserID,
		})
		return err
	}

	logger.Debug("Store created in database", map[string]interface{}{
		"store_id": store.ID,
		"slug":     store.Slug,
	})
	return nil
}

func (r *storeRepository) Update(store *model.Store) error {
	logger.Debug("Updating store in database", map[string]interface{}{
		"store_id": store.ID,
	})

	if err := r.db.Omit(clause.Associations).Save(store).Error; err != nil {
		logger.Error("Failed to update store in database", err, map[string]interface{}{
			"store_id": store.ID,
		})
		return err
	}

	return nil
}

func (r *storeRepository) FindByID(id uint) (*model.Store, error) {
	var store model.Store
	if err := r.db.First(&store, id).Error; err != nil {
		logger.Debug("Store not found", map[string]interface{}{
			"store_id": id,
			"error":    err.Error(),
		})
		return nil, err
	}
	return &store, nil
}

func (r *storeRepository) FindByUserID(userID uint) (*model.Store, error) {
	logger.Debug("Finding store by user", map[string]interface{}{
		"user_id": userID,
	})

	var store model.Store
	if err := r.db.Where("user_id = ?", userID).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepository) FindBySlug(slug string) (*model.Store, error) {
	var store model.Store
	if err := r.db.Where("slug = ?", slug).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepository) SlugExists(slug string) (bool, error) {
	var count int64
	if err := r.db.Model(&model.Store{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *storeRepository) Delete(id uint) ([]string, error) {
	logger.Info("Deleting store with all content", map[string]interface{}{
		"store_id": id,
	})

	var files []string
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var store model.Store
		if err := tx.First(&store, id).Error; err != nil {
			return err
		}

		paths, err := imagePaths(tx.Model(&model.Dish{}).Where("store_id = ?", id))
		if err != nil {
			return err
		}

		menuIDs := tx.Model(&model.Menu{}).Select("id").Where("store_id = ?", id)
		sectionIDs := tx.Model(&model.Section{}).Select("id").Where("menu_id IN (?)", menuIDs)

		if err := tx.Where("store_id = ? OR section_id IN (?)", id, sectionIDs).Delete(&model.Dish{}).Error; err != nil {
			return err
		}
		if err := tx.Where("menu_id IN (?)", menuIDs).Delete(&model.Section{}).Error; err != nil {
			return err
		}
		if err := tx.Where("store_id = ?", id).Delete(&model.Menu{}).Error; err != nil {
			return err
		}
		if err := tx.Where("store_id = ?", id).Delete(&model.Visit{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.Store{}, id).Error; err != nil {
			return err
		}

		files = paths
		if store.LogoPath != "" {
			files = append(files, store.LogoPath)
		}
		if store.BackgroundPath != "" {
			files = append(files, store.BackgroundPath)
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to delete store", err, map[string]interface{}{
			"store_id": id,
		})
		return nil, err
	}

	logger.Info("Store deleted", map[string]interface{}{
		"store_id": id,
		"files":    len(files),
	})
	return files, nil
}
