package service

import (
	"context"
	"errors"
	"strings"

	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/internal/app/repository"
	"github.com/mynu/mynu-backend/internal/storage"
	"github.com/mynu/mynu-backend/pkg/logger"
	"github.com/mynu/mynu-backend/pkg/util"
	"gorm.io/gorm"
)

// StoreMutation carries the editable store fields. Nil fields are left unchanged.
type StoreMutation struct {
	Name           *string
	Description    *string
	Address        *string
	Phones         []string
	Whatsapp       *string
	Instagram      *string
	Colors         *model.ColorPalette
	LegalName      *string
	Document       *string
	OperatingHours *model.OperatingHours
}

type StoreImage string

const (
	StoreLogo       StoreImage = "logos"
	StoreBackground StoreImage = "backgrounds"
)

type StoreService interface {
	GetStore(userID uint) (*model.Store, error)
	CreateStore(userID uint, input StoreMutation) (*model.Store, error)
	UpdateStore(userID uint, input StoreMutation) (*model.Store, error)
	UploadImage(ctx context.Context, userID uint, kind StoreImage, upload *FileUpload) (*model.Store, error)
	DeleteStore(ctx context.Context, userID uint) error
	FileURL(path string) string
}

type storeService struct {
	storeRepo repository.StoreRepository
	files     storage.FileStorage
}

func NewStoreService(storeRepo repository.StoreRepository, files storage.FileStorage) StoreService {
	return &storeService{
		storeRepo: storeRepo,
		files:     files,
	}
}

func (s *storeService) GetStore(userID uint) (*model.Store, error) {
	store, err := s.storeRepo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		logger.Error("Failed to fetch store", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return store, nil
}

func (s *storeService) CreateStore(userID uint, input StoreMutation) (*model.Store, error) {
	logger.Info("Creating store", map[string]interface{}{
		"user_id": userID,
	})

	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return nil, invalidField("name", "Campo obrigatório")
	}

	if _, err := s.storeRepo.FindByUserID(userID); err == nil {
		logger.Warn("Store creation rejected: user already has a store", map[string]interface{}{
			"user_id": userID,
		})
		return nil, ErrStoreAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	store := &model.Store{UserID: userID}
	if err := applyStoreMutation(store, input); err != nil {
		return nil, err
	}

	slug, err := util.UniqueSlug(util.Slugify(store.Name), s.storeRepo.SlugExists)
	if err != nil {
		return nil, err
	}
	store.Slug = slug

	if err := s.storeRepo.Create(store); err != nil {
		return nil, err
	}

	logger.Info("Store created", map[string]interface{}{
		"store_id": store.ID,
		"slug":     store.Slug,
		"user_id":  userID,
	})
	return store, nil
}

func (s *storeService) UpdateStore(userID uint, input StoreMutation) (*model.Store, error) {
	store, err := s.GetStore(userID)
	if err != nil {
		return nil, err
	}

	if err := applyStoreMutation(store, input); err != nil {
		return nil, err
	}
	if err := s.storeRepo.Update(store); err != nil {
		return nil, err
	}

	logger.Info("Store updated", map[string]interface{}{
		"store_id": store.ID,
	})
	return store, nil
}

// UploadImage stores the new file, points the store at it, then removes the old one.
func (s *storeService) UploadImage(ctx context.Context, userID uint, kind StoreImage, upload *FileUpload) (*model.Store, error) {
	store, err := s.GetStore(userID)
	if err != nil {
		return nil, err
	}

	path, err := storeUpload(ctx, s.files, string(kind), upload)
	if err != nil {
		return nil, err
	}

	var previous string
	switch kind {
	case StoreLogo:
		previous, store.LogoPath = store.LogoPath, path
	case StoreBackground:
		previous, store.BackgroundPath = store.BackgroundPath, path
	}

	if err := s.storeRepo.Update(store); err != nil {
		discardFiles(ctx, s.files, path)
		return nil, err
	}
	discardFiles(ctx, s.files, previous)

	logger.Info("Store image replaced", map[string]interface{}{
		"store_id": store.ID,
		"kind":     kind,
		"path":     path,
	})
	return store, nil
}

func (s *storeService) DeleteStore(ctx context.Context, userID uint) error {
	store, err := s.GetStore(userID)
	if err != nil {
		return err
	}

	paths, err := s.storeRepo.Delete(store.ID)
	if err != nil {
		return err
	}
	discardFiles(ctx, s.files, paths...)

	logger.Info("Store deleted", map[string]interface{}{
		"store_id": store.ID,
		"user_id":  userID,
	})
	return nil
}

func (s *storeService) FileURL(path string) string {
	return s.files.URL(path)
}

func applyStoreMutation(store *model.Store, input StoreMutation) error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return invalidField("name", "Campo obrigatório")
		}
		store.Name = name
	}
	if input.Description != nil {
		store.Description = *input.Description
	}
	if input.Address != nil {
		store.Address = *input.Address
	}
	if input.Phones != nil {
		store.Phones = model.StringArray(input.Phones)
	}
	if input.Whatsapp != nil {
		store.Whatsapp = *input.Whatsapp
	}
	if input.Instagram != nil {
		store.Instagram = strings.TrimPrefix(*input.Instagram, "@")
	}
	if input.Colors != nil {
		if err := input.Colors.Validate(); err != nil {
			return invalidField("colors", "Cor hexadecimal inválida")
		}
		store.Colors = *input.Colors
	}
	if input.LegalName != nil {
		store.LegalName = *input.LegalName
	}
	if input.Document != nil {
		store.Document = *input.Document
	}
	if input.OperatingHours != nil {
		if err := input.OperatingHours.Validate(); err != nil {
			return invalidField("operating_hours", "Horário de funcionamento inválido")
		}
		store.OperatingHours = *input.OperatingHours
	}
	return nil
}
