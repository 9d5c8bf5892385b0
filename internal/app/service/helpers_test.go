package service

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mynu/mynu-backend/config"
	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/internal/app/repository"
	"github.com/mynu/mynu-backend/internal/db"
	"github.com/mynu/mynu-backend/internal/storage"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testPricePro        = "price_pro"
	testPriceEnterprise = "price_enterprise"
)

type testEnv struct {
	db    *gorm.DB
	root  string
	files *storage.LocalStorage

	userRepo    repository.UserRepository
	storeRepo   repository.StoreRepository
	menuRepo    repository.MenuRepository
	sectionRepo repository.SectionRepository
	dishRepo    repository.DishRepository
	visitRepo   repository.VisitRepository
	subRepo     repository.SubscriptionRepository

	stores   StoreService
	menus    MenuService
	sections SectionService
	dishes   DishService
	catalog  *PlanCatalog
}

func setupServiceTest(t *testing.T) *testEnv {
	t.Helper()

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	root := t.TempDir()
	files, err := storage.NewLocalStorage(root, "http://localhost:8080/uploads")
	require.NoError(t, err)

	env := &testEnv{
		db:          testDB,
		root:        root,
		files:       files,
		userRepo:    repository.NewUserRepository(testDB),
		storeRepo:   repository.NewStoreRepository(testDB),
		menuRepo:    repository.NewMenuRepository(testDB),
		sectionRepo: repository.NewSectionRepository(testDB),
		dishRepo:    repository.NewDishRepository(testDB),
		visitRepo:   repository.NewVisitRepository(testDB),
		subRepo:     repository.NewSubscriptionRepository(testDB),
		catalog: NewPlanCatalog([]config.PlanConfig{
			{Role: "pro", PriceID: testPricePro, TrialDays: 14},
			{Role: "enterprise", PriceID: testPriceEnterprise},
		}),
	}
	env.stores = NewStoreService(env.storeRepo, files)
	env.menus = NewMenuService(env.storeRepo, env.menuRepo, env.sectionRepo, env.dishRepo, files, "https://mynu.app")
	env.sections = NewSectionService(env.storeRepo, env.menuRepo, env.sectionRepo, env.dishRepo, files)
	env.dishes = NewDishService(env.storeRepo, env.menuRepo, env.sectionRepo, env.dishRepo, files)
	return env
}

func (e *testEnv) createUser(t *testing.T, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, PasswordHash: "hash", Name: "Owner", Role: model.RoleFree}
	require.NoError(t, e.userRepo.Create(user))
	return user
}

func (e *testEnv) createStore(t *testing.T, userID uint, name string) *model.Store {
	t.Helper()
	store, err := e.stores.CreateStore(userID, StoreMutation{Name: strPtr(name)})
	require.NoError(t, err)
	return store
}

// ownerWithMenu creates a user, a store, a menu and one section.
func (e *testEnv) ownerWithMenu(t *testing.T, tag string) (*model.User, *model.Menu, *model.Section) {
	t.Helper()
	user := e.createUser(t, tag+"@example.com")
	e.createStore(t, user.ID, "Store "+tag)

	menu, err := e.menus.CreateMenu(user.ID, MenuMutation{Name: strPtr("Menu " + tag)})
	require.NoError(t, err)
	section, err := e.sections.CreateSection(user.ID, SectionMutation{MenuID: menu.ID, Name: strPtr("Entradas")})
	require.NoError(t, err)
	return user, menu, section
}

func (e *testEnv) fileExists(path string) bool {
	_, err := os.Stat(filepath.Join(e.root, filepath.FromSlash(path)))
	return err == nil
}

func (e *testEnv) countRows(t *testing.T, table, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Table(table).Where(query, args...).Count(&n).Error)
	return n
}

func pngUpload() *FileUpload {
	body := []byte("\x89PNG\r\n\x1a\nfake")
	return &FileUpload{
		Filename:    "photo.png",
		ContentType: "image/png",
		Size:        int64(len(body)),
		Body:        bytes.NewReader(body),
	}
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool { return &b }
func floatPtr(f float64) *float64 { return &f }
func uintPtr(u uint) *uint { return &u }
func timePtr(t time.Time) *time.Time { return &t }
