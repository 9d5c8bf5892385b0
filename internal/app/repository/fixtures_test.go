package repository

import (
	"fmt"
	"testing"

	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

type fixture struct {
	user    *model.User
	store   *model.Store
	menu    *model.Menu
	section *model.Section
	dishes  []*model.Dish
}

// seedFixture creates one user with a store, a menu, a section and n dishes.
func seedFixture(t *testing.T, testDB *gorm.DB, tag string, dishes int) *fixture {
	t.Helper()

	user := &model.User{Email: tag + "@example.com", PasswordHash: "hash", Name: "Owner " + tag, Role: model.RolePro}
	require.NoError(t, testDB.Create(user).Error)

	store := &model.Store{UserID: user.ID, Name: "Store " + tag, Slug: "store-" + tag}
	require.NoError(t, testDB.Create(store).Error)

	menu := &model.Menu{StoreID: store.ID, Name: "Menu " + tag, Slug: "menu-" + tag, IsActive: true, Order: 1}
	require.NoError(t, testDB.Create(menu).Error)

	section := &model.Section{MenuID: menu.ID, Name: "Section " + tag, IsActive: true, Order: 1}
	require.NoError(t, testDB.Create(section).Error)

	f := &fixture{user: user, store: store, menu: menu, section: section}
	for i := 0; i < dishes; i++ {
		dish := &model.Dish{
			SectionID:   section.ID,
			StoreID:     store.ID,
			Name:        fmt.Sprintf("Dish %s %d", tag, i+1),
			Price:       10 + float64(i),
			ImagePath:   fmt.Sprintf("dishes/%s-%d.jpg", tag, i+1),
			IsActive:    true,
			IsAvailable: true,
			Order:       i + 1,
		}
		require.NoError(t, testDB.Create(dish).Error)
		f.dishes = append(f.dishes, dish)
	}
	return f
}

func count(t *testing.T, testDB *gorm.DB, table interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, testDB.Model(table).Count(&n).Error)
	return n
}
