package authz

import (
	"errors"
	"sync"
	"testing"

	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	roles []model.Role
	err   error
}

func (s *stubSource) FindAll() ([]model.Role, error) {
	return s.roles, s.err
}

func TestRegistry_Can(t *testing.T) {
	src := &stubSource{roles: model.DefaultRoles()}
	reg := NewRegistry(src)

	assert.False(t, reg.Can(model.RolePro, model.PermissionManageMenus), "empty before reload")

	require.NoError(t, reg.Reload())
	assert.True(t, reg.Can(model.RolePro, model.PermissionManageMenus))
	assert.True(t, reg.Can(model.RoleEnterprise, model.PermissionManageMenus))
	assert.False(t, reg.Can(model.RoleFree, model.PermissionManageMenus))
	assert.False(t, reg.Can("unknown", model.PermissionManageMenus))
	assert.ElementsMatch(t, []string{model.PermissionManageMenus}, reg.Permissions(model.RolePro))
}

func TestRegistry_ReloadInvalidates(t *testing.T) {
	src := &stubSource{roles: model.DefaultRoles()}
	reg := NewRegistry(src)
	require.NoError(t, reg.Reload())

	src.roles = []model.Role{{Name: model.RolePro}}
	assert.True(t, reg.Can(model.RolePro, model.PermissionManageMenus), "cache is kept until reload")

	require.NoError(t, reg.Reload())
	assert.False(t, reg.Can(model.RolePro, model.PermissionManageMenus))
}

func TestRegistry_ReloadErrorKeepsCache(t *testing.T) {
	src := &stubSource{roles: model.DefaultRoles()}
	reg := NewRegistry(src)
	require.NoError(t, reg.Reload())

	src.err = errors.New("db down")
	assert.Error(t, reg.Reload())
	assert.True(t, reg.Can(model.RolePro, model.PermissionManageMenus))
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg := NewRegistry(&stubSource{roles: model.DefaultRoles()})
	require.NoError(t, reg.Reload())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			reg.Can(model.RolePro, model.PermissionManageMenus)
		}()
		go func() {
			defer wg.Done()
			_ = reg.Reload()
		}()
	}
	wg.Wait()
}
