package authz

import (
	"sync"

	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/pkg/logger"
)

// RoleSource loads the role catalog.
type RoleSource interface {
	FindAll() ([]model.Role, error)
}

// Registry caches role permissions in memory. The cache only changes on Reload.
type Registry struct {
	mu     sync.RWMutex
	source RoleSource
	perms  map[model.UserRole]map[string]struct{}
}

func NewRegistry(source RoleSource) *Registry {
	return &Registry{
		source: source,
		perms:  make(map[model.UserRole]map[string]struct{}),
	}
}

// Reload replaces the cached table with the current contents of the role source.
func (r *Registry) Reload() error {
	roles, err := r.source.FindAll()
	if err != nil {
		logger.Error("Failed to load roles", err)
		return err
	}

	perms := make(map[model.UserRole]map[string]struct{}, len(roles))
	for _, role := range roles {
		set := make(map[string]struct{}, len(role.Permissions))
		for _, p := range role.Permissions {
			set[p] = struct{}{}
		}
		perms[role.Name] = set
	}

	r.mu.Lock()
	r.perms = perms
	r.mu.Unlock()

	logger.Info("Permission registry reloaded", map[string]interface{}{
		"roles": len(roles),
	})
	return nil
}

// Can reports whether the role holds the permission.
func (r *Registry) Can(role model.UserRole, permission string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.perms[role]
	if !ok {
		return false
	}
	_, ok = set[permission]
	return ok
}

// Permissions returns the permissions of a role.
func (r *Registry) Permissions(role model.UserRole) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.perms[role]))
	for p := range r.perms[role] {
		out = append(out, p)
	}
	return out
}
