package model

import (
	"time"
)

const PermissionManageMenus = "menus.manage"

// Role is a row of the role catalog loaded into the authz registry.
type Role struct {
	ID          uint        `gorm:"primarykey" json:"id"`
	Name        UserRole    `gorm:"type:varchar(20);uniqueIndex;not null" json:"name"`
	Permissions StringArray `gorm:"type:text" json:"permissions"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func (Role) TableName() string {
	return "roles"
}

// DefaultRoles is the catalog seeded on migration.
func DefaultRoles() []Role {
	return []Role{
		{Name: RoleFree, Permissions: StringArray{}},
		{Name: RolePro, Permissions: StringArray{PermissionManageMenus}},
		{Name: RoleEnterprise, Permissions: StringArray{PermissionManageMenus}},
	}
}
