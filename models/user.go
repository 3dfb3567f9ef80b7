package models

import (
	"time"
)

// Role is the committee role an identity holds.
type Role string

const (
	RoleResearcher Role = "researcher"
	RoleAdmin      Role = "admin"
	RoleScrutiny   Role = "scrutiny"
	RoleReviewer   Role = "reviewer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleResearcher, RoleAdmin, RoleScrutiny, RoleReviewer:
		return true
	}
	return false
}

type User struct {
	UserID        string     `gorm:"primaryKey;column:user_id;type:varchar(36)" json:"user_id"`
	Name          string     `gorm:"column:name" json:"name"`
	Email         string     `gorm:"column:email;unique;type:varchar(255)" json:"email"`
	Password      string     `gorm:"column:password" json:"-"`
	Role          Role       `gorm:"column:role;type:varchar(16);index" json:"role"`
	Designation   *string    `gorm:"column:designation" json:"designation,omitempty"`
	Qualification *string    `gorm:"column:qualification" json:"qualification,omitempty"`
	Department    *string    `gorm:"column:department" json:"department,omitempty"`
	SubDepartment *string    `gorm:"column:sub_department" json:"sub_department,omitempty"`
	Institution   *string    `gorm:"column:institution" json:"institution,omitempty"`
	Contact       *string    `gorm:"column:contact" json:"contact,omitempty"`
	ShortCode     *string    `gorm:"column:short_code;unique;type:varchar(32)" json:"short_code,omitempty"`
	CreateAt      *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt      *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt      *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

// TableName overrides
func (User) TableName() string {
	return "users"
}
