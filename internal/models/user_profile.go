package models

import "gorm.io/datatypes"

// UserProfile is the back-office profile for an authenticated user. It is
// keyed to the auth provider's user id and carries the denormalized company
// fields that scope everything the user can see.
type UserProfile struct {
	Document
	AuthUserID string                      `gorm:"type:char(36);uniqueIndex" json:"authUserId"`
	Name       string                      `gorm:"size:255;not null" json:"name"`
	Email      string                      `gorm:"size:255;index" json:"email"`
	Roles      datatypes.JSONSlice[string] `gorm:"type:json" json:"roles"`
}

// TableName overrides the table name for UserProfile
func (UserProfile) TableName() string {
	return "users"
}
