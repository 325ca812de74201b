package models

type User struct {
	Base
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	FullName     string `json:"full_name"`
	IsActive     bool   `gorm:"default:true" json:"is_active"`

	// Relationships
	Memberships []Membership `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}
