package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel mirrors the 'users' table. PostgreSQL generates UUIDs via uuid_generate_v7().
type UserModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	Username     string    `gorm:"type:varchar(100);unique;not null"`
	Email        string    `gorm:"type:varchar(255);unique;not null"`
	PasswordHash *string   `gorm:"type:varchar(255)"`

	// Platform connection credentials, stored inline on the user row.
	AccessToken       string     `gorm:"type:text"`
	RefreshToken      string     `gorm:"type:text"`
	TokenExpiresAt    *time.Time
	PlatformConnected string     `gorm:"type:varchar(32)"`
	IsConnected       bool       `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}
