// Package model holds the GORM table mappings for the credential store.
package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel mirrors the 'users' table.
type UserModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Username     string    `gorm:"type:varchar(255);unique;not null"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	DisplayName  string    `gorm:"type:varchar(255)"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}

// ClientModel mirrors the 'clients' table. Grants and redirect URIs are
// stored newline-delimited; both sets are small and immutable.
type ClientModel struct {
	ClientID     string `gorm:"type:varchar(255);primary_key"`
	ClientSecret string `gorm:"type:varchar(255);not null"`
	Grants       string `gorm:"type:text;not null"`
	RedirectURIs string `gorm:"type:text"`
	CreatedAt    time.Time
}

// TableName explicitly sets the table name for GORM.
func (ClientModel) TableName() string {
	return "clients"
}

// TokenPairModel mirrors the 'token_pairs' table: one row per issuance.
// Both token values carry unique indexes so the per-request access-token
// lookup and the refresh-grant lookup stay indexed.
type TokenPairModel struct {
	ID                    uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	AccessToken           string    `gorm:"type:varchar(255);unique;not null"`
	RefreshToken          string    `gorm:"type:varchar(255);unique;not null"`
	AccessTokenExpiresAt  time.Time `gorm:"not null"`
	RefreshTokenExpiresAt time.Time `gorm:"not null"`
	Scope                 string    `gorm:"type:varchar(1024)"`
	ClientID              string    `gorm:"type:varchar(255);not null"`
	UserID                uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt             time.Time
}

// TableName explicitly sets the table name for GORM.
func (TokenPairModel) TableName() string {
	return "token_pairs"
}
