package domain

import (
	"time"

	"github.com/google/uuid"
)

// Credential is an upstream account/secret pair loaded by a subscriber.
// Immutable once valid; a failed liveness check never persists a record.
// Only credentials with IsValid set participate in rotation.
type Credential struct {
	ID         string    `bson:"_id"`
	OwnerID    int64     `bson:"telegram_id"`
	AccountSID string    `bson:"sid"`
	AuthToken  string    `bson:"auth_token"`
	IsValid    bool      `bson:"is_valid"`
	AddedAt    time.Time `bson:"added_on"`
}

// NewCredential creates a verified credential record.
func NewCredential(ownerID int64, accountSID, authToken string) *Credential {
	return &Credential{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		AccountSID: accountSID,
		AuthToken:  authToken,
		IsValid:    true,
		AddedAt:    time.Now().UTC(),
	}
}
