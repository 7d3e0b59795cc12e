package domain

import (
	"context"
	"time"
)

// SubscriberRepository is the account ledger. Upsert overwrites the full
// document (last-writer-wins); no cross-document transactions are required.
type SubscriberRepository interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (*Subscriber, error)
	Upsert(ctx context.Context, sub *Subscriber) error
	Delete(ctx context.Context, telegramID int64) (bool, error)
	// FindLapsed returns subscribers still flagged active whose subscription
	// window closed before now. Used by the expiry sweeper.
	FindLapsed(ctx context.Context, now time.Time) ([]*Subscriber, error)
	Count(ctx context.Context) (int64, error)
	CountActive(ctx context.Context) (int64, error)
}

// CredentialRepository stores upstream account credentials.
type CredentialRepository interface {
	Insert(ctx context.Context, cred *Credential) error
	// ListValid returns all credentials flagged valid, in stable insertion
	// order. Rotation cursors index into this sequence.
	ListValid(ctx context.Context) ([]*Credential, error)
	Count(ctx context.Context) (int64, error)
}

// NumberRepository is the global allocation table. The phone number is the
// key; at most one record per number may exist at any time.
type NumberRepository interface {
	Insert(ctx context.Context, num *AllocatedNumber) error
	GetByNumber(ctx context.Context, number string) (*AllocatedNumber, error)
	Delete(ctx context.Context, number string) (bool, error)
	// AllocatedSet returns every allocated number as a membership set, used
	// to filter candidate offers.
	AllocatedSet(ctx context.Context) (map[string]struct{}, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*AllocatedNumber, error)
	Count(ctx context.Context) (int64, error)
}
