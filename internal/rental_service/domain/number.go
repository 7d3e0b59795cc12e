package domain

import "time"

// AllocatedNumber records ownership of a purchased phone number. The phone
// number itself is the document key: its global uniqueness across all
// subscribers is the guard against double-purchase. UpstreamSID is the
// provider-side allocation reference and is the source of truth for release.
type AllocatedNumber struct {
	Number      string    `bson:"number"`
	UpstreamSID string    `bson:"twilio_sid"`
	OwnerID     int64     `bson:"user_id"`
	BoughtAt    time.Time `bson:"bought_on"`
}

// NewAllocatedNumber records a completed purchase.
func NewAllocatedNumber(number, upstreamSID string, ownerID int64) *AllocatedNumber {
	return &AllocatedNumber{
		Number:      number,
		UpstreamSID: upstreamSID,
		OwnerID:     ownerID,
		BoughtAt:    time.Now().UTC(),
	}
}
