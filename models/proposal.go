package models

import "time"

// Decision is a provider's answer to a proposal.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// ParseDecision accepts the link forms "accept"/"reject" and the legacy "true"/"false".
func ParseDecision(raw string) (Decision, bool) {
	switch raw {
	case "accept", "true":
		return DecisionAccept, true
	case "reject", "false":
		return DecisionReject, true
	}
	return "", false
}

// ProposalRef is what a proposal token grants authority over.
type ProposalRef struct {
	BookerEmail   string `json:"bookerEmail"`
	BookingID     string `json:"bookingId"`
	ProviderEmail string `json:"providerEmail"`
	Kind          Role   `json:"kind"`
}

// UsedToken marks a proposal token as consumed.
type UsedToken struct {
	TokenID   string    `bson:"tokenId" json:"tokenId"`
	BookingID string    `bson:"bookingId" json:"bookingId"`
	UsedAt    time.Time `bson:"usedAt" json:"usedAt"`
	ExpiresAt time.Time `bson:"expiresAt" json:"expiresAt"`
}

// ExpiryTask is the payload of a scheduled expiry check.
type ExpiryTask struct {
	BookerEmail string `json:"bookerEmail"`
	BookingID   string `json:"bookingId"`
	Kind        Role   `json:"kind"`
}

// ProposalOutcome reports how a proposal was resolved.
type ProposalOutcome struct {
	BookingID string   `json:"bookingId"`
	Decision  Decision `json:"decision"`
	Notified  bool     `json:"notified"`
}
