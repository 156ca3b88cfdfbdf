package models

// SubscriptionTier is the user's billing tier. The tier governs the
// conversion quota and the maximum accepted file size.
type SubscriptionTier string

const (
	TierFree    SubscriptionTier = "free"
	TierPremium SubscriptionTier = "premium"
)

// User is the identity collaborator's view of the current session.
type User struct {
	ID              string
	Tier            SubscriptionTier
	ConversionsUsed int
}

// IsPremium reports whether the user is on the unbounded tier.
func (u *User) IsPremium() bool {
	return u.Tier == TierPremium
}
