package model

// Points holds a user's accumulated giver points.
type Points struct {
	UserID int64  `json:"user_id"`
	Total  int64  `json:"total"`
	Tier   string `json:"tier"`
}

// DefaultAward is the number of points granted to an item's owner when an
// exchange completes. Deployments can override it via configuration.
const DefaultAward = 10

// Giver tiers.
const (
	TierGold   = "Gold"
	TierSilver = "Silver"
	TierBronze = "Bronze"
	TierNew    = "New"
)

// PointsTier derives the user-facing giver tier from a points total. The
// thresholds are part of the observable contract.
func PointsTier(total int64) string {
	switch {
	case total >= 500:
		return TierGold
	case total >= 200:
		return TierSilver
	case total >= 50:
		return TierBronze
	default:
		return TierNew
	}
}
