package domain

import "time"

// ProviderEarnings tracks the cumulative amount a provider has earned from a
// single campaign. Records are created lazily on the first payment between a
// pair and never deleted.
//
// TotalEarned is lifetime gross: withdrawals reduce the provider's aggregate
// balance but never these records, so the sum over a provider's records may
// exceed its current TotalEarnings.
type ProviderEarnings struct {
	ProviderID     string
	CampaignID     string
	TotalEarned    int64
	LastWithdrawal *time.Time
}

// EarningsKey builds the registry key for a provider/campaign pair.
func EarningsKey(providerID, campaignID string) string {
	return providerID + ":" + campaignID
}
