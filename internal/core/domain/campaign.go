package domain

// CampaignStatus is the lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignActive CampaignStatus = "active"
	CampaignPaused CampaignStatus = "paused"
)

// Campaign represents an advertiser's funded unit of work.
// Budget is stored in integer token units and is the campaign's spendable
// balance. It is mutated only through funding, payment and withdrawal
// operations, never directly.
type Campaign struct {
	ID          string
	Name        string
	Description string
	Image       *string
	// Locations is a denormalized snapshot taken at creation time, not a
	// live reference to provider inventory.
	Locations []Location
	Budget    int64
	Owner     string
	Status    CampaignStatus
}
