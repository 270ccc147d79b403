package port

import (
	"context"

	"soulboard/internal/core/domain"
)

// ID kinds accepted by Registry.NextID. Generated identifiers are formatted
// as "<kind>_<n>" with n starting at 1.
const (
	KindCampaign = "campaign"
	KindProvider = "provider"
)

// Registry defines the persistence layer for campaigns, providers and
// earnings records. It is an outbound port in hexagonal architecture: a
// passive keyed store with no authorization logic. Implementations must be
// concurrency-safe and durable across restarts.
//
// Get methods return (nil, nil) when the key is unknown.
type Registry interface {
	GetCampaign(ctx context.Context, id string) (*domain.Campaign, error)
	// PutCampaign inserts or replaces a campaign record.
	PutCampaign(ctx context.Context, c *domain.Campaign) error
	// DeleteCampaign removes a campaign. Deleting an unknown id is a no-op
	// and reports removed=false.
	DeleteCampaign(ctx context.Context, id string) (removed bool, err error)
	// ListCampaigns returns one full pass over all campaign records. The
	// result reflects some valid historical state; snapshot consistency is
	// not required.
	ListCampaigns(ctx context.Context) ([]domain.Campaign, error)

	GetProvider(ctx context.Context, id string) (*domain.Provider, error)
	PutProvider(ctx context.Context, p *domain.Provider) error
	ListProviders(ctx context.Context) ([]domain.Provider, error)

	GetEarnings(ctx context.Context, providerID, campaignID string) (*domain.ProviderEarnings, error)
	// ListEarningsByProvider returns every per-campaign earnings record for
	// the given provider.
	ListEarningsByProvider(ctx context.Context, providerID string) ([]domain.ProviderEarnings, error)

	// ApplyPayment persists the three writes of a campaign-to-provider
	// payment as one atomic unit: the decremented campaign, the credited
	// provider and the upserted pair earnings record. Either all three
	// become visible or none do.
	ApplyPayment(ctx context.Context, c *domain.Campaign, p *domain.Provider, e *domain.ProviderEarnings) error

	// NextID atomically increments and returns the persisted counter for the
	// given kind. Counters survive restarts, so identifiers are never reused.
	NextID(ctx context.Context, kind string) (uint64, error)
}
