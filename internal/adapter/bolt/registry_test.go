package bolt

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"soulboard/internal/core/domain"
	"soulboard/internal/core/port"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test registry: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestCampaignRoundTrip(t *testing.T) {
	require := require.New(t)
	r := newTestRegistry(t)
	ctx := context.Background()

	got, err := r.GetCampaign(ctx, "campaign_1")
	require.NoError(err)
	require.Nil(got)

	image := "https://example.com/banner.png"
	c := &domain.Campaign{
		ID:          "campaign_1",
		Name:        "Spring",
		Description: "Spring launch",
		Image:       &image,
		Locations: []domain.Location{
			{ID: "loc-1", Name: "Main Square", BaseFee: 5, Status: domain.LocationActive},
		},
		Budget: 100,
		Owner:  "adv",
		Status: domain.CampaignActive,
	}
	require.NoError(r.PutCampaign(ctx, c))

	got, err = r.GetCampaign(ctx, "campaign_1")
	require.NoError(err)
	require.Equal(c, got)

	// Upsert replaces in place.
	c.Budget = 60
	require.NoError(r.PutCampaign(ctx, c))
	got, err = r.GetCampaign(ctx, "campaign_1")
	require.NoError(err)
	require.Equal(int64(60), got.Budget)

	removed, err := r.DeleteCampaign(ctx, "campaign_1")
	require.NoError(err)
	require.True(removed)
	removed, err = r.DeleteCampaign(ctx, "campaign_1")
	require.NoError(err)
	require.False(removed)
}

func TestProviderListKeyOrder(t *testing.T) {
	require := require.New(t)
	r := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(r.PutProvider(ctx, &domain.Provider{ID: "provider_2", Name: "Screens Ltd", Owner: "bob"}))
	require.NoError(r.PutProvider(ctx, &domain.Provider{ID: "provider_1", Name: "Billboards Inc", Owner: "alice"}))

	all, err := r.ListProviders(ctx)
	require.NoError(err)
	require.Len(all, 2)
	require.Equal("provider_1", all[0].ID)
	require.Equal("provider_2", all[1].ID)
}

func TestEarningsPrefixScan(t *testing.T) {
	require := require.New(t)
	r := newTestRegistry(t)
	ctx := context.Background()

	records := []domain.ProviderEarnings{
		{ProviderID: "provider_1", CampaignID: "campaign_1", TotalEarned: 40},
		{ProviderID: "provider_1", CampaignID: "campaign_2", TotalEarned: 10},
		// Shares the "provider_1" string prefix but not the key prefix;
		// the ":" separator keeps the ranges disjoint.
		{ProviderID: "provider_10", CampaignID: "campaign_1", TotalEarned: 99},
	}
	for i := range records {
		p := &domain.Provider{ID: records[i].ProviderID, Name: "p", Owner: "o"}
		c := &domain.Campaign{ID: records[i].CampaignID, Name: "c", Owner: "o", Status: domain.CampaignActive}
		require.NoError(r.ApplyPayment(ctx, c, p, &records[i]))
	}

	got, err := r.ListEarningsByProvider(ctx, "provider_1")
	require.NoError(err)
	require.Len(got, 2)
	require.Equal(int64(40), got[0].TotalEarned)
	require.Equal(int64(10), got[1].TotalEarned)

	e, err := r.GetEarnings(ctx, "provider_10", "campaign_1")
	require.NoError(err)
	require.NotNil(e)
	require.Equal(int64(99), e.TotalEarned)
}

func TestNextIDCountersAreIndependentAndPersistent(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	r, err := Open(path)
	require.NoError(err)
	ctx := context.Background()

	for want := uint64(1); want <= 3; want++ {
		n, err := r.NextID(ctx, port.KindCampaign)
		require.NoError(err)
		require.Equal(want, n)
	}
	n, err := r.NextID(ctx, port.KindProvider)
	require.NoError(err)
	require.Equal(uint64(1), n)
	require.NoError(r.Close())

	// Counters survive a reopen; IDs are never reused.
	r, err = Open(path)
	require.NoError(err)
	defer r.Close()
	n, err = r.NextID(ctx, port.KindCampaign)
	require.NoError(err)
	require.Equal(uint64(4), n)
}

func TestOversizedEntryRejected(t *testing.T) {
	require := require.New(t)
	r := newTestRegistry(t)
	ctx := context.Background()

	p := &domain.Provider{
		ID:    "provider_1",
		Name:  strings.Repeat("x", maxEntrySize+1),
		Owner: "alice",
	}
	err := r.PutProvider(ctx, p)
	require.Error(err)
	require.Contains(err.Error(), "maximum size")

	got, err := r.GetProvider(ctx, "provider_1")
	require.NoError(err)
	require.Nil(got)
}
