package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"soulboard/internal/core/domain"
	"soulboard/internal/core/port"
)

// memRegistry is an in-memory port.Registry for deterministic tests.
type memRegistry struct {
	mu        sync.Mutex
	campaigns map[string]domain.Campaign
	providers map[string]domain.Provider
	earnings  map[string]domain.ProviderEarnings
	counters  map[string]uint64
}

func newMemRegistry() *memRegistry {
	return &memRegistry{
		campaigns: make(map[string]domain.Campaign),
		providers: make(map[string]domain.Provider),
		earnings:  make(map[string]domain.ProviderEarnings),
		counters:  make(map[string]uint64),
	}
}

func (m *memRegistry) GetCampaign(_ context.Context, id string) (*domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *memRegistry) PutCampaign(_ context.Context, c *domain.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.campaigns[c.ID] = *c
	return nil
}

func (m *memRegistry) DeleteCampaign(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.campaigns[id]
	delete(m.campaigns, id)
	return ok, nil
}

func (m *memRegistry) ListCampaigns(_ context.Context) ([]domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Campaign, 0, len(m.campaigns))
	for _, c := range m.campaigns {
		out = append(out, c)
	}
	return out, nil
}

func (m *memRegistry) GetProvider(_ context.Context, id string) (*domain.Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.providers[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memRegistry) PutProvider(_ context.Context, p *domain.Provider) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[p.ID] = *p
	return nil
}

func (m *memRegistry) ListProviders(_ context.Context) ([]domain.Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Provider, 0, len(m.providers))
	for _, p := range m.providers {
		out = append(out, p)
	}
	return out, nil
}

func (m *memRegistry) GetEarnings(_ context.Context, providerID, campaignID string) (*domain.ProviderEarnings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.earnings[domain.EarningsKey(providerID, campaignID)]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *memRegistry) ListEarningsByProvider(_ context.Context, providerID string) ([]domain.ProviderEarnings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ProviderEarnings
	for _, e := range m.earnings {
		if e.ProviderID == providerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memRegistry) ApplyPayment(_ context.Context, c *domain.Campaign, p *domain.Provider, e *domain.ProviderEarnings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.campaigns[c.ID] = *c
	m.providers[p.ID] = *p
	m.earnings[domain.EarningsKey(e.ProviderID, e.CampaignID)] = *e
	return nil
}

func (m *memRegistry) NextID(_ context.Context, kind string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[kind]++
	return m.counters[kind], nil
}

// fakeGateway records transfer requests and fails on demand.
type fakeGateway struct {
	mu    sync.Mutex
	err   error
	next  uint64
	calls []port.TransferRequest
}

func (g *fakeGateway) Transfer(_ context.Context, req port.TransferRequest) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return 0, g.err
	}
	g.calls = append(g.calls, req)
	g.next++
	return g.next, nil
}

func newTestLedger(t *testing.T) (*Ledger, *memRegistry, *fakeGateway) {
	t.Helper()
	reg := newMemRegistry()
	gw := &fakeGateway{}
	return NewLedger(reg, gw), reg, gw
}

func TestRegisterProviderGeneratesSequentialIDs(t *testing.T) {
	require := require.New(t)
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	id1, err := ledger.RegisterProvider(ctx, "alice", "Billboards Inc", nil)
	require.NoError(err)
	require.Equal("provider_1", id1)

	id2, err := ledger.RegisterProvider(ctx, "bob", "Screens Ltd", nil)
	require.NoError(err)
	require.Equal("provider_2", id2)

	total, err := ledger.GetProviderEarnings(ctx, "alice", id1)
	require.NoError(err)
	require.Zero(total)
}

func TestFundCampaign(t *testing.T) {
	require := require.New(t)
	ledger, _, gw := newTestLedger(t)
	ctx := context.Background()

	id, err := ledger.CreateCampaign(ctx, "adv", port.CreateCampaignInput{Name: "Spring", Budget: 0})
	require.NoError(err)
	require.Equal("campaign_1", id)

	receipt, err := ledger.FundCampaign(ctx, "adv", id, 100)
	require.NoError(err)
	require.Equal(uint64(1), receipt.BlockIndex)

	budget, err := ledger.GetCampaignBalance(ctx, "adv", id)
	require.NoError(err)
	require.Equal(int64(100), budget)

	require.Len(gw.calls, 1)
	require.Equal("adv", gw.calls[0].FromAccount)
	require.Equal("Fund campaign: campaign_1", gw.calls[0].Memo)
}

func TestFundCampaignTransferFailureLeavesStateUntouched(t *testing.T) {
	require := require.New(t)
	ledger, _, gw := newTestLedger(t)
	ctx := context.Background()

	id, err := ledger.CreateCampaign(ctx, "adv", port.CreateCampaignInput{Name: "Spring", Budget: 50})
	require.NoError(err)

	gw.err = errors.New("ledger canister rejected the call")
	_, err = ledger.FundCampaign(ctx, "adv", id, 100)

	var terr *port.TransferError
	require.ErrorAs(err, &terr)
	require.Contains(terr.Cause, "rejected")

	budget, err := ledger.GetCampaignBalance(ctx, "adv", id)
	require.NoError(err)
	require.Equal(int64(50), budget)
}

func TestPayProviderMovesAllThreeBalancesTogether(t *testing.T) {
	require := require.New(t)
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	campaignID, err := ledger.CreateCampaign(ctx, "adv", port.CreateCampaignInput{Name: "Spring", Budget: 100})
	require.NoError(err)
	providerID, err := ledger.RegisterProvider(ctx, "prov", "Billboards Inc", nil)
	require.NoError(err)

	_, err = ledger.PayProvider(ctx, "adv", campaignID, providerID, 40)
	require.NoError(err)

	budget, err := ledger.GetCampaignBalance(ctx, "adv", campaignID)
	require.NoError(err)
	require.Equal(int64(60), budget)

	total, err := ledger.GetProviderEarnings(ctx, "prov", providerID)
	require.NoError(err)
	require.Equal(int64(40), total)

	records, err := ledger.GetProviderEarningsBreakdown(ctx, "prov", providerID)
	require.NoError(err)
	require.Len(records, 1)
	require.Equal(int64(40), records[0].TotalEarned)
	require.Equal(campaignID, records[0].CampaignID)
}

func TestPayProviderFailuresMutateNothing(t *testing.T) {
	require := require.New(t)
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	campaignID, err := ledger.CreateCampaign(ctx, "adv", port.CreateCampaignInput{Name: "Spring", Budget: 30})
	require.NoError(err)
	providerID, err := ledger.RegisterProvider(ctx, "prov", "Billboards Inc", nil)
	require.NoError(err)

	// Over budget.
	_, err = ledger.PayProvider(ctx, "adv", campaignID, providerID, 40)
	require.ErrorIs(err, port.ErrInsufficientFunds)

	// Unknown provider.
	_, err = ledger.PayProvider(ctx, "adv", campaignID, "provider_99", 10)
	require.ErrorIs(err, port.ErrNotFound)

	budget, err := ledger.GetCampaignBalance(ctx, "adv", campaignID)
	require.NoError(err)
	require.Equal(int64(30), budget)

	total, err := ledger.GetProviderEarnings(ctx, "prov", providerID)
	require.NoError(err)
	require.Zero(total)
}

func TestWithdrawProviderEarnings(t *testing.T) {
	require := require.New(t)
	ledger, _, gw := newTestLedger(t)
	ctx := context.Background()

	campaignID, err := ledger.CreateCampaign(ctx, "adv", port.CreateCampaignInput{Name: "Spring", Budget: 100})
	require.NoError(err)
	providerID, err := ledger.RegisterProvider(ctx, "prov", "Billboards Inc", nil)
	require.NoError(err)
	_, err = ledger.PayProvider(ctx, "adv", campaignID, providerID, 40)
	require.NoError(err)

	receipt, err := ledger.WithdrawProviderEarnings(ctx, "prov", providerID, 40)
	require.NoError(err)
	require.NotZero(receipt.BlockIndex)

	total, err := ledger.GetProviderEarnings(ctx, "prov", providerID)
	require.NoError(err)
	require.Zero(total)

	// The payout goes from custody to the owner's account.
	last := gw.calls[len(gw.calls)-1]
	require.Equal("prov", last.ToAccount)
	require.Equal("Provider withdrawal: "+providerID, last.Memo)

	// Per-campaign records keep lifetime gross totals.
	records, err := ledger.GetProviderEarningsBreakdown(ctx, "prov", providerID)
	require.NoError(err)
	require.Len(records, 1)
	require.Equal(int64(40), records[0].TotalEarned)

	// Balance is spent; a second withdrawal must fail.
	_, err = ledger.WithdrawProviderEarnings(ctx, "prov", providerID, 1)
	require.ErrorIs(err, port.ErrInsufficientFunds)
}

func TestWithdrawProviderEarningsTransferFailure(t *testing.T) {
	require := require.New(t)
	ledger, _, gw := newTestLedger(t)
	ctx := context.Background()

	campaignID, err := ledger.CreateCampaign(ctx, "adv", port.CreateCampaignInput{Name: "Spring", Budget: 100})
	require.NoError(err)
	providerID, err := ledger.RegisterProvider(ctx, "prov", "Billboards Inc", nil)
	require.NoError(err)
	_, err = ledger.PayProvider(ctx, "adv", campaignID, providerID, 40)
	require.NoError(err)

	gw.err = errors.New("gateway unreachable")
	_, err = ledger.WithdrawProviderEarnings(ctx, "prov", providerID, 40)
	var terr *port.TransferError
	require.ErrorAs(err, &terr)

	total, err := ledger.GetProviderEarnings(ctx, "prov", providerID)
	require.NoError(err)
	require.Equal(int64(40), total)
}

func TestWithdrawCampaignFundsCompensationRoundTrips(t *testing.T) {
	require := require.New(t)
	ledger, _, gw := newTestLedger(t)
	ctx := context.Background()

	id, err := ledger.CreateCampaign(ctx, "adv", port.CreateCampaignInput{Name: "Spring", Budget: 50})
	require.NoError(err)

	gw.err = errors.New("insufficient fee")
	_, err = ledger.WithdrawCampaignFunds(ctx, "adv", id, 30)
	var terr *port.TransferError
	require.ErrorAs(err, &terr)

	// The speculative decrement must be compensated exactly.
	budget, err := ledger.GetCampaignBalance(ctx, "adv", id)
	require.NoError(err)
	require.Equal(int64(50), budget)

	// With a healthy gateway the withdrawal stands.
	gw.err = nil
	receipt, err := ledger.WithdrawCampaignFunds(ctx, "adv", id, 30)
	require.NoError(err)
	require.NotZero(receipt.BlockIndex)

	budget, err = ledger.GetCampaignBalance(ctx, "adv", id)
	require.NoError(err)
	require.Equal(int64(20), budget)
}

func TestUnauthorizedCallersMutateNothing(t *testing.T) {
	require := require.New(t)
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	campaignID, err := ledger.CreateCampaign(ctx, "adv", port.CreateCampaignInput{Name: "Spring", Budget: 100})
	require.NoError(err)
	providerID, err := ledger.RegisterProvider(ctx, "prov", "Billboards Inc", nil)
	require.NoError(err)

	_, err = ledger.FundCampaign(ctx, "mallory", campaignID, 10)
	require.ErrorIs(err, port.ErrUnauthorized)
	_, err = ledger.PayProvider(ctx, "mallory", campaignID, providerID, 10)
	require.ErrorIs(err, port.ErrUnauthorized)
	_, err = ledger.WithdrawCampaignFunds(ctx, "mallory", campaignID, 10)
	require.ErrorIs(err, port.ErrUnauthorized)
	_, err = ledger.WithdrawProviderEarnings(ctx, "mallory", providerID, 10)
	require.ErrorIs(err, port.ErrUnauthorized)
	err = ledger.CloseCampaign(ctx, "mallory", campaignID)
	require.ErrorIs(err, port.ErrUnauthorized)

	_, err = ledger.GetCampaignBalance(ctx, "mallory", campaignID)
	require.ErrorIs(err, port.ErrUnauthorized)
	_, err = ledger.GetProviderEarnings(ctx, "mallory", providerID)
	require.ErrorIs(err, port.ErrUnauthorized)

	budget, err := ledger.GetCampaignBalance(ctx, "adv", campaignID)
	require.NoError(err)
	require.Equal(int64(100), budget)
}

// Closing a campaign with remaining budget abandons the balance without a
// refund transfer. Kept as-is deliberately; see DESIGN.md.
func TestCloseCampaignAbandonsRemainingBudget(t *testing.T) {
	require := require.New(t)
	ledger, _, gw := newTestLedger(t)
	ctx := context.Background()

	id, err := ledger.CreateCampaign(ctx, "adv", port.CreateCampaignInput{Name: "Spring", Budget: 75})
	require.NoError(err)

	require.NoError(ledger.CloseCampaign(ctx, "adv", id))
	require.Empty(gw.calls)

	_, err = ledger.GetCampaignBalance(ctx, "adv", id)
	require.ErrorIs(err, port.ErrNotFound)

	err = ledger.CloseCampaign(ctx, "adv", id)
	require.ErrorIs(err, port.ErrNotFound)
}

func TestFundPayWithdrawScenario(t *testing.T) {
	require := require.New(t)
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	campaignID, err := ledger.CreateCampaign(ctx, "adv", port.CreateCampaignInput{Name: "Spring", Budget: 0})
	require.NoError(err)
	providerID, err := ledger.RegisterProvider(ctx, "prov", "Billboards Inc", []domain.Location{
		{ID: "loc-17", Name: "Main Square", BaseFee: 5, Status: domain.LocationActive},
	})
	require.NoError(err)

	_, err = ledger.FundCampaign(ctx, "adv", campaignID, 100)
	require.NoError(err)

	_, err = ledger.PayProvider(ctx, "adv", campaignID, providerID, 40)
	require.NoError(err)

	budget, err := ledger.GetCampaignBalance(ctx, "adv", campaignID)
	require.NoError(err)
	require.Equal(int64(60), budget)

	total, err := ledger.GetProviderEarnings(ctx, "prov", providerID)
	require.NoError(err)
	require.Equal(int64(40), total)

	_, err = ledger.WithdrawProviderEarnings(ctx, "prov", providerID, 40)
	require.NoError(err)

	total, err = ledger.GetProviderEarnings(ctx, "prov", providerID)
	require.NoError(err)
	require.Zero(total)
}

// Two concurrent payments of 60 against a budget of 100 must serialize: one
// succeeds, the other sees the committed budget of 40 and fails.
func TestConcurrentPayProviderSerializes(t *testing.T) {
	require := require.New(t)
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	campaignID, err := ledger.CreateCampaign(ctx, "adv", port.CreateCampaignInput{Name: "Spring", Budget: 100})
	require.NoError(err)
	providerID, err := ledger.RegisterProvider(ctx, "prov", "Billboards Inc", nil)
	require.NoError(err)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func() {
			defer wg.Done()
			_, err := ledger.PayProvider(ctx, "adv", campaignID, providerID, 60)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, insufficient int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, port.ErrInsufficientFunds):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(1, ok)
	require.Equal(1, insufficient)

	budget, err := ledger.GetCampaignBalance(ctx, "adv", campaignID)
	require.NoError(err)
	require.Equal(int64(40), budget)

	total, err := ledger.GetProviderEarnings(ctx, "prov", providerID)
	require.NoError(err)
	require.Equal(int64(60), total)
}

func TestInvalidAmountsRejected(t *testing.T) {
	require := require.New(t)
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	campaignID, err := ledger.CreateCampaign(ctx, "adv", port.CreateCampaignInput{Name: "Spring", Budget: 100})
	require.NoError(err)

	for _, amount := range []int64{0, -5} {
		_, err = ledger.FundCampaign(ctx, "adv", campaignID, amount)
		require.ErrorIs(err, port.ErrInvalidAmount, fmt.Sprintf("amount %d", amount))
		_, err = ledger.WithdrawCampaignFunds(ctx, "adv", campaignID, amount)
		require.ErrorIs(err, port.ErrInvalidAmount)
	}
}

func TestMarketplaceDiscovery(t *testing.T) {
	require := require.New(t)
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.RegisterProvider(ctx, "prov-a", "Billboards Inc", []domain.Location{
		{ID: "loc-1", Name: "Main Square", Status: domain.LocationActive},
		{ID: "loc-2", Name: "Station Hall", Status: domain.LocationBooked},
	})
	require.NoError(err)
	_, err = ledger.RegisterProvider(ctx, "prov-b", "Screens Ltd", []domain.Location{
		{ID: "loc-3", Name: "Mall Entrance", Status: domain.LocationInactive},
	})
	require.NoError(err)

	providers, err := ledger.GetAllProviders(ctx)
	require.NoError(err)
	require.Len(providers, 2)

	locations, err := ledger.GetAllLocations(ctx)
	require.NoError(err)
	require.Len(locations, 3)

	mine, err := ledger.GetMyProviders(ctx, "prov-a")
	require.NoError(err)
	require.Len(mine, 1)
	require.Equal("Billboards Inc", mine[0].Name)
}
