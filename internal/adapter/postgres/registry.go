package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"soulboard/internal/core/domain"
	"soulboard/internal/core/port"
)

// Registry implements port.Registry using pgxpool for PostgreSQL. Location
// lists are stored as JSONB documents; every other field maps to a column.
type Registry struct {
	pool *pgxpool.Pool
}

// NewRegistry returns a new registry instance.
func NewRegistry(pool *pgxpool.Pool) *Registry {
	return &Registry{pool: pool}
}

// GetCampaign returns a campaign by id, or (nil, nil) when unknown.
func (r *Registry) GetCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, name, description, image, locations, budget, owner, status FROM campaigns WHERE id = $1`, id)
	c, err := scanCampaign(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// PutCampaign inserts or replaces a campaign record.
func (r *Registry) PutCampaign(ctx context.Context, c *domain.Campaign) error {
	locs, err := marshalLocations(c.Locations)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO campaigns (id, name, description, image, locations, budget, owner, status)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET name = $2, description = $3, image = $4, locations = $5, budget = $6, owner = $7, status = $8`,
		c.ID, c.Name, c.Description, c.Image, locs, c.Budget, c.Owner, string(c.Status))
	return err
}

// DeleteCampaign removes a campaign by id.
func (r *Registry) DeleteCampaign(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListCampaigns returns all campaign records.
func (r *Registry) ListCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, image, locations, budget, owner, status FROM campaigns ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Campaign, error) {
		c, err := scanCampaign(row)
		if err != nil {
			return domain.Campaign{}, err
		}
		return *c, nil
	})
}

// GetProvider returns a provider by id, or (nil, nil) when unknown.
func (r *Registry) GetProvider(ctx context.Context, id string) (*domain.Provider, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, name, owner, locations, total_earnings FROM providers WHERE id = $1`, id)
	p, err := scanProvider(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// PutProvider inserts or replaces a provider record.
func (r *Registry) PutProvider(ctx context.Context, p *domain.Provider) error {
	locs, err := marshalLocations(p.Locations)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO providers (id, name, owner, locations, total_earnings)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO UPDATE SET name = $2, owner = $3, locations = $4, total_earnings = $5`,
		p.ID, p.Name, p.Owner, locs, p.TotalEarnings)
	return err
}

// ListProviders returns all provider records.
func (r *Registry) ListProviders(ctx context.Context) ([]domain.Provider, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, owner, locations, total_earnings FROM providers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Provider, error) {
		p, err := scanProvider(row)
		if err != nil {
			return domain.Provider{}, err
		}
		return *p, nil
	})
}

// GetEarnings returns the earnings record for a provider/campaign pair, or
// (nil, nil) when no payment between the pair has been recorded yet.
func (r *Registry) GetEarnings(ctx context.Context, providerID, campaignID string) (*domain.ProviderEarnings, error) {
	var e domain.ProviderEarnings
	err := r.pool.QueryRow(ctx, `SELECT provider_id, campaign_id, total_earned, last_withdrawal FROM provider_earnings WHERE provider_id = $1 AND campaign_id = $2`,
		providerID, campaignID).Scan(&e.ProviderID, &e.CampaignID, &e.TotalEarned, &e.LastWithdrawal)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEarningsByProvider returns every earnings record for the provider.
func (r *Registry) ListEarningsByProvider(ctx context.Context, providerID string) ([]domain.ProviderEarnings, error) {
	rows, err := r.pool.Query(ctx, `SELECT provider_id, campaign_id, total_earned, last_withdrawal FROM provider_earnings WHERE provider_id = $1 ORDER BY campaign_id`, providerID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ProviderEarnings, error) {
		var e domain.ProviderEarnings
		err := row.Scan(&e.ProviderID, &e.CampaignID, &e.TotalEarned, &e.LastWithdrawal)
		return e, err
	})
}

// ApplyPayment persists the three writes of a payment in one serializable
// transaction so they become visible together or not at all.
func (r *Registry) ApplyPayment(ctx context.Context, c *domain.Campaign, p *domain.Provider, e *domain.ProviderEarnings) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	_, err = tx.Exec(ctx, `UPDATE campaigns SET budget = $1 WHERE id = $2`, c.Budget, c.ID)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `UPDATE providers SET total_earnings = $1 WHERE id = $2`, p.TotalEarnings, p.ID)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `INSERT INTO provider_earnings (provider_id, campaign_id, total_earned, last_withdrawal)
VALUES ($1,$2,$3,$4)
ON CONFLICT (provider_id, campaign_id) DO UPDATE SET total_earned = $3, last_withdrawal = $4`,
		e.ProviderID, e.CampaignID, e.TotalEarned, e.LastWithdrawal)
	return err
}

// NextID atomically bumps and returns the persisted counter for kind.
// Counters start at 1 and survive restarts, so identifiers are never reused.
func (r *Registry) NextID(ctx context.Context, kind string) (uint64, error) {
	var value uint64
	err := r.pool.QueryRow(ctx, `INSERT INTO id_counters (kind, value) VALUES ($1, 1)
ON CONFLICT (kind) DO UPDATE SET value = id_counters.value + 1
RETURNING value`, kind).Scan(&value)
	if err != nil {
		return 0, err
	}
	return value, nil
}

func scanCampaign(row pgx.Row) (*domain.Campaign, error) {
	var (
		c      domain.Campaign
		status string
		locs   []byte
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Image, &locs, &c.Budget, &c.Owner, &status); err != nil {
		return nil, err
	}
	c.Status = domain.CampaignStatus(status)
	if err := unmarshalLocations(locs, &c.Locations); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanProvider(row pgx.Row) (*domain.Provider, error) {
	var (
		p    domain.Provider
		locs []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Owner, &locs, &p.TotalEarnings); err != nil {
		return nil, err
	}
	if err := unmarshalLocations(locs, &p.Locations); err != nil {
		return nil, err
	}
	return &p, nil
}

func marshalLocations(locs []domain.Location) ([]byte, error) {
	if locs == nil {
		return nil, nil
	}
	return json.Marshal(locs)
}

func unmarshalLocations(raw []byte, dst *[]domain.Location) error {
	if raw == nil {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

var _ port.Registry = (*Registry)(nil)
