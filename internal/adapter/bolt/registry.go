// Package bolt implements the registry on an embedded BoltDB file. It is the
// single-binary storage driver: all three registries and the ID counters live
// in one database file, with no external process required.
package bolt

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "github.com/boltdb/bolt"

	"soulboard/internal/core/domain"
	"soulboard/internal/core/port"
)

var (
	campaignsBucket = []byte("campaigns")
	providersBucket = []byte("providers")
	earningsBucket  = []byte("earnings")
	countersBucket  = []byte("counters")
)

// maxEntrySize bounds the serialized size of a single registry entry.
// Oversized entities are rejected at the boundary rather than truncated.
const maxEntrySize = 64 << 10

// Registry implements port.Registry on a BoltDB database. Values are JSON
// encoded. Earnings keys are "<provider_id>:<campaign_id>", so a provider's
// records form a contiguous key range and ListEarningsByProvider is a prefix
// scan over the ordered bucket.
type Registry struct {
	db *bolt.DB
}

// Open opens (or creates) the database file at path and ensures all buckets
// exist.
func Open(path string) (*Registry, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{campaignsBucket, providersBucket, earningsBucket, countersBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Registry{db: db}, nil
}

// Close releases the database file lock.
func (r *Registry) Close() error {
	return r.db.Close()
}

// GetCampaign returns a campaign by id, or (nil, nil) when unknown.
func (r *Registry) GetCampaign(_ context.Context, id string) (*domain.Campaign, error) {
	var c *domain.Campaign
	err := r.db.View(func(tx *bolt.Tx) error {
		return get(tx, campaignsBucket, id, &c)
	})
	return c, err
}

// PutCampaign inserts or replaces a campaign record.
func (r *Registry) PutCampaign(_ context.Context, c *domain.Campaign) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		return put(tx, campaignsBucket, c.ID, c)
	})
}

// DeleteCampaign removes a campaign by id.
func (r *Registry) DeleteCampaign(_ context.Context, id string) (bool, error) {
	removed := false
	err := r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(campaignsBucket)
		if b.Get([]byte(id)) == nil {
			return nil
		}
		removed = true
		return b.Delete([]byte(id))
	})
	return removed, err
}

// ListCampaigns returns all campaign records in key order.
func (r *Registry) ListCampaigns(_ context.Context) ([]domain.Campaign, error) {
	out := []domain.Campaign{}
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(campaignsBucket).ForEach(func(_, v []byte) error {
			var c domain.Campaign
			if err := json.Unmarshal(v, &c); err != nil {
				return err
			}
			out = append(out, c)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetProvider returns a provider by id, or (nil, nil) when unknown.
func (r *Registry) GetProvider(_ context.Context, id string) (*domain.Provider, error) {
	var p *domain.Provider
	err := r.db.View(func(tx *bolt.Tx) error {
		return get(tx, providersBucket, id, &p)
	})
	return p, err
}

// PutProvider inserts or replaces a provider record.
func (r *Registry) PutProvider(_ context.Context, p *domain.Provider) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		return put(tx, providersBucket, p.ID, p)
	})
}

// ListProviders returns all provider records in key order.
func (r *Registry) ListProviders(_ context.Context) ([]domain.Provider, error) {
	out := []domain.Provider{}
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(providersBucket).ForEach(func(_, v []byte) error {
			var p domain.Provider
			if err := json.Unmarshal(v, &p); err != nil {
				return err
			}
			out = append(out, p)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetEarnings returns the earnings record for a provider/campaign pair, or
// (nil, nil) when absent.
func (r *Registry) GetEarnings(_ context.Context, providerID, campaignID string) (*domain.ProviderEarnings, error) {
	var e *domain.ProviderEarnings
	err := r.db.View(func(tx *bolt.Tx) error {
		return get(tx, earningsBucket, domain.EarningsKey(providerID, campaignID), &e)
	})
	return e, err
}

// ListEarningsByProvider scans the contiguous "<provider_id>:" key range.
func (r *Registry) ListEarningsByProvider(_ context.Context, providerID string) ([]domain.ProviderEarnings, error) {
	prefix := []byte(providerID + ":")
	out := []domain.ProviderEarnings{}
	err := r.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(earningsBucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var e domain.ProviderEarnings
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyPayment writes the campaign, provider and earnings record inside a
// single bolt write transaction.
func (r *Registry) ApplyPayment(_ context.Context, c *domain.Campaign, p *domain.Provider, e *domain.ProviderEarnings) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		if err := put(tx, campaignsBucket, c.ID, c); err != nil {
			return err
		}
		if err := put(tx, providersBucket, p.ID, p); err != nil {
			return err
		}
		return put(tx, earningsBucket, domain.EarningsKey(e.ProviderID, e.CampaignID), e)
	})
}

// NextID bumps and returns the persisted counter for kind. The counter value
// is stored big-endian so it also sorts correctly as a key.
func (r *Registry) NextID(_ context.Context, kind string) (uint64, error) {
	var next uint64
	err := r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(countersBucket)
		if v := b.Get([]byte(kind)); v != nil {
			next = binary.BigEndian.Uint64(v)
		}
		next++
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, next)
		return b.Put([]byte(kind), buf)
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// get unmarshals the value at key into dst, leaving dst nil when the key is
// unknown. dst must be a pointer to a pointer.
func get(tx *bolt.Tx, bucket []byte, key string, dst any) error {
	v := tx.Bucket(bucket).Get([]byte(key))
	if v == nil {
		return nil
	}
	return json.Unmarshal(v, dst)
}

// put marshals val and stores it at key, rejecting entries over maxEntrySize.
func put(tx *bolt.Tx, bucket []byte, key string, val any) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}
	if len(data) > maxEntrySize {
		return fmt.Errorf("entry %q exceeds maximum size: %d > %d bytes", key, len(data), maxEntrySize)
	}
	return tx.Bucket(bucket).Put([]byte(key), data)
}

var _ port.Registry = (*Registry)(nil)
