package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	applog "cosmatiqa/internal/log"
	"cosmatiqa/models"
)

// DefaultTTLDays is the retention applied when callers do not specify one.
const DefaultTTLDays = 30

// Entry is the cached research result for one ingredient pair.
type Entry struct {
	Response   string    `json:"response"`
	Confidence float64   `json:"confidence"`
	Citations  []string  `json:"citations"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Cache persists advisory research results keyed by ingredient pair, with an
// in-process hot layer in front of the database. Expiry is lazy: stale rows are
// deleted on the next lookup, and PurgeExpired offers an optional sweep.
type Cache struct {
	db  *gorm.DB
	hot *gocache.Cache
}

// New builds a Cache bound to the given database handle.
func New(db *gorm.DB) *Cache {
	return &Cache{
		db:  db,
		hot: gocache.New(gocache.NoExpiration, 10*time.Minute),
	}
}

// PairKey derives the deterministic cache key for an unordered ingredient pair:
// the two ids are stringified, sorted lexicographically, joined, and hashed
// with FNV-1a 32. The hash is non-cryptographic; same pair always maps to the
// same key, and the rare cross-pair collision only costs a wasted research call.
func PairKey(idA, idB uint) string {
	a := fmt.Sprintf("%d", idA)
	b := fmt.Sprintf("%d", idB)
	if b < a {
		a, b = b, a
	}
	h := fnv.New32a()
	h.Write([]byte(a + ":" + b))
	return fmt.Sprintf("%08x", h.Sum32())
}

// Get returns the live entry for the pair, or nil when absent. A stale row is
// deleted before reporting a miss.
func (c *Cache) Get(ctx context.Context, idA, idB uint) (*Entry, error) {
	key := PairKey(idA, idB)

	if cached, ok := c.hot.Get(key); ok {
		if entry, valid := cached.(*Entry); valid && time.Now().Before(entry.ExpiresAt) {
			return entry, nil
		}
		c.hot.Delete(key)
	}

	var row models.ResearchCacheEntry
	err := c.db.WithContext(ctx).Where("pair_key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("research: lookup key %s: %w", key, err)
	}

	if time.Now().After(row.ExpiresAt) {
		if err := c.db.WithContext(ctx).Unscoped().Delete(&row).Error; err != nil {
			applog.Error(ctx, "failed to evict expired research entry", "error", err, "key", key)
		} else {
			applog.Debug(ctx, "expired research entry evicted", "key", key)
		}
		return nil, nil
	}

	entry := &Entry{
		Response:   row.Response,
		Confidence: row.Confidence,
		Citations:  decodeCitations(row.Citations),
		ExpiresAt:  row.ExpiresAt,
	}
	c.hotSet(key, entry)
	return entry, nil
}

// Put upserts the research result for the pair. Existing rows, live or stale,
// are overwritten and their expiry extended to now + ttlDays.
func (c *Cache) Put(ctx context.Context, idA, idB uint, response string, confidence float64, citations []string, ttlDays int) error {
	key := PairKey(idA, idB)
	expiresAt := time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour)

	encoded, err := json.Marshal(citations)
	if err != nil {
		return fmt.Errorf("research: encode citations: %w", err)
	}

	var row models.ResearchCacheEntry
	err = c.db.WithContext(ctx).Where("pair_key = ?", key).First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = models.ResearchCacheEntry{
			PairKey:    key,
			Response:   response,
			Confidence: confidence,
			Citations:  string(encoded),
			ExpiresAt:  expiresAt,
		}
		if createErr := c.db.WithContext(ctx).Create(&row).Error; createErr != nil {
			// Concurrent writers race on the unique pair key; the loser
			// retries as an update against the winner's row.
			if updateErr := c.update(ctx, key, response, confidence, string(encoded), expiresAt); updateErr != nil {
				return fmt.Errorf("research: store key %s: %w", key, createErr)
			}
		}
	case err != nil:
		return fmt.Errorf("research: lookup key %s: %w", key, err)
	default:
		if updateErr := c.update(ctx, key, response, confidence, string(encoded), expiresAt); updateErr != nil {
			return updateErr
		}
	}

	c.hotSet(key, &Entry{
		Response:   response,
		Confidence: confidence,
		Citations:  citations,
		ExpiresAt:  expiresAt,
	})
	return nil
}

// PurgeExpired removes every row whose expiry has passed and returns the
// number deleted. Safe to run concurrently with reads and writes.
func (c *Cache) PurgeExpired(ctx context.Context) (int64, error) {
	result := c.db.WithContext(ctx).
		Unscoped().
		Where("expires_at < ?", time.Now().UTC()).
		Delete(&models.ResearchCacheEntry{})
	if result.Error != nil {
		return 0, fmt.Errorf("research: purge expired: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		applog.Info(ctx, "purged expired research entries", "count", result.RowsAffected)
	}
	return result.RowsAffected, nil
}

func (c *Cache) update(ctx context.Context, key, response string, confidence float64, citations string, expiresAt time.Time) error {
	err := c.db.WithContext(ctx).
		Model(&models.ResearchCacheEntry{}).
		Where("pair_key = ?", key).
		Updates(map[string]any{
			"response":   response,
			"confidence": confidence,
			"citations":  citations,
			"expires_at": expiresAt,
		}).Error
	if err != nil {
		return fmt.Errorf("research: update key %s: %w", key, err)
	}
	return nil
}

func (c *Cache) hotSet(key string, entry *Entry) {
	ttl := time.Until(entry.ExpiresAt)
	if ttl <= 0 {
		return
	}
	c.hot.Set(key, entry, ttl)
}

func decodeCitations(encoded string) []string {
	if encoded == "" {
		return nil
	}
	var citations []string
	if err := json.Unmarshal([]byte(encoded), &citations); err != nil {
		return nil
	}
	return citations
}
