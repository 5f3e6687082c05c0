// Package asset stores product hero assets on disk and tracks them in a
// Redis index so repeated runs skip regeneration.
package asset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/brandgate/creative-automation/internal/campaign"
	"github.com/brandgate/creative-automation/internal/generation"
	"github.com/brandgate/creative-automation/pkg/errors"
	"github.com/brandgate/creative-automation/pkg/json"
)

const cacheTTL = 7 * 24 * time.Hour

// Record is the cache index entry for one stored asset.
type Record struct {
	Path        string    `json:"path"`
	Product     string    `json:"product"`
	Generated   bool      `json:"generated"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Manager resolves product assets: brief-supplied files first, then the disk
// store, then generation. The Redis index is an acceleration layer only;
// cache failures degrade to disk checks and never fail a run.
type Manager struct {
	dir   string
	cache *redis.Client
	gen   generation.Service
	log   *zap.Logger
}

// NewManager builds a manager. cache may be nil to run without Redis.
func NewManager(log *zap.Logger, dir string, cache *redis.Client, gen generation.Service) *Manager {
	return &Manager{
		dir:   dir,
		cache: cache,
		gen:   gen,
		log:   log,
	}
}

// GetOrCreate returns the path of the product's asset, generating it if
// missing. The second return reports whether generation happened this call.
func (m *Manager) GetOrCreate(ctx context.Context, product campaign.Product, theme string) (string, bool, error) {
	// Brief-supplied assets win outright.
	if product.AssetPath != "" {
		if _, err := os.Stat(product.AssetPath); err != nil {
			return "", false, errors.Wrap(errors.ErrAssetUnavailable,
				fmt.Sprintf("brief asset %s: %v", product.AssetPath, err))
		}
		return product.AssetPath, false, nil
	}

	slug := campaign.Slug(product.Name)
	path := filepath.Join(m.dir, "products", slug+".png")

	if cached := m.lookup(ctx, slug); cached != nil {
		if _, err := os.Stat(cached.Path); err == nil {
			m.log.Debug("asset cache hit", zap.String("product", product.Name), zap.String("path", cached.Path))
			return cached.Path, false, nil
		}
		// Stale index entry; fall through to disk and generation.
	}

	if _, err := os.Stat(path); err == nil {
		m.index(ctx, slug, Record{Path: path, Product: product.Name})
		return path, false, nil
	}

	data, err := m.gen.GenerateProductImage(ctx, product.Name, product.Description, theme)
	if err != nil {
		return "", false, errors.Wrap(errors.ErrAssetUnavailable, err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", false, errors.Wrap(errors.ErrAssetUnavailable, err.Error())
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", false, errors.Wrap(errors.ErrAssetUnavailable, err.Error())
	}

	m.index(ctx, slug, Record{
		Path:        path,
		Product:     product.Name,
		Generated:   true,
		GeneratedAt: time.Now().UTC(),
	})
	m.log.Info("generated product asset", zap.String("product", product.Name), zap.String("path", path))
	return path, true, nil
}

func (m *Manager) lookup(ctx context.Context, slug string) *Record {
	if m.cache == nil {
		return nil
	}
	data, err := m.cache.Get(ctx, cacheKey(slug)).Bytes()
	if err != nil {
		if err != redis.Nil {
			m.log.Warn("asset index lookup failed", zap.String("slug", slug), zap.Error(err))
		}
		return nil
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		m.log.Warn("asset index entry corrupt", zap.String("slug", slug), zap.Error(err))
		return nil
	}
	return &rec
}

func (m *Manager) index(ctx context.Context, slug string, rec Record) {
	if m.cache == nil {
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := m.cache.Set(ctx, cacheKey(slug), data, cacheTTL).Err(); err != nil {
		m.log.Warn("asset index update failed", zap.String("slug", slug), zap.Error(err))
	}
}

func cacheKey(slug string) string {
	return "asset:product:" + slug
}
