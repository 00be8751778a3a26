package audience

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xenolabs/engage/internal/domain"
)

// Previewer is the capability the preview handler consumes.
type Previewer interface {
	Preview(ctx context.Context, groups []domain.RuleGroup) (*Preview, error)
}

// CachedPreviewer wraps a Resolver with a short-lived Redis cache keyed by
// the rule-set hash. The campaign builder re-previews on every rule edit;
// caching keeps repeated identical previews from rescanning the collection.
// Cache failures degrade to a direct resolve, never to an error.
type CachedPreviewer struct {
	resolver *Resolver
	rdb      *redis.Client
	ttl      time.Duration
}

// NewCachedPreviewer creates a caching previewer. A zero ttl defaults to
// 30 seconds.
func NewCachedPreviewer(resolver *Resolver, rdb *redis.Client, ttl time.Duration) *CachedPreviewer {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedPreviewer{resolver: resolver, rdb: rdb, ttl: ttl}
}

// Preview returns a cached preview when one exists for this exact rule set,
// otherwise resolves and stores the result.
func (p *CachedPreviewer) Preview(ctx context.Context, groups []domain.RuleGroup) (*Preview, error) {
	key := previewKey(groups)

	if raw, err := p.rdb.Get(ctx, key).Bytes(); err == nil {
		var cached Preview
		if err := json.Unmarshal(raw, &cached); err == nil {
			return &cached, nil
		}
	} else if err != redis.Nil {
		log.Printf("[PreviewCache] get error: %v", err)
	}

	preview, err := p.resolver.Preview(ctx, groups)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(preview); err == nil {
		if err := p.rdb.Set(ctx, key, raw, p.ttl).Err(); err != nil {
			log.Printf("[PreviewCache] set error: %v", err)
		}
	}
	return preview, nil
}

func previewKey(groups []domain.RuleGroup) string {
	raw, _ := json.Marshal(groups)
	sum := sha256.Sum256(raw)
	return "audience:preview:" + hex.EncodeToString(sum[:16])
}
