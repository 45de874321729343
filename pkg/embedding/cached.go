package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/patrickmn/go-cache"
)

// CachedProvider memoises query vectors. Document vectors pass straight through.
type CachedProvider struct {
	next  EmbeddingProvider
	cache *cache.Cache
}

func NewCachedProvider(next EmbeddingProvider, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedProvider{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (p *CachedProvider) key(text string, taskType TaskType) string {
	sum := sha256.Sum256([]byte(text))
	return string(taskType) + ":" + hex.EncodeToString(sum[:])
}

func (p *CachedProvider) Generate(ctx context.Context, text string, taskType TaskType) (*EmbeddingResponse, error) {
	if taskType != TaskTypeQuery {
		return p.next.Generate(ctx, text, taskType)
	}

	key := p.key(text, taskType)
	if cached, found := p.cache.Get(key); found {
		return cached.(*EmbeddingResponse), nil
	}

	res, err := p.next.Generate(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	p.cache.SetDefault(key, res)
	return res, nil
}

func (p *CachedProvider) EmbeddingSize() int {
	return p.next.EmbeddingSize()
}

func (p *CachedProvider) Flush() {
	p.cache.Flush()
}
