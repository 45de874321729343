package memory

import (
	"context"
	"strings"
	"time"

	"rag-pipeline-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

type AnswerCache struct {
	cache *cache.Cache
}

var _ contract.AnswerCache = (*AnswerCache)(nil)

func NewAnswerCache(ttl time.Duration) *AnswerCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &AnswerCache{
		cache: cache.New(ttl, 2*ttl),
	}
}

func projectPrefix(projectId string) string {
	return projectId + "\x00"
}

func (r *AnswerCache) Get(ctx context.Context, projectId, key string) ([]byte, bool, error) {
	if x, found := r.cache.Get(projectPrefix(projectId) + key); found {
		return x.([]byte), true, nil
	}
	return nil, false, nil
}

func (r *AnswerCache) Set(ctx context.Context, projectId, key string, value []byte) error {
	r.cache.Set(projectPrefix(projectId)+key, value, cache.DefaultExpiration)
	return nil
}

func (r *AnswerCache) InvalidateProject(ctx context.Context, projectId string) error {
	prefix := projectPrefix(projectId)
	for k := range r.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			r.cache.Delete(k)
		}
	}
	return nil
}
