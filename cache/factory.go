package cache

import (
	"fmt"
	"log"
	"time"

	"github.com/wrenlab/folio-backend/cache/memory"
	"github.com/wrenlab/folio-backend/cache/redis"
	"github.com/wrenlab/folio-backend/cache/ristretto"
	"github.com/wrenlab/folio-backend/config"
)

// NewProvider 根据配置创建缓存提供者
func NewProvider(cfg *config.Config) (Provider, error) {
	cacheType := cfg.CacheType
	if cacheType == "" {
		cacheType = "memory"
	}

	var provider Provider
	var err error

	switch cacheType {
	case "memory":
		provider = memory.New(5 * time.Minute)
	case "ristretto":
		provider, err = ristretto.New(ristretto.DefaultConfig())
	case "redis":
		provider, err = redis.New(cfg.CacheRedisAddr, cfg.CacheRedisPassword, cfg.CacheRedisDB)
	default:
		return nil, fmt.Errorf("unsupported cache provider: %s", cacheType)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to initialize '%s' cache provider: %w", cacheType, err)
	}

	log.Printf("Cache provider '%s' initialized", provider.Name())
	return provider, nil
}
