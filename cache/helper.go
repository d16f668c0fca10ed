package cache

import (
	"context"
	"math/rand"
	"time"

	"github.com/wrenlab/folio-backend/database/models"
)

const (
	// ObjectMetaCachePrefix 对象元数据缓存前缀
	ObjectMetaCachePrefix = "object_meta:"

	// ObjectDataCachePrefix 对象数据缓存前缀
	ObjectDataCachePrefix = "object_data:"

	// DefaultMetaCacheExpiration 元数据缓存过期时间
	DefaultMetaCacheExpiration = 1 * time.Hour

	// DefaultDataCacheExpiration 对象数据缓存过期时间
	DefaultDataCacheExpiration = 1 * time.Hour

	// DefaultMaxCacheableObjectSize 默认最大可缓存对象大小（1MB）
	DefaultMaxCacheableObjectSize = 1 * 1024 * 1024
)

// addJitter 添加随机抖动（±10%），防止缓存雪崩
func addJitter(duration time.Duration) time.Duration {
	if duration <= 0 {
		return duration
	}
	jitter := time.Duration(rand.Int63n(int64(duration) / 10))
	return duration + jitter
}

// HelperConfig 缓存辅助工具配置
type HelperConfig struct {
	MetaCacheTTL           time.Duration
	DataCacheTTL           time.Duration
	MaxCacheableObjectSize int64
	EnableDataCaching      bool
}

// DefaultHelperConfig 返回默认配置
func DefaultHelperConfig() HelperConfig {
	return HelperConfig{
		MetaCacheTTL:           DefaultMetaCacheExpiration,
		DataCacheTTL:           DefaultDataCacheExpiration,
		MaxCacheableObjectSize: DefaultMaxCacheableObjectSize,
		EnableDataCaching:      true,
	}
}

// Helper 对象缓存辅助工具
type Helper struct {
	provider Provider
	config   HelperConfig
}

// NewHelper 创建新的缓存辅助工具
func NewHelper(provider Provider, cfg ...HelperConfig) *Helper {
	c := DefaultHelperConfig()
	if len(cfg) > 0 {
		c = cfg[0]
	}
	return &Helper{
		provider: provider,
		config:   c,
	}
}

// CacheObjectMeta 缓存对象元数据
func (h *Helper) CacheObjectMeta(ctx context.Context, object *models.StoredObject) error {
	if h == nil || h.provider == nil || object == nil {
		return nil
	}
	key := ObjectMetaCachePrefix + object.Identifier
	return h.provider.Set(ctx, key, object, addJitter(h.config.MetaCacheTTL))
}

// GetCachedObjectMeta 获取缓存的对象元数据
func (h *Helper) GetCachedObjectMeta(ctx context.Context, identifier string, dest *models.StoredObject) error {
	if h == nil || h.provider == nil {
		return ErrCacheMiss
	}
	return h.provider.Get(ctx, ObjectMetaCachePrefix+identifier, dest)
}

// CacheObjectData 缓存对象数据（超过大小上限的对象不缓存）
func (h *Helper) CacheObjectData(ctx context.Context, identifier string, data []byte) error {
	if h == nil || h.provider == nil || !h.config.EnableDataCaching {
		return nil
	}
	if h.config.MaxCacheableObjectSize > 0 && int64(len(data)) > h.config.MaxCacheableObjectSize {
		return nil
	}
	key := ObjectDataCachePrefix + identifier
	return h.provider.Set(ctx, key, data, addJitter(h.config.DataCacheTTL))
}

// GetCachedObjectData 获取缓存的对象数据
func (h *Helper) GetCachedObjectData(ctx context.Context, identifier string) ([]byte, error) {
	if h == nil || h.provider == nil {
		return nil, ErrCacheMiss
	}
	var data []byte
	if err := h.provider.Get(ctx, ObjectDataCachePrefix+identifier, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// MaxCacheableObjectSize 返回可缓存对象大小上限
func (h *Helper) MaxCacheableObjectSize() int64 {
	if h == nil {
		return 0
	}
	return h.config.MaxCacheableObjectSize
}

// DataCachingEnabled 是否启用对象数据缓存
func (h *Helper) DataCachingEnabled() bool {
	return h != nil && h.provider != nil && h.config.EnableDataCaching
}

// InvalidateObject 清除对象的全部缓存
func (h *Helper) InvalidateObject(ctx context.Context, identifier string) {
	if h == nil || h.provider == nil {
		return
	}
	_ = h.provider.Delete(ctx, ObjectMetaCachePrefix+identifier)
	_ = h.provider.Delete(ctx, ObjectDataCachePrefix+identifier)
}
