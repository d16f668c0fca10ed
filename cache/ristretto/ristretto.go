package ristretto

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/wrenlab/folio-backend/cache/types"
)

// Ristretto 实现缓存接口
type Ristretto struct {
	client *ristretto.Cache
}

// Config Ristretto 配置
type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
}

// DefaultConfig 默认配置（约 64MB 成本上限）
func DefaultConfig() Config {
	return Config{
		NumCounters: 1e6,
		MaxCost:     64 << 20,
		BufferItems: 64,
	}
}

// New 创建 Ristretto 缓存
func New(config Config) (*Ristretto, error) {
	client, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: config.NumCounters,
		MaxCost:     config.MaxCost,
		BufferItems: config.BufferItems,
	})
	if err != nil {
		return nil, err
	}

	return &Ristretto{client: client}, nil
}

// Set 设置缓存项
func (r *Ristretto) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	cost := int64(1)
	if data, ok := value.([]byte); ok {
		cost = int64(len(data))
	}

	if r.client.SetWithTTL(key, value, cost, expiration) {
		// 等待值被实际设置
		r.client.Wait()
	}
	return nil
}

// Get 获取缓存项
func (r *Ristretto) Get(ctx context.Context, key string, dest interface{}) error {
	value, found := r.client.Get(key)
	if !found {
		return types.ErrCacheMiss
	}

	switch dest := dest.(type) {
	case *[]byte:
		if data, ok := value.([]byte); ok {
			*dest = data
			return nil
		}
		data, err := json.Marshal(value)
		if err != nil {
			return types.ErrCacheMiss
		}
		*dest = data
	default:
		var data []byte
		if byteData, ok := value.([]byte); ok {
			data = byteData
		} else {
			jsonData, err := json.Marshal(value)
			if err != nil {
				return types.ErrCacheMiss
			}
			data = jsonData
		}

		if err := json.Unmarshal(data, dest); err != nil {
			return types.ErrCacheMiss
		}
	}

	return nil
}

// Delete 删除缓存项
func (r *Ristretto) Delete(ctx context.Context, key string) error {
	r.client.Del(key)
	return nil
}

// Exists 检查缓存项是否存在
func (r *Ristretto) Exists(ctx context.Context, key string) (bool, error) {
	_, found := r.client.Get(key)
	return found, nil
}

// Close 关闭缓存
func (r *Ristretto) Close() error {
	r.client.Close()
	return nil
}

// Name 返回缓存提供者名称
func (r *Ristretto) Name() string {
	return "ristretto"
}
