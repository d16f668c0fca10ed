package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/wrenlab/folio-backend/cache/types"
)

// item 带过期时间的缓存条目
type item struct {
	data      []byte
	expiresAt time.Time
}

// expired 检查条目是否过期
func (i *item) expired() bool {
	return !i.expiresAt.IsZero() && time.Now().After(i.expiresAt)
}

// Memory 进程内缓存实现
type Memory struct {
	mu     sync.RWMutex
	items  map[string]item
	stopCh chan struct{}
}

// New 创建内存缓存
func New(cleanupInterval time.Duration) *Memory {
	m := &Memory{
		items:  make(map[string]item),
		stopCh: make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go m.janitor(cleanupInterval)
	}

	return m
}

// Set 设置缓存项
func (m *Memory) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}

	var expiresAt time.Time
	if expiration > 0 {
		expiresAt = time.Now().Add(expiration)
	}

	m.mu.Lock()
	m.items[key] = item{data: data, expiresAt: expiresAt}
	m.mu.Unlock()
	return nil
}

// Get 获取缓存项
func (m *Memory) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.RLock()
	it, ok := m.items[key]
	m.mu.RUnlock()

	if !ok || it.expired() {
		return types.ErrCacheMiss
	}

	return decode(it.data, dest)
}

// Delete 删除缓存项
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

// Exists 检查缓存项是否存在
func (m *Memory) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	it, ok := m.items[key]
	m.mu.RUnlock()
	return ok && !it.expired(), nil
}

// Close 关闭缓存
func (m *Memory) Close() error {
	close(m.stopCh)
	return nil
}

// Name 返回缓存提供者名称
func (m *Memory) Name() string {
	return "memory"
}

// janitor 定期清理过期条目
func (m *Memory) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			for key, it := range m.items {
				if it.expired() {
					delete(m.items, key)
				}
			}
			m.mu.Unlock()
		case <-m.stopCh:
			return
		}
	}
}

// encode 序列化缓存值（[]byte 直接存储）
func encode(value interface{}) ([]byte, error) {
	if data, ok := value.([]byte); ok {
		cloned := make([]byte, len(data))
		copy(cloned, data)
		return cloned, nil
	}
	return json.Marshal(value)
}

// decode 反序列化缓存值
func decode(data []byte, dest interface{}) error {
	if b, ok := dest.(*[]byte); ok {
		*b = data
		return nil
	}
	return json.Unmarshal(data, dest)
}
