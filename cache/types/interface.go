package types

import "errors"

// ErrCacheMiss 缓存未命中错误
// 放在独立包中，供各实现包引用而不依赖 cache 包本身。
var ErrCacheMiss = errors.New("cache miss")
