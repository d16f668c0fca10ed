package object

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/wrenlab/folio-backend/cache"
	"github.com/wrenlab/folio-backend/database/models"
	"github.com/wrenlab/folio-backend/storage/chunkstore"
	"github.com/wrenlab/folio-backend/utils"
	"golang.org/x/sync/singleflight"
)

// DefaultMaxPayloadBytes 上传负载大小上限（5MB）
const DefaultMaxPayloadBytes = 5 << 20

// Service 二进制对象服务
// 聚合摄取、取回、外部引用和删除四条管道，分片存储通过构造函数注入。
type Service struct {
	store           *chunkstore.Store
	cacheHelper     *cache.Helper
	maxPayloadBytes int64

	metaGroup singleflight.Group
}

// NewService 创建对象服务
func NewService(store *chunkstore.Store, cacheHelper *cache.Helper, maxPayloadBytes int64) *Service {
	if maxPayloadBytes <= 0 {
		maxPayloadBytes = DefaultMaxPayloadBytes
	}
	return &Service{
		store:           store,
		cacheHelper:     cacheHelper,
		maxPayloadBytes: maxPayloadBytes,
	}
}

// MaxPayloadBytes 返回负载大小上限
func (s *Service) MaxPayloadBytes() int64 {
	return s.maxPayloadBytes
}

// FindMetadata 解析标识符到对象元数据
// 语法检查先于任何存储查询；缓存未命中时经 singleflight 回源。
func (s *Service) FindMetadata(ctx context.Context, identifier string) (*models.StoredObject, error) {
	if !IsValidIdentifier(identifier) {
		return nil, ErrInvalidIdentifier
	}

	var cached models.StoredObject
	if err := s.cacheHelper.GetCachedObjectMeta(ctx, identifier, &cached); err == nil {
		return &cached, nil
	}

	v, err, _ := s.metaGroup.Do(identifier, func() (interface{}, error) {
		object, err := s.store.FindMetadata(ctx, identifier)
		if err != nil {
			return nil, err
		}

		utils.SafeGo(func() {
			if cacheErr := s.cacheHelper.CacheObjectMeta(context.Background(), object); cacheErr != nil {
				log.Printf("Failed to cache object metadata for '%s': %v", object.Identifier, cacheErr)
			}
		})

		return object, nil
	})
	if err != nil {
		if errors.Is(err, chunkstore.ErrObjectNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: metadata lookup for %s: %v", ErrStorageFailure, identifier, err)
	}

	return v.(*models.StoredObject), nil
}

// Delete 删除对象（幂等，best-effort 清缓存）
func (s *Service) Delete(ctx context.Context, identifier string) error {
	if !IsValidIdentifier(identifier) {
		return ErrInvalidIdentifier
	}

	if err := s.store.Delete(ctx, identifier); err != nil {
		return fmt.Errorf("%w: delete of %s: %v", ErrStorageFailure, identifier, err)
	}

	s.cacheHelper.InvalidateObject(ctx, identifier)
	return nil
}
