package chunkstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/wrenlab/folio-backend/database/models"
	"gorm.io/gorm"
)

// DefaultChunkSize 分片大小（256KB）
const DefaultChunkSize = 256 * 1024

var (
	// ErrObjectNotFound 对象不存在
	ErrObjectNotFound = errors.New("object not found")

	// ErrHandleClosed 写入通道已关闭
	ErrHandleClosed = errors.New("write handle already closed")
)

// Store 分片对象存储
// 二进制负载按固定大小分片写入数据库，元数据与全部分片在同一事务内提交：
// 提交前对读取路径完全不可见，失败或中断不会留下半成品对象。
type Store struct {
	db        *gorm.DB
	chunkSize int
}

// Option Store 配置项
type Option func(*Store)

// WithChunkSize 指定分片大小
func WithChunkSize(size int) Option {
	return func(s *Store) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// New 创建分片存储
func New(db *gorm.DB, opts ...Option) *Store {
	s := &Store{
		db:        db,
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ChunkSize 返回分片大小
func (s *Store) ChunkSize() int {
	return s.chunkSize
}

// FindMetadata 通过标识符查询对象元数据
func (s *Store) FindMetadata(ctx context.Context, identifier string) (*models.StoredObject, error) {
	var object models.StoredObject
	err := s.db.WithContext(ctx).Where("identifier = ?", identifier).First(&object).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to query object metadata: %w", err)
	}
	return &object, nil
}

// Exists 检查对象是否存在
func (s *Store) Exists(ctx context.Context, identifier string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.StoredObject{}).
		Where("identifier = ?", identifier).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}
	return count > 0, nil
}

// Delete 删除对象的元数据和全部分片
// 对象不存在时静默成功，删除是幂等的。
func (s *Store) Delete(ctx context.Context, identifier string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var object models.StoredObject
		err := tx.Where("identifier = ?", identifier).First(&object).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to query object for deletion: %w", err)
		}

		if err := tx.Where("object_id = ?", object.ID).Delete(&models.ObjectChunk{}).Error; err != nil {
			return fmt.Errorf("failed to delete object chunks: %w", err)
		}

		if err := tx.Unscoped().Delete(&object).Error; err != nil {
			return fmt.Errorf("failed to delete object metadata: %w", err)
		}

		return nil
	})
}

// ListIdentifiers 返回全部对象标识符（供清理和镜像任务遍历）
func (s *Store) ListIdentifiers(ctx context.Context) ([]string, error) {
	var identifiers []string
	err := s.db.WithContext(ctx).Model(&models.StoredObject{}).
		Order("id").Pluck("identifier", &identifiers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list object identifiers: %w", err)
	}
	return identifiers, nil
}

// Health 检查存储健康状态
func (s *Store) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
