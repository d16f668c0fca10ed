package chunkstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/wrenlab/folio-backend/database/models"
	"gorm.io/gorm"
)

// chunkReader 按 Seq 顺序逐片读取对象
// 内存中始终只保留一个分片，对象整体大小不影响读取侧内存占用。
type chunkReader struct {
	ctx        context.Context
	db         *gorm.DB
	objectID   uint
	chunkCount int
	seq        int
	current    []byte
	offset     int
}

// OpenReadStream 打开对象读取流
// 分片严格按写入顺序返回；对象不存在时返回 ErrObjectNotFound。
func (s *Store) OpenReadStream(ctx context.Context, identifier string) (io.ReadCloser, *models.StoredObject, error) {
	object, err := s.FindMetadata(ctx, identifier)
	if err != nil {
		return nil, nil, err
	}

	reader := &chunkReader{
		ctx:        ctx,
		db:         s.db,
		objectID:   object.ID,
		chunkCount: object.ChunkCount,
	}
	return reader, object, nil
}

// Read 实现 io.Reader
func (r *chunkReader) Read(p []byte) (int, error) {
	for r.offset >= len(r.current) {
		if r.seq >= r.chunkCount {
			return 0, io.EOF
		}
		if err := r.loadNext(); err != nil {
			return 0, err
		}
	}

	n := copy(p, r.current[r.offset:])
	r.offset += n
	return n, nil
}

// loadNext 加载下一个分片
func (r *chunkReader) loadNext() error {
	var chunk models.ObjectChunk
	err := r.db.WithContext(r.ctx).
		Where("object_id = ? AND seq = ?", r.objectID, r.seq).
		First(&chunk).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 元数据声称的分片缺失，对象已损坏
			return fmt.Errorf("object %d is missing chunk %d of %d", r.objectID, r.seq, r.chunkCount)
		}
		return fmt.Errorf("failed to load chunk %d: %w", r.seq, err)
	}

	r.current = chunk.Data
	r.offset = 0
	r.seq++
	return nil
}

// Close 实现 io.Closer
func (r *chunkReader) Close() error {
	r.current = nil
	r.chunkCount = 0
	return nil
}
