package chunkstore

import (
	"context"
	"fmt"

	"github.com/wrenlab/folio-backend/database/models"
	"gorm.io/gorm"
)

// WriteHandle 对象写入通道
// 接受任意大小的顺序写入，内部切成固定大小的分片。元数据行和分片行
// 都挂在同一个事务上，Commit 前不会对任何读取者可见。
type WriteHandle struct {
	tx        *gorm.DB
	object    *models.StoredObject
	chunkSize int
	buf       []byte
	seq       int
	size      int64
	closed    bool
}

// OpenWriteChannel 打开写入通道
// identifier 和 storageName 由调用方生成，不受客户端文件名影响。
func (s *Store) OpenWriteChannel(ctx context.Context, identifier, storageName, contentType string) (*WriteHandle, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin write transaction: %w", tx.Error)
	}

	object := &models.StoredObject{
		Identifier:  identifier,
		StorageName: storageName,
		ContentType: contentType,
		ChunkSize:   s.chunkSize,
	}
	if err := tx.Create(object).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create object metadata: %w", err)
	}

	return &WriteHandle{
		tx:        tx,
		object:    object,
		chunkSize: s.chunkSize,
		buf:       make([]byte, 0, s.chunkSize),
	}, nil
}

// Write 顺序写入任意大小的缓冲区
func (h *WriteHandle) Write(p []byte) (int, error) {
	if h.closed {
		return 0, ErrHandleClosed
	}

	written := len(p)
	for len(p) > 0 {
		free := h.chunkSize - len(h.buf)
		if free > len(p) {
			free = len(p)
		}
		h.buf = append(h.buf, p[:free]...)
		p = p[free:]

		if len(h.buf) == h.chunkSize {
			if err := h.flushChunk(); err != nil {
				return 0, err
			}
		}
	}

	h.size += int64(written)
	return written, nil
}

// flushChunk 将当前缓冲区落库为一个分片
func (h *WriteHandle) flushChunk() error {
	if len(h.buf) == 0 {
		return nil
	}

	data := make([]byte, len(h.buf))
	copy(data, h.buf)

	chunk := &models.ObjectChunk{
		ObjectID: h.object.ID,
		Seq:      h.seq,
		Data:     data,
	}
	if err := h.tx.Create(chunk).Error; err != nil {
		h.abort()
		return fmt.Errorf("failed to persist chunk %d: %w", h.seq, err)
	}

	h.seq++
	h.buf = h.buf[:0]
	return nil
}

// Commit 提交对象
// 刷出未满的尾部分片，补全元数据后提交事务。只有这里成功返回，
// 对象才算存在。
func (h *WriteHandle) Commit() (*models.StoredObject, error) {
	if h.closed {
		return nil, ErrHandleClosed
	}

	if err := h.flushChunk(); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"size_bytes":  h.size,
		"chunk_count": h.seq,
	}
	if err := h.tx.Model(h.object).Updates(updates).Error; err != nil {
		h.abort()
		return nil, fmt.Errorf("failed to finalize object metadata: %w", err)
	}

	if err := h.tx.Commit().Error; err != nil {
		h.closed = true
		return nil, fmt.Errorf("failed to commit object: %w", err)
	}

	h.closed = true
	h.object.SizeBytes = h.size
	h.object.ChunkCount = h.seq
	return h.object, nil
}

// Abort 放弃写入，回滚全部已写分片
func (h *WriteHandle) Abort() {
	if h.closed {
		return
	}
	h.abort()
}

func (h *WriteHandle) abort() {
	h.closed = true
	h.tx.Rollback()
}

// Size 返回已写入的字节数
func (h *WriteHandle) Size() int64 {
	return h.size
}
