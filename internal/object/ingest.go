package object

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/wrenlab/folio-backend/utils"
	"github.com/wrenlab/folio-backend/utils/pool"
	"github.com/wrenlab/folio-backend/utils/validator"
)

// Ingest 摄取二进制负载，返回指向新对象的引用
// 校验顺序：声明大小、声明类型、嗅探类型、实测大小。任何一步失败都不会
// 留下可取回的对象（写入通道在 Commit 前不可见）。
func (s *Service) Ingest(ctx context.Context, payload io.Reader, declaredName, declaredContentType string, declaredSize int64) (ImageRef, error) {
	if payload == nil {
		return ImageRef{}, ErrMissingPayload
	}
	if declaredSize > s.maxPayloadBytes {
		return ImageRef{}, ErrPayloadTooLarge
	}
	// application/octet-stream 视同未声明，以嗅探结果为准
	if declaredContentType != "" && declaredContentType != "application/octet-stream" &&
		!validator.IsAllowedContentType(declaredContentType) {
		return ImageRef{}, ErrUnsupportedMediaType
	}

	// 嗅探文件头，声明类型不可信
	head := make([]byte, 512)
	n, err := io.ReadFull(payload, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return ImageRef{}, fmt.Errorf("%w: failed to read payload head: %v", ErrStorageFailure, err)
	}
	head = head[:n]

	ok, mimeType := validator.IsImageBytes(head)
	if !ok {
		return ImageRef{}, ErrUnsupportedMediaType
	}

	identifier := NewIdentifier()
	storageName := NewStorageName(identifier, mimeType)

	handle, err := s.store.OpenWriteChannel(ctx, identifier, storageName, mimeType)
	if err != nil {
		return ImageRef{}, fmt.Errorf("%w: failed to open write channel: %v", ErrStorageFailure, err)
	}

	if _, err := handle.Write(head); err != nil {
		handle.Abort()
		return ImageRef{}, fmt.Errorf("%w: failed to write payload: %v", ErrStorageFailure, err)
	}

	// 客户端声明的长度不可信，复制时实测并限长
	bufPtr := pool.SharedBufferPool.Get().(*[]byte)
	_, err = io.CopyBuffer(handle, io.LimitReader(payload, s.maxPayloadBytes-int64(n)+1), *bufPtr)
	pool.SharedBufferPool.Put(bufPtr)
	if err != nil {
		handle.Abort()
		return ImageRef{}, fmt.Errorf("%w: failed to write payload: %v", ErrStorageFailure, err)
	}

	if handle.Size() > s.maxPayloadBytes {
		handle.Abort()
		return ImageRef{}, ErrPayloadTooLarge
	}

	if err := ctx.Err(); err != nil {
		// 客户端中途断开，半成品对象不能变得可见
		handle.Abort()
		return ImageRef{}, fmt.Errorf("%w: upload cancelled: %v", ErrStorageFailure, err)
	}

	object, err := handle.Commit()
	if err != nil {
		return ImageRef{}, fmt.Errorf("%w: failed to commit object: %v", ErrStorageFailure, err)
	}

	utils.SafeGo(func() {
		if cacheErr := s.cacheHelper.CacheObjectMeta(context.Background(), object); cacheErr != nil {
			log.Printf("Failed to warm metadata cache for '%s': %v", object.Identifier, cacheErr)
		}
	})

	return OwnedRef(object.Identifier, object.StorageName, object.ContentType), nil
}
