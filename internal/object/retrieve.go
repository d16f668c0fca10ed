package object

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/wrenlab/folio-backend/database/models"
	"github.com/wrenlab/folio-backend/storage/chunkstore"
)

// Open 打开对象的读取流
// 返回元数据和按分片顺序产出字节的 reader，调用方负责 Close。
func (s *Service) Open(ctx context.Context, identifier string) (*models.StoredObject, io.ReadCloser, error) {
	object, err := s.FindMetadata(ctx, identifier)
	if err != nil {
		return nil, nil, err
	}

	reader, _, err := s.store.OpenReadStream(ctx, identifier)
	if err != nil {
		if errors.Is(err, chunkstore.ErrObjectNotFound) {
			// 元数据缓存可能晚于删除，以存储为准
			s.cacheHelper.InvalidateObject(ctx, identifier)
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("%w: read stream for %s: %v", ErrStorageFailure, identifier, err)
	}

	return object, reader, nil
}

// ReadAll 读出整个对象（仅用于确定小于缓存上限的对象）
func (s *Service) ReadAll(ctx context.Context, identifier string) (*models.StoredObject, []byte, error) {
	object, reader, err := s.Open(ctx, identifier)
	if err != nil {
		return nil, nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read of %s: %v", ErrStorageFailure, identifier, err)
	}

	return object, data, nil
}
