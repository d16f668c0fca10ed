package object

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wrenlab/folio-backend/database/models"
	"github.com/wrenlab/folio-backend/storage/chunkstore"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupService 创建基于内存数据库的对象服务
func setupService(t *testing.T, maxPayloadBytes int64) (*Service, *gorm.DB) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.StoredObject{}, &models.ObjectChunk{}))

	store := chunkstore.New(db, chunkstore.WithChunkSize(64))
	return NewService(store, nil, maxPayloadBytes), db
}

// pngPayload 带 PNG 文件头的负载，嗅探结果为 image/png
func pngPayload(size int) []byte {
	signature := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	payload := make([]byte, size)
	copy(payload, signature)
	for i := len(signature); i < size; i++ {
		payload[i] = byte(i % 251)
	}
	return payload
}

func objectCount(t *testing.T, db *gorm.DB) int64 {
	var count int64
	require.NoError(t, db.Model(&models.StoredObject{}).Count(&count).Error)
	return count
}

func TestIngestRoundTrip(t *testing.T) {
	svc, _ := setupService(t, 0)
	payload := pngPayload(2000)

	ref, err := svc.Ingest(context.Background(), bytes.NewReader(payload), "photo.png", "image/png", int64(len(payload)))
	require.NoError(t, err)

	id, ok := ref.ObjectID()
	require.True(t, ok)
	assert.True(t, IsValidIdentifier(id))
	assert.False(t, ref.IsExternal())
	assert.Equal(t, "/objects/"+id, ref.URL())
	assert.Equal(t, "image/png", ref.ContentType())

	meta, reader, err := svc.Open(context.Background(), id)
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, "image/png", meta.ContentType)
	assert.Equal(t, int64(len(payload)), meta.SizeBytes)

	got, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestIngestDeclaredSizeTooLarge(t *testing.T) {
	svc, db := setupService(t, 1024)

	_, err := svc.Ingest(context.Background(), bytes.NewReader(pngPayload(10)), "big.png", "image/png", 2048)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
	assert.Zero(t, objectCount(t, db))
}

func TestIngestActualSizeTooLarge(t *testing.T) {
	svc, db := setupService(t, 1024)

	// 声明的大小撒谎，实测超限
	_, err := svc.Ingest(context.Background(), bytes.NewReader(pngPayload(4096)), "liar.png", "image/png", 100)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
	assert.Zero(t, objectCount(t, db))
}

func TestIngestDisallowedDeclaredType(t *testing.T) {
	svc, db := setupService(t, 0)

	_, err := svc.Ingest(context.Background(), bytes.NewReader(pngPayload(100)), "doc.pdf", "application/pdf", 100)
	assert.ErrorIs(t, err, ErrUnsupportedMediaType)
	assert.Zero(t, objectCount(t, db))
}

func TestIngestSniffRejectsNonImage(t *testing.T) {
	svc, db := setupService(t, 0)

	// 声明类型合法但内容不是图片
	payload := []byte("plain text pretending to be an image")
	_, err := svc.Ingest(context.Background(), bytes.NewReader(payload), "fake.png", "image/png", int64(len(payload)))
	assert.ErrorIs(t, err, ErrUnsupportedMediaType)
	assert.Zero(t, objectCount(t, db))
}

func TestIngestNilPayload(t *testing.T) {
	svc, _ := setupService(t, 0)

	_, err := svc.Ingest(context.Background(), nil, "x.png", "image/png", 0)
	assert.ErrorIs(t, err, ErrMissingPayload)
}

func TestIngestSameNameConcurrentlyProducesDistinctObjects(t *testing.T) {
	// 并发写事务需要真实文件库，内存共享缓存库会直接报表锁冲突
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", filepath.Join(t.TempDir(), "objects.db"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.StoredObject{}, &models.ObjectChunk{}))
	svc := NewService(chunkstore.New(db, chunkstore.WithChunkSize(64)), nil, 0)

	refs := make([]ImageRef, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			refs[i], errs[i] = svc.Ingest(context.Background(), bytes.NewReader(pngPayload(100)), "a.png", "image/png", 100)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	id1, _ := refs[0].ObjectID()
	id2, _ := refs[1].ObjectID()
	assert.NotEqual(t, id1, id2)

	for _, id := range []string{id1, id2} {
		_, reader, err := svc.Open(context.Background(), id)
		require.NoError(t, err)
		reader.Close()
	}
}

func TestIngestCancelledContextLeavesNothing(t *testing.T) {
	svc, db := setupService(t, 0)

	ctx, cancel := context.WithCancel(context.Background())
	payload := pngPayload(4000)
	// 文件头读完后取消，模拟客户端中途断开
	reader := io.MultiReader(
		bytes.NewReader(payload[:512]),
		readerFunc(func(p []byte) (int, error) {
			cancel()
			return 0, io.EOF
		}),
	)

	_, err := svc.Ingest(ctx, reader, "gone.png", "image/png", int64(len(payload)))
	assert.Error(t, err)
	assert.Zero(t, objectCount(t, db))
}

type readerFunc func(p []byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }

func TestResolveExternalURLWins(t *testing.T) {
	svc, db := setupService(t, 0)

	// 同时给出外部 URL 和二进制负载时外部 URL 生效
	ref, err := svc.Resolve(context.Background(), UploadInput{
		ExternalURL:         "https://example.com/x.jpg",
		Payload:             bytes.NewReader(pngPayload(100)),
		DeclaredName:        "x.jpg",
		DeclaredContentType: "image/jpeg",
		DeclaredSize:        100,
	})
	require.NoError(t, err)

	assert.True(t, ref.IsExternal())
	assert.Equal(t, "https://example.com/x.jpg", ref.URL())
	_, ok := ref.ObjectID()
	assert.False(t, ok)
	assert.Zero(t, objectCount(t, db))
}

func TestResolveMissingInput(t *testing.T) {
	svc, _ := setupService(t, 0)

	_, err := svc.Resolve(context.Background(), UploadInput{})
	assert.ErrorIs(t, err, ErrMissingPayload)
}

func TestResolveExternalRejectsInvalidURLs(t *testing.T) {
	svc, _ := setupService(t, 0)

	for _, raw := range []string{
		"",
		"not a url",
		"/relative/path.jpg",
		"ftp://example.com/x.jpg",
		"https://",
	} {
		_, err := svc.ResolveExternal(raw)
		assert.ErrorIs(t, err, ErrInvalidURL, "url: %q", raw)
	}
}

func TestFindMetadataInvalidIdentifier(t *testing.T) {
	svc, _ := setupService(t, 0)

	for _, id := range []string{"", "short", "0123456789ABCDEF0123456789ABCDEF"} {
		_, err := svc.FindMetadata(context.Background(), id)
		assert.ErrorIs(t, err, ErrInvalidIdentifier, "identifier: %q", id)
	}
}

func TestFindMetadataUnknownIdentifier(t *testing.T) {
	svc, _ := setupService(t, 0)

	_, err := svc.FindMetadata(context.Background(), "0123456789abcdef0123456789abcdef")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteIsIdempotent(t *testing.T) {
	svc, _ := setupService(t, 0)

	ref, err := svc.Ingest(context.Background(), bytes.NewReader(pngPayload(100)), "d.png", "image/png", 100)
	require.NoError(t, err)
	id, _ := ref.ObjectID()

	require.NoError(t, svc.Delete(context.Background(), id))

	_, err = svc.FindMetadata(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)

	// 再删一次仍然成功
	assert.NoError(t, svc.Delete(context.Background(), id))
}

func TestDeleteInvalidIdentifier(t *testing.T) {
	svc, _ := setupService(t, 0)

	assert.ErrorIs(t, svc.Delete(context.Background(), "not-an-id"), ErrInvalidIdentifier)
}
