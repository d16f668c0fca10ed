package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wrenlab/folio-backend/cache/memory"
	"github.com/wrenlab/folio-backend/database/models"
)

func TestMemoryProviderSetGet(t *testing.T) {
	provider := memory.New(0)
	defer provider.Close()

	ctx := context.Background()
	require.NoError(t, provider.Set(ctx, "key", "value", time.Minute))

	var got string
	require.NoError(t, provider.Get(ctx, "key", &got))
	assert.Equal(t, "value", got)
}

func TestMemoryProviderMiss(t *testing.T) {
	provider := memory.New(0)
	defer provider.Close()

	var got string
	err := provider.Get(context.Background(), "absent", &got)
	assert.True(t, IsCacheMiss(err))
}

func TestMemoryProviderExpiration(t *testing.T) {
	provider := memory.New(0)
	defer provider.Close()

	ctx := context.Background()
	require.NoError(t, provider.Set(ctx, "ephemeral", "value", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	var got string
	err := provider.Get(ctx, "ephemeral", &got)
	assert.True(t, IsCacheMiss(err))
}

func TestMemoryProviderDelete(t *testing.T) {
	provider := memory.New(0)
	defer provider.Close()

	ctx := context.Background()
	require.NoError(t, provider.Set(ctx, "key", "value", time.Minute))
	require.NoError(t, provider.Delete(ctx, "key"))

	exists, err := provider.Exists(ctx, "key")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestHelperObjectMetaRoundTrip(t *testing.T) {
	provider := memory.New(0)
	defer provider.Close()
	helper := NewHelper(provider)

	object := &models.StoredObject{
		Identifier:  "0123456789abcdef0123456789abcdef",
		StorageName: "0123456789abcdef0123456789abcdef.png",
		ContentType: "image/png",
		SizeBytes:   1234,
		ChunkCount:  1,
	}

	ctx := context.Background()
	require.NoError(t, helper.CacheObjectMeta(ctx, object))

	var got models.StoredObject
	require.NoError(t, helper.GetCachedObjectMeta(ctx, object.Identifier, &got))
	assert.Equal(t, object.Identifier, got.Identifier)
	assert.Equal(t, object.ContentType, got.ContentType)
	assert.Equal(t, object.SizeBytes, got.SizeBytes)
}

func TestHelperObjectDataRoundTrip(t *testing.T) {
	provider := memory.New(0)
	defer provider.Close()
	helper := NewHelper(provider)

	ctx := context.Background()
	data := []byte{0x89, 0x50, 0x4e, 0x47, 1, 2, 3}
	require.NoError(t, helper.CacheObjectData(ctx, "someidentifier", data))

	got, err := helper.GetCachedObjectData(ctx, "someidentifier")
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestHelperSkipsOversizeData(t *testing.T) {
	provider := memory.New(0)
	defer provider.Close()
	helper := NewHelper(provider, HelperConfig{
		MetaCacheTTL:           time.Minute,
		DataCacheTTL:           time.Minute,
		MaxCacheableObjectSize: 4,
		EnableDataCaching:      true,
	})

	ctx := context.Background()
	require.NoError(t, helper.CacheObjectData(ctx, "bigobject", []byte("way too large")))

	_, err := helper.GetCachedObjectData(ctx, "bigobject")
	assert.True(t, IsCacheMiss(err))
}

func TestHelperInvalidateObject(t *testing.T) {
	provider := memory.New(0)
	defer provider.Close()
	helper := NewHelper(provider)

	ctx := context.Background()
	object := &models.StoredObject{Identifier: "feedfacefeedfacefeedfacefeedface"}
	require.NoError(t, helper.CacheObjectMeta(ctx, object))
	require.NoError(t, helper.CacheObjectData(ctx, object.Identifier, []byte("data")))

	helper.InvalidateObject(ctx, object.Identifier)

	var meta models.StoredObject
	assert.True(t, IsCacheMiss(helper.GetCachedObjectMeta(ctx, object.Identifier, &meta)))
	_, err := helper.GetCachedObjectData(ctx, object.Identifier)
	assert.True(t, IsCacheMiss(err))
}

func TestNilHelperIsSafe(t *testing.T) {
	var helper *Helper

	ctx := context.Background()
	assert.NoError(t, helper.CacheObjectMeta(ctx, &models.StoredObject{}))
	assert.False(t, helper.DataCachingEnabled())

	var meta models.StoredObject
	assert.True(t, IsCacheMiss(helper.GetCachedObjectMeta(ctx, "x", &meta)))
	helper.InvalidateObject(ctx, "x")
}
