package objects

import (
	"context"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wrenlab/folio-backend/database/models"
	"github.com/wrenlab/folio-backend/utils"
	"github.com/wrenlab/folio-backend/utils/pool"
)

// 对象内容不可变，标识符唯一对应一份字节序列，可长期缓存
const immutableCacheControl = "public, max-age=31536000"

// GetObject 取回对象内容
// 小对象走缓存快路径，未命中后整体读出并回填；大对象按分片流式输出。
func (h *Handler) GetObject(c *gin.Context) {
	identifier := c.Param("identifier")
	ctx := c.Request.Context()

	meta, err := h.objects.FindMetadata(ctx, identifier)
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			log.Printf("Object metadata lookup failed for '%s': %v", identifier, err)
		}
		respondError(c, status, messageForError(err))
		return
	}

	cacheable := h.cacheHelper.DataCachingEnabled() && meta.SizeBytes <= h.cacheHelper.MaxCacheableObjectSize()

	if cacheable {
		if data, cacheErr := h.cacheHelper.GetCachedObjectData(ctx, identifier); cacheErr == nil {
			writeObjectHeaders(c, meta)
			c.Data(http.StatusOK, contentTypeOf(meta), data)
			return
		}

		meta, data, err := h.objects.ReadAll(ctx, identifier)
		if err != nil {
			status := statusForError(err)
			if status == http.StatusInternalServerError {
				log.Printf("Object read failed for '%s': %v", identifier, err)
			}
			respondError(c, status, messageForError(err))
			return
		}

		utils.SafeGo(func() {
			if cacheErr := h.cacheHelper.CacheObjectData(context.Background(), identifier, data); cacheErr != nil {
				log.Printf("Failed to cache object data for '%s': %v", identifier, cacheErr)
			}
		})

		writeObjectHeaders(c, meta)
		c.Data(http.StatusOK, contentTypeOf(meta), data)
		return
	}

	meta, reader, err := h.objects.Open(ctx, identifier)
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			log.Printf("Object read failed for '%s': %v", identifier, err)
		}
		respondError(c, status, messageForError(err))
		return
	}
	defer reader.Close()

	writeObjectHeaders(c, meta)
	c.Header("Content-Type", contentTypeOf(meta))
	c.Status(http.StatusOK)

	buffer := pool.SharedBufferPool.Get().(*[]byte)
	defer pool.SharedBufferPool.Put(buffer)

	if _, err := io.CopyBuffer(c.Writer, reader, *buffer); err != nil {
		// 响应头已发出，只能记录
		log.Printf("Failed to stream object '%s': %v", identifier, err)
	}
}

// writeObjectHeaders 设置对象响应的公共头
func writeObjectHeaders(c *gin.Context, meta *models.StoredObject) {
	c.Header("Content-Length", strconv.FormatInt(meta.SizeBytes, 10))
	c.Header("Cache-Control", immutableCacheControl)
}

// contentTypeOf 对象的响应内容类型，缺失时退回二进制流
func contentTypeOf(meta *models.StoredObject) string {
	if meta.ContentType == "" {
		return "application/octet-stream"
	}
	return meta.ContentType
}
