package objects

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wrenlab/folio-backend/cache"
	"github.com/wrenlab/folio-backend/internal/object"
)

// Handler 对象存储接口处理器
type Handler struct {
	objects     *object.Service
	cacheHelper *cache.Helper
}

// NewHandler 创建对象处理器
func NewHandler(objects *object.Service, cacheHelper *cache.Helper) *Handler {
	return &Handler{
		objects:     objects,
		cacheHelper: cacheHelper,
	}
}

// respondError 对象接口的错误响应格式
func respondError(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, gin.H{"error": message})
}

// statusForError 把管道错误翻译成 HTTP 状态码
// 所有校验类错误统一返回 400。
func statusForError(err error) int {
	switch {
	case errors.Is(err, object.ErrPayloadTooLarge),
		errors.Is(err, object.ErrUnsupportedMediaType),
		errors.Is(err, object.ErrMissingPayload),
		errors.Is(err, object.ErrInvalidURL),
		errors.Is(err, object.ErrInvalidIdentifier):
		return http.StatusBadRequest
	case errors.Is(err, object.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// messageForError 对外的错误文案，存储错误不泄露内部细节
func messageForError(err error) string {
	switch {
	case errors.Is(err, object.ErrPayloadTooLarge):
		return "payload exceeds maximum allowed size"
	case errors.Is(err, object.ErrUnsupportedMediaType):
		return "unsupported media type"
	case errors.Is(err, object.ErrMissingPayload):
		return "no file or external url supplied"
	case errors.Is(err, object.ErrInvalidURL):
		return "invalid external url"
	case errors.Is(err, object.ErrInvalidIdentifier):
		return "invalid object identifier"
	case errors.Is(err, object.ErrNotFound):
		return "object not found"
	default:
		return "internal storage error"
	}
}
