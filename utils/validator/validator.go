package validator

import (
	"net/http"
	"strings"
)

// allowedImageMimeTypes Allowed image types
var allowedImageMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// IsAllowedContentType 检查声明的内容类型是否在允许列表内
func IsAllowedContentType(contentType string) bool {
	contentType = strings.Split(contentType, ";")[0]
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	return allowedImageMimeTypes[contentType]
}

// IsImageBytes 通过文件头嗅探内容类型
// 返回是否为允许的图片类型及嗅探出的 MIME 类型。
func IsImageBytes(head []byte) (bool, string) {
	mimeType := http.DetectContentType(head)
	return allowedImageMimeTypes[mimeType], mimeType
}
