package object

import (
	"strings"

	"github.com/google/uuid"
)

// identifierLength 标识符长度：UUIDv4 去掉连字符后的 32 个十六进制字符
const identifierLength = 32

// NewIdentifier 生成新的对象标识符
// 标识符与客户端文件名无关，并发上传同名文件不会冲突。
func NewIdentifier() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// IsValidIdentifier 校验标识符语法
// 在任何存储查询之前调用，格式错误的请求不产生存储 I/O。
func IsValidIdentifier(identifier string) bool {
	if len(identifier) != identifierLength {
		return false
	}
	for _, r := range identifier {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')) {
			return false
		}
	}
	return true
}

// mimeToExtMap MIME 类型到安全扩展名的映射
var mimeToExtMap = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// NewStorageName 为对象生成唯一存储文件名
// 只取内容类型对应的安全扩展名，不信任客户端文件名。
func NewStorageName(identifier, contentType string) string {
	ext := mimeToExtMap[normalizeContentType(contentType)]
	return identifier + ext
}

// normalizeContentType 去掉 MIME 参数并统一小写
func normalizeContentType(contentType string) string {
	contentType = strings.Split(contentType, ";")[0]
	return strings.ToLower(strings.TrimSpace(contentType))
}
