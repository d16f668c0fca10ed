package object

import "errors"

// 管道边界的错误分类
// 所有底层存储错误在管道内被翻译成这些类别，不向调用方泄露后端细节。
var (
	// ErrPayloadTooLarge 负载超过大小上限
	ErrPayloadTooLarge = errors.New("payload exceeds maximum allowed size")

	// ErrUnsupportedMediaType 内容类型不在允许列表内
	ErrUnsupportedMediaType = errors.New("unsupported media type")

	// ErrMissingPayload 既没有二进制负载也没有外部 URL
	ErrMissingPayload = errors.New("no payload or external url supplied")

	// ErrInvalidURL 外部 URL 不是合法的绝对 URL
	ErrInvalidURL = errors.New("invalid external url")

	// ErrInvalidIdentifier 标识符语法不合法（在任何存储查询之前检查）
	ErrInvalidIdentifier = errors.New("invalid object identifier")

	// ErrNotFound 标识符格式合法但对象不存在
	ErrNotFound = errors.New("object not found")

	// ErrStorageFailure 底层存储读写失败
	ErrStorageFailure = errors.New("storage failure")
)
