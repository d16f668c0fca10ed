package object

import (
	"context"
	"io"
	"net/url"
)

// UploadInput 一次图片提交的两种输入模式
// ExternalURL 非空时优先生效，二进制负载被忽略（先检查者获胜）。
type UploadInput struct {
	ExternalURL string

	Payload             io.Reader
	DeclaredName        string
	DeclaredContentType string
	DeclaredSize        int64
}

// ResolveExternal 把外部 URL 解析为外部引用
// 不触碰分片存储，也不做大小/类型校验：本系统不抓取外部内容。
func (s *Service) ResolveExternal(rawURL string) (ImageRef, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ImageRef{}, ErrInvalidURL
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return ImageRef{}, ErrInvalidURL
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ImageRef{}, ErrInvalidURL
	}

	return ExternalRef(parsed.String()), nil
}

// Resolve 按优先级处理一次图片提交
// 外部 URL 短路摄取管道；两者都缺席时报 ErrMissingPayload。
func (s *Service) Resolve(ctx context.Context, input UploadInput) (ImageRef, error) {
	if input.ExternalURL != "" {
		return s.ResolveExternal(input.ExternalURL)
	}

	if input.Payload == nil {
		return ImageRef{}, ErrMissingPayload
	}

	return s.Ingest(ctx, input.Payload, input.DeclaredName, input.DeclaredContentType, input.DeclaredSize)
}
