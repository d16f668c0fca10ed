package object

import "fmt"

// refKind ImageRef 的变体标签
type refKind int8

const (
	refNone refKind = iota
	refOwned
	refExternal
)

// ImageRef 图片引用：自有存储对象或外部 URL，两者严格互斥
// 零值表示"未设置"。
type ImageRef struct {
	kind refKind
	id   string
	url  string

	fileName    string
	contentType string
}

// OwnedRef 构造指向自有存储对象的引用
func OwnedRef(identifier, fileName, contentType string) ImageRef {
	return ImageRef{
		kind:        refOwned,
		id:          identifier,
		url:         fmt.Sprintf("/objects/%s", identifier),
		fileName:    fileName,
		contentType: contentType,
	}
}

// ExternalRef 构造指向外部 URL 的引用
func ExternalRef(url string) ImageRef {
	return ImageRef{
		kind: refExternal,
		url:  url,
	}
}

// IsZero 是否未设置
func (r ImageRef) IsZero() bool {
	return r.kind == refNone
}

// IsExternal 是否为外部引用
func (r ImageRef) IsExternal() bool {
	return r.kind == refExternal
}

// URL 返回取用地址（自有对象为 /objects/{id}，外部引用为原始 URL）
func (r ImageRef) URL() string {
	return r.url
}

// ObjectID 返回自有对象标识符；外部引用或未设置时 ok 为 false
func (r ImageRef) ObjectID() (string, bool) {
	if r.kind != refOwned {
		return "", false
	}
	return r.id, true
}

// FileName 自有对象的生成文件名
func (r ImageRef) FileName() string {
	return r.fileName
}

// ContentType 自有对象的内容类型
func (r ImageRef) ContentType() string {
	return r.contentType
}
