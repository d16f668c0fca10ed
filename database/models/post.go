package models

import "gorm.io/gorm"

// Post 博客文章（对象生命周期的属主记录）
// ImageObjectID 与 ImageIsExternal 互斥：外部图片只记录 URL，
// 自有图片记录对象标识符，两者不可同时成立。
type Post struct {
	gorm.Model
	Title string `gorm:"not null"`
	Slug  string `gorm:"uniqueIndex:idx_posts_slug;not null"`
	Body  string

	ImageURL         string
	ImageObjectID    string `gorm:"index:idx_posts_image_object"`
	ImageIsExternal  bool   `gorm:"default:false;not null"`
	ImageFileName    string
	ImageContentType string

	Published bool `gorm:"default:false;not null"`
}

// HasOwnedImage 当前是否引用自有存储对象
func (p *Post) HasOwnedImage() bool {
	return !p.ImageIsExternal && p.ImageObjectID != ""
}
