package posts

import (
	"context"

	"github.com/wrenlab/folio-backend/database/models"
	"gorm.io/gorm"
)

// Repository 文章仓库
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建新的文章仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create 创建文章
func (r *Repository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

// GetByID 通过 ID 获取文章
func (r *Repository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).First(&post, id).Error
	return &post, err
}

// GetBySlug 通过 slug 获取文章
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&post).Error
	return &post, err
}

// List 分页获取文章列表
func (r *Repository) List(ctx context.Context, page, pageSize int) ([]*models.Post, int64, error) {
	var posts []*models.Post
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Post{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := db.Order("created_at desc").Offset(offset).Limit(pageSize).Find(&posts).Error
	return posts, total, err
}

// Update 保存文章
func (r *Repository) Update(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Save(post).Error
}

// UpdateImageFields 只更新文章的图片引用字段
func (r *Repository) UpdateImageFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete 删除文章
func (r *Repository) Delete(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Delete(post).Error
}

// CountReferencingObject 统计引用指定对象的文章数
func (r *Repository) CountReferencingObject(ctx context.Context, identifier string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("image_object_id = ? AND image_is_external = ?", identifier, false).
		Count(&count).Error
	return count, err
}

// ListReferencedObjectIDs 返回全部被文章引用的对象标识符
func (r *Repository) ListReferencedObjectIDs(ctx context.Context) ([]string, error) {
	var identifiers []string
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("image_object_id <> '' AND image_is_external = ?", false).
		Distinct().Pluck("image_object_id", &identifiers).Error
	return identifiers, err
}
