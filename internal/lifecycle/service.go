package lifecycle

import (
	"context"
	"fmt"
	"log"

	"github.com/wrenlab/folio-backend/database/models"
	"github.com/wrenlab/folio-backend/database/repo/posts"
	"github.com/wrenlab/folio-backend/internal/object"
)

// Service 对象生命周期管理
// 把存储对象的创建和删除绑定到属主记录的图片字段上：换图先建新引用
// 再删旧对象，外部引用永远不触发删除。
type Service struct {
	objects *object.Service
	posts   *posts.Repository
}

// NewService 创建生命周期服务
func NewService(objects *object.Service, postsRepo *posts.Repository) *Service {
	return &Service{
		objects: objects,
		posts:   postsRepo,
	}
}

// ReplaceImage 替换属主记录的图片
// 新引用建立成功之前旧对象不动；新输入摄取失败时记录保持原状。
func (s *Service) ReplaceImage(ctx context.Context, post *models.Post, input object.UploadInput) (object.ImageRef, error) {
	newRef, err := s.objects.Resolve(ctx, input)
	if err != nil {
		return object.ImageRef{}, err
	}

	oldOwnedID := ""
	if post.HasOwnedImage() {
		oldOwnedID = post.ImageObjectID
	}

	if err := s.posts.UpdateImageFields(ctx, post.ID, imageFields(newRef)); err != nil {
		// 新引用落库失败：清理刚摄取的对象，记录保持原状
		if id, ok := newRef.ObjectID(); ok {
			if cleanupErr := s.objects.Delete(ctx, id); cleanupErr != nil {
				log.Printf("Failed to clean up object %s after reference update failure: %v", id, cleanupErr)
			}
		}
		return object.ImageRef{}, fmt.Errorf("failed to update image reference: %w", err)
	}

	applyRef(post, newRef)

	// 旧对象在新引用建立之后删除；删除失败只记日志，不影响已完成的替换
	if oldOwnedID != "" {
		if err := s.objects.Delete(ctx, oldOwnedID); err != nil {
			log.Printf("Failed to delete replaced object %s for post %d: %v", oldOwnedID, post.ID, err)
		}
	}

	return newRef, nil
}

// RemoveImage 移除属主记录的图片（不设置新图）
func (s *Service) RemoveImage(ctx context.Context, post *models.Post) error {
	oldOwnedID := ""
	if post.HasOwnedImage() {
		oldOwnedID = post.ImageObjectID
	}

	if err := s.posts.UpdateImageFields(ctx, post.ID, imageFields(object.ImageRef{})); err != nil {
		return fmt.Errorf("failed to clear image reference: %w", err)
	}

	applyRef(post, object.ImageRef{})

	if oldOwnedID != "" {
		if err := s.objects.Delete(ctx, oldOwnedID); err != nil {
			log.Printf("Failed to delete removed object %s for post %d: %v", oldOwnedID, post.ID, err)
		}
	}

	return nil
}

// OwnerDeleted 属主记录被删除后的对象清理（best-effort）
func (s *Service) OwnerDeleted(ctx context.Context, post *models.Post) {
	if !post.HasOwnedImage() {
		return
	}
	if err := s.objects.Delete(ctx, post.ImageObjectID); err != nil {
		log.Printf("Failed to delete object %s of deleted post %d: %v", post.ImageObjectID, post.ID, err)
	}
}

// imageFields 把图片引用展开为文章的存储字段
func imageFields(ref object.ImageRef) map[string]interface{} {
	fields := map[string]interface{}{
		"image_url":          ref.URL(),
		"image_object_id":    "",
		"image_is_external":  ref.IsExternal(),
		"image_file_name":    ref.FileName(),
		"image_content_type": ref.ContentType(),
	}
	if id, ok := ref.ObjectID(); ok {
		fields["image_object_id"] = id
	}
	return fields
}

// applyRef 同步内存中的文章结构
func applyRef(post *models.Post, ref object.ImageRef) {
	post.ImageURL = ref.URL()
	post.ImageIsExternal = ref.IsExternal()
	post.ImageFileName = ref.FileName()
	post.ImageContentType = ref.ContentType()
	if id, ok := ref.ObjectID(); ok {
		post.ImageObjectID = id
	} else {
		post.ImageObjectID = ""
	}
}
