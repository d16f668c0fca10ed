package posts

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wrenlab/folio-backend/api/common"
	"github.com/wrenlab/folio-backend/database/models"
	"github.com/wrenlab/folio-backend/database/repo/posts"
	"github.com/wrenlab/folio-backend/internal/lifecycle"
	"github.com/wrenlab/folio-backend/internal/object"
	"gorm.io/gorm"
)

// Handler 文章接口处理器
// 图片字段全部经由生命周期服务写入，保证换图先建后删。
type Handler struct {
	posts     *posts.Repository
	lifecycle *lifecycle.Service
}

// NewHandler 创建文章处理器
func NewHandler(postsRepo *posts.Repository, lifecycleSvc *lifecycle.Service) *Handler {
	return &Handler{
		posts:     postsRepo,
		lifecycle: lifecycleSvc,
	}
}

// postView 文章的响应视图
type postView struct {
	ID               uint   `json:"id"`
	Title            string `json:"title"`
	Slug             string `json:"slug"`
	Body             string `json:"body"`
	ImageURL         string `json:"imageUrl,omitempty"`
	ImageIsExternal  bool   `json:"imageIsExternal"`
	ImageFileName    string `json:"imageFileName,omitempty"`
	ImageContentType string `json:"imageContentType,omitempty"`
	Published        bool   `json:"published"`
	CreatedAt        string `json:"createdAt"`
	UpdatedAt        string `json:"updatedAt"`
}

func viewOf(post *models.Post) postView {
	return postView{
		ID:               post.ID,
		Title:            post.Title,
		Slug:             post.Slug,
		Body:             post.Body,
		ImageURL:         post.ImageURL,
		ImageIsExternal:  post.ImageIsExternal,
		ImageFileName:    post.ImageFileName,
		ImageContentType: post.ImageContentType,
		Published:        post.Published,
		CreatedAt:        post.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:        post.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// imageInputFrom 从 multipart 表单提取图片输入
// 返回 (input, present, error)：present 为 false 表示本次请求不改动图片。
func imageInputFrom(c *gin.Context) (object.UploadInput, bool, error) {
	input := object.UploadInput{}

	externalURL := c.PostForm("externalUrl")
	if externalURL == "" {
		externalURL = c.PostForm("imageUrl")
	}
	if externalURL != "" {
		input.ExternalURL = externalURL
		return input, true, nil
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return input, false, nil
	}

	file, err := fileHeader.Open()
	if err != nil {
		return input, false, err
	}

	input.Payload = file
	input.DeclaredName = fileHeader.Filename
	input.DeclaredContentType = fileHeader.Header.Get("Content-Type")
	input.DeclaredSize = fileHeader.Size
	return input, true, nil
}

// imageErrorStatus 图片管道错误对应的状态码
func imageErrorStatus(err error) int {
	switch {
	case errors.Is(err, object.ErrPayloadTooLarge),
		errors.Is(err, object.ErrUnsupportedMediaType),
		errors.Is(err, object.ErrMissingPayload),
		errors.Is(err, object.ErrInvalidURL):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// imageErrorMessage 图片管道错误的对外文案，存储错误不泄露内部细节
func imageErrorMessage(err error) string {
	switch {
	case errors.Is(err, object.ErrPayloadTooLarge):
		return "payload exceeds maximum allowed size"
	case errors.Is(err, object.ErrUnsupportedMediaType):
		return "unsupported media type"
	case errors.Is(err, object.ErrMissingPayload):
		return "no file or external url supplied"
	case errors.Is(err, object.ErrInvalidURL):
		return "invalid external url"
	default:
		return "failed to store image"
	}
}

// CreatePost 创建文章，可同时携带图片（二进制或外部 URL）
func (h *Handler) CreatePost(c *gin.Context) {
	title := c.PostForm("title")
	slug := c.PostForm("slug")
	if title == "" || slug == "" {
		common.RespondError(c, http.StatusBadRequest, "title and slug are required")
		return
	}

	post := &models.Post{
		Title:     title,
		Slug:      slug,
		Body:      c.PostForm("body"),
		Published: c.PostForm("published") == "true",
	}

	ctx := c.Request.Context()
	if err := h.posts.Create(ctx, post); err != nil {
		log.Printf("Failed to create post '%s': %v", slug, err)
		common.RespondError(c, http.StatusInternalServerError, "failed to create post")
		return
	}

	input, present, err := imageInputFrom(c)
	if err != nil {
		common.RespondError(c, http.StatusInternalServerError, "failed to read uploaded file")
		return
	}
	if present {
		if closer, ok := input.Payload.(interface{ Close() error }); ok {
			defer closer.Close()
		}
		if _, err := h.lifecycle.ReplaceImage(ctx, post, input); err != nil {
			status := imageErrorStatus(err)
			if status == http.StatusInternalServerError {
				log.Printf("Failed to store image of post %d: %v", post.ID, err)
			}
			common.RespondError(c, status, imageErrorMessage(err))
			return
		}
	}

	common.RespondSuccess(c, viewOf(post))
}

// ListPosts 分页列出文章
func (h *Handler) ListPosts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	items, total, err := h.posts.List(c.Request.Context(), page, pageSize)
	if err != nil {
		log.Printf("Failed to list posts: %v", err)
		common.RespondError(c, http.StatusInternalServerError, "failed to list posts")
		return
	}

	views := make([]postView, 0, len(items))
	for _, post := range items {
		views = append(views, viewOf(post))
	}

	common.RespondSuccess(c, gin.H{
		"items":    views,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

// GetPost 按 ID 查询文章
func (h *Handler) GetPost(c *gin.Context) {
	post, ok := h.findPost(c)
	if !ok {
		return
	}
	common.RespondSuccess(c, viewOf(post))
}

// UpdatePost 更新文章；可换图（新引用建立后旧对象才删除）或摘除图片
func (h *Handler) UpdatePost(c *gin.Context) {
	post, ok := h.findPost(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()

	if title := c.PostForm("title"); title != "" {
		post.Title = title
	}
	if slug := c.PostForm("slug"); slug != "" {
		post.Slug = slug
	}
	if body, exists := c.GetPostForm("body"); exists {
		post.Body = body
	}
	if published, exists := c.GetPostForm("published"); exists {
		post.Published = published == "true"
	}

	if err := h.posts.Update(ctx, post); err != nil {
		log.Printf("Failed to update post %d: %v", post.ID, err)
		common.RespondError(c, http.StatusInternalServerError, "failed to update post")
		return
	}

	if c.PostForm("removeImage") == "true" {
		if err := h.lifecycle.RemoveImage(ctx, post); err != nil {
			log.Printf("Failed to remove image of post %d: %v", post.ID, err)
			common.RespondError(c, http.StatusInternalServerError, "failed to remove image")
			return
		}
		common.RespondSuccess(c, viewOf(post))
		return
	}

	input, present, err := imageInputFrom(c)
	if err != nil {
		common.RespondError(c, http.StatusInternalServerError, "failed to read uploaded file")
		return
	}
	if present {
		if closer, ok := input.Payload.(interface{ Close() error }); ok {
			defer closer.Close()
		}
		if _, err := h.lifecycle.ReplaceImage(ctx, post, input); err != nil {
			status := imageErrorStatus(err)
			if status == http.StatusInternalServerError {
				log.Printf("Failed to store image of post %d: %v", post.ID, err)
			}
			common.RespondError(c, status, imageErrorMessage(err))
			return
		}
	}

	common.RespondSuccess(c, viewOf(post))
}

// DeletePost 删除文章并回收其自有图片对象
func (h *Handler) DeletePost(c *gin.Context) {
	post, ok := h.findPost(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.posts.Delete(ctx, post); err != nil {
		log.Printf("Failed to delete post %d: %v", post.ID, err)
		common.RespondError(c, http.StatusInternalServerError, "failed to delete post")
		return
	}

	h.lifecycle.OwnerDeleted(ctx, post)

	common.RespondSuccessMessage(c, "post deleted", nil)
}

// GetPostBySlug 公共接口：按 slug 查询已发布文章
func (h *Handler) GetPostBySlug(c *gin.Context) {
	slug := c.Param("slug")

	post, err := h.posts.GetBySlug(c.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.RespondError(c, http.StatusNotFound, "post not found")
			return
		}
		log.Printf("Failed to load post '%s': %v", slug, err)
		common.RespondError(c, http.StatusInternalServerError, "failed to load post")
		return
	}
	if !post.Published {
		common.RespondError(c, http.StatusNotFound, "post not found")
		return
	}

	common.RespondSuccess(c, viewOf(post))
}

// findPost 解析路径中的文章 ID 并加载记录
func (h *Handler) findPost(c *gin.Context) (*models.Post, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid post id")
		return nil, false
	}

	post, err := h.posts.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.RespondError(c, http.StatusNotFound, "post not found")
			return nil, false
		}
		log.Printf("Failed to load post %d: %v", id, err)
		common.RespondError(c, http.StatusInternalServerError, "failed to load post")
		return nil, false
	}

	return post, true
}
