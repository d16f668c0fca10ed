package objects

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wrenlab/folio-backend/internal/object"
)

// uploadResponse 上传成功的响应
type uploadResponse struct {
	ImageURL   string `json:"imageUrl"`
	FileID     string `json:"fileId,omitempty"`
	IsExternal bool   `json:"isExternal"`
}

// UploadObject 处理对象上传
// 接受 multipart 二进制字段 image 或表单字段 externalUrl/imageUrl，
// 外部 URL 存在时优先，二进制负载被忽略。
func (h *Handler) UploadObject(c *gin.Context) {
	input := object.UploadInput{}

	externalURL := c.PostForm("externalUrl")
	if externalURL == "" {
		externalURL = c.PostForm("imageUrl")
	}
	input.ExternalURL = externalURL

	if externalURL == "" {
		fileHeader, err := c.FormFile("image")
		if err != nil {
			respondError(c, http.StatusBadRequest, "no file or external url supplied")
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			log.Printf("Failed to open uploaded file '%s': %v", fileHeader.Filename, err)
			respondError(c, http.StatusInternalServerError, "internal storage error")
			return
		}
		defer file.Close()

		input.Payload = file
		input.DeclaredName = fileHeader.Filename
		input.DeclaredContentType = fileHeader.Header.Get("Content-Type")
		input.DeclaredSize = fileHeader.Size
	}

	ref, err := h.objects.Resolve(c.Request.Context(), input)
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			log.Printf("Object upload failed: %v", err)
		}
		respondError(c, status, messageForError(err))
		return
	}

	resp := uploadResponse{
		ImageURL:   ref.URL(),
		IsExternal: ref.IsExternal(),
	}
	if id, ok := ref.ObjectID(); ok {
		resp.FileID = id
	}

	c.JSON(http.StatusOK, resp)
}
