package objects

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// DeleteObject 删除对象
// 幂等：对象不存在时同样返回成功。
func (h *Handler) DeleteObject(c *gin.Context) {
	identifier := c.Param("identifier")

	if err := h.objects.Delete(c.Request.Context(), identifier); err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			log.Printf("Object delete failed for '%s': %v", identifier, err)
		}
		respondError(c, status, messageForError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
