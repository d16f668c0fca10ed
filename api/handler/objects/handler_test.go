package objects

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wrenlab/folio-backend/database/models"
	"github.com/wrenlab/folio-backend/internal/object"
	"github.com/wrenlab/folio-backend/storage/chunkstore"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupRouter 创建接入真实对象服务的测试路由
func setupRouter(t *testing.T, maxPayloadBytes int64) *gin.Engine {
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.StoredObject{}, &models.ObjectChunk{}))

	store := chunkstore.New(db, chunkstore.WithChunkSize(64))
	svc := object.NewService(store, nil, maxPayloadBytes)
	handler := NewHandler(svc, nil)

	router := gin.New()
	router.POST("/objects", handler.UploadObject)
	router.GET("/objects/:identifier", handler.GetObject)
	router.DELETE("/objects/:identifier", handler.DeleteObject)
	return router
}

func pngBytes(size int) []byte {
	signature := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	payload := make([]byte, size)
	copy(payload, signature)
	return payload
}

// multipartImage 构造带图片文件的 multipart 请求体
func multipartImage(t *testing.T, fileName string, data []byte, extraFields map[string]string) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, fileName))
	header.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)

	for key, value := range extraFields {
		require.NoError(t, writer.WriteField(key, value))
	}

	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func doRequest(router *gin.Engine, method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, body)
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadBinaryPayload(t *testing.T) {
	router := setupRouter(t, 0)

	body, contentType := multipartImage(t, "photo.png", pngBytes(300), nil)
	w := doRequest(router, "POST", "/objects", body, contentType)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	fileID, _ := resp["fileId"].(string)
	assert.True(t, object.IsValidIdentifier(fileID))
	assert.Equal(t, "/objects/"+fileID, resp["imageUrl"])
	assert.Equal(t, false, resp["isExternal"])
}

func TestUploadExternalURL(t *testing.T) {
	router := setupRouter(t, 0)

	form := url.Values{"externalUrl": {"https://example.com/x.jpg"}}
	body := bytes.NewBufferString(form.Encode())
	w := doRequest(router, "POST", "/objects", body, "application/x-www-form-urlencoded")

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "https://example.com/x.jpg", resp["imageUrl"])
	assert.Equal(t, true, resp["isExternal"])
	_, hasFileID := resp["fileId"]
	assert.False(t, hasFileID)
}

func TestUploadExternalURLWinsOverBinary(t *testing.T) {
	router := setupRouter(t, 0)

	body, contentType := multipartImage(t, "x.png", pngBytes(100), map[string]string{
		"externalUrl": "https://example.com/x.jpg",
	})
	w := doRequest(router, "POST", "/objects", body, contentType)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["isExternal"])
	assert.Equal(t, "https://example.com/x.jpg", resp["imageUrl"])
}

func TestUploadMissingInput(t *testing.T) {
	router := setupRouter(t, 0)

	form := url.Values{"unrelated": {"field"}}
	body := bytes.NewBufferString(form.Encode())
	w := doRequest(router, "POST", "/objects", body, "application/x-www-form-urlencoded")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestUploadOversizePayload(t *testing.T) {
	router := setupRouter(t, 1024)

	body, contentType := multipartImage(t, "big.png", pngBytes(4096), nil)
	w := doRequest(router, "POST", "/objects", body, contentType)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["error"])
}

func TestUploadInvalidExternalURL(t *testing.T) {
	router := setupRouter(t, 0)

	form := url.Values{"externalUrl": {"ftp://example.com/x.jpg"}}
	body := bytes.NewBufferString(form.Encode())
	w := doRequest(router, "POST", "/objects", body, "application/x-www-form-urlencoded")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetObjectRoundTrip(t *testing.T) {
	router := setupRouter(t, 0)

	payload := pngBytes(500)
	body, contentType := multipartImage(t, "photo.png", payload, nil)
	w := doRequest(router, "POST", "/objects", body, contentType)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	fileID := resp["fileId"].(string)

	get := doRequest(router, "GET", "/objects/"+fileID, nil, "")
	require.Equal(t, http.StatusOK, get.Code)
	assert.Equal(t, "image/png", get.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=31536000", get.Header().Get("Cache-Control"))
	assert.Equal(t, payload, get.Body.Bytes())
}

func TestGetObjectInvalidIdentifier(t *testing.T) {
	router := setupRouter(t, 0)

	w := doRequest(router, "GET", "/objects/not-a-valid-id", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetObjectNotFound(t *testing.T) {
	router := setupRouter(t, 0)

	w := doRequest(router, "GET", "/objects/0123456789abcdef0123456789abcdef", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteObjectIdempotent(t *testing.T) {
	router := setupRouter(t, 0)

	body, contentType := multipartImage(t, "photo.png", pngBytes(100), nil)
	w := doRequest(router, "POST", "/objects", body, contentType)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	fileID := resp["fileId"].(string)

	del := doRequest(router, "DELETE", "/objects/"+fileID, nil, "")
	assert.Equal(t, http.StatusOK, del.Code)

	// 已删除的对象再删一次依旧成功
	del = doRequest(router, "DELETE", "/objects/"+fileID, nil, "")
	assert.Equal(t, http.StatusOK, del.Code)

	get := doRequest(router, "GET", "/objects/"+fileID, nil, "")
	assert.Equal(t, http.StatusNotFound, get.Code)
}
