package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-orgs/backend/internal/middleware"
	"github.com/campus-orgs/backend/pkg/storage"
)

type fakeStore struct {
	uploaded map[string][]byte
	fail     bool
}

func (f *fakeStore) PublicObjectURL(key string) string {
	return "https://assets.example.edu/" + key
}

func (f *fakeStore) PresignUpload(_ context.Context, key, _ string) (string, error) {
	if f.fail {
		return "", errors.New("no credentials")
	}
	return "https://assets.example.edu/" + key + "?signed=1", nil
}

func (f *fakeStore) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	if f.fail {
		return "", errors.New("bucket unavailable")
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.uploaded[key] = b
	return f.PublicObjectURL(key), nil
}

func newTestRouter(store ObjectStore, maxBytes int64, caller uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(store, maxBytes, nil).Register(r.Group("/", func(c *gin.Context) {
		c.Set(middleware.ContextUserID, caller)
		c.Next()
	}))
	return r
}

func multipartRequest(t *testing.T, target, filename, contentType string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUpload(t *testing.T) {
	caller := uuid.New()
	store := &fakeStore{uploaded: map[string][]byte{}}
	r := newTestRouter(store, 1024, caller)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, "/uploads/logo", "club.png", "image/png", []byte("png-bytes")))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var body struct {
		Data struct {
			URL string `json:"url"`
			Key string `json:"key"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, storage.IsAssetKey(body.Data.Key, caller))
	assert.True(t, strings.HasPrefix(body.Data.Key, "organizations/logo/"+caller.String()+"/"))
	assert.True(t, strings.HasSuffix(body.Data.Key, ".png"))
	assert.Equal(t, "https://assets.example.edu/"+body.Data.Key, body.Data.URL)
	assert.Equal(t, []byte("png-bytes"), store.uploaded[body.Data.Key])
}

func TestUpload_Rejections(t *testing.T) {
	store := &fakeStore{uploaded: map[string][]byte{}}
	r := newTestRouter(store, 8, uuid.New())

	tests := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"unknown kind", multipartRequest(t, "/uploads/avatar", "a.png", "image/png", []byte("x")), http.StatusBadRequest},
		{"not an image", multipartRequest(t, "/uploads/logo", "a.pdf", "application/pdf", []byte("x")), http.StatusBadRequest},
		{"too large", multipartRequest(t, "/uploads/banner", "a.png", "image/png", []byte("0123456789")), http.StatusBadRequest},
		{"missing file", httptest.NewRequest(http.MethodPost, "/uploads/logo", nil), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, tt.req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
	assert.Empty(t, store.uploaded)
}

func TestUpload_StorageFailures(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter(nil, 0, uuid.New()).ServeHTTP(w,
		multipartRequest(t, "/uploads/logo", "a.png", "image/png", []byte("x")))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	newTestRouter(&fakeStore{fail: true}, 0, uuid.New()).ServeHTTP(w,
		multipartRequest(t, "/uploads/logo", "a.png", "image/png", []byte("x")))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPresign(t *testing.T) {
	caller := uuid.New()
	r := newTestRouter(&fakeStore{}, 0, caller)

	req := httptest.NewRequest(http.MethodPost, "/uploads/banner/presign",
		strings.NewReader(`{"content_type": "image/webp", "filename": "b.webp", "file_size": 2048}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, storage.IsAssetKey(body.Data["key"], caller))
	assert.Contains(t, body.Data["upload_url"], "signed=1")
	assert.Equal(t, "image/webp", body.Data["content_type"])

	req = httptest.NewRequest(http.MethodPost, "/uploads/banner/presign",
		strings.NewReader(`{"content_type": "image/webp", "file_size": 99999999}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
