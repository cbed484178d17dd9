package images

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestDiskApi(t *testing.T) *DiskApi {
	t.Helper()
	api, err := NewDiskApi(t.TempDir())
	require.NoError(t, err)

	counter := 0
	api.newId = func() (string, error) {
		counter++
		return string(rune('a'+counter-1)) + "-test-id", nil
	}
	return api
}

func TestDiskApi_SaveAndOpen(t *testing.T) {
	api := newTestDiskApi(t)
	ctx := context.Background()

	id, err := api.Save(ctx, "lunch.jpg", bytes.NewReader([]byte("fake jpg bytes")))
	require.NoError(t, err)
	assert.Equal(t, "a-test-id.jpg", id)

	file, err := api.Open(ctx, id)
	require.NoError(t, err)
	defer file.Close()

	content, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, "fake jpg bytes", string(content))
}

func TestDiskApi_Save_UnsupportedType(t *testing.T) {
	api := newTestDiskApi(t)

	_, err := api.Save(context.Background(), "malware.exe", bytes.NewReader([]byte("nope")))
	require.ErrorIs(t, err, ErrUnsupportedType)

	_, err = api.Save(context.Background(), "noextension", bytes.NewReader([]byte("nope")))
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestDiskApi_Open_NotFound(t *testing.T) {
	api := newTestDiskApi(t)

	_, err := api.Open(context.Background(), "missing.jpg")
	require.ErrorIs(t, err, ErrImageNotFound)

	// path traversal attempts read as not found
	_, err = api.Open(context.Background(), "../secrets.txt")
	require.ErrorIs(t, err, ErrImageNotFound)
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest("POST", "/meals/image", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestHandler_UploadAndGet(t *testing.T) {
	api := newTestDiskApi(t)
	router := mux.NewRouter()
	NewHandler(api).SetupRoutes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "dinner.png", []byte("fake png bytes")))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"imageUrl":"/meals/image/a-test-id.png"`)

	req, err := http.NewRequest("GET", "/meals/image/a-test-id.png", nil)
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fake png bytes", rec.Body.String())
}

func TestHandler_Upload_Invalid(t *testing.T) {
	api := newTestDiskApi(t)
	router := mux.NewRouter()
	NewHandler(api).SetupRoutes(router)

	// unsupported extension
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "report.pdf", []byte("pdf")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// no multipart body at all
	req, err := http.NewRequest("POST", "/meals/image", nil)
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Get_NotFound(t *testing.T) {
	api := newTestDiskApi(t)
	router := mux.NewRouter()
	NewHandler(api).SetupRoutes(router)

	req, err := http.NewRequest("GET", "/meals/image/nope.jpg", nil)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
