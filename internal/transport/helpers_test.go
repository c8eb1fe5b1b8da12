package transport

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"bazar/internal/config"
	"bazar/internal/database"
	"bazar/internal/domain"
	"bazar/internal/repository"
	"bazar/internal/service"
	"bazar/internal/upload"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Smallest valid images of each accepted type.
var (
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")
	gifBytes = []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")
)

type testAPI struct {
	router    http.Handler
	db        *sql.DB
	uploadDir string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	dir := t.TempDir()
	svc, err := database.New(config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(dir, "bazar.db")})
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(svc.DB(), svc.Dialect(), zap.NewNop()))

	gw, err := repository.NewGateway(context.Background(), svc.DB(), svc.Dialect())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = gw.Close()
		_ = svc.Close()
	})

	logger := zap.NewNop()
	uploadDir := filepath.Join(dir, "uploads")
	store := upload.NewStore(uploadDir, upload.DefaultMaxSize, logger)

	r := chi.NewRouter()
	NewProductHandler(service.NewProductService(gw.Products(), store, logger), store.MaxSize(), logger).RegisterRoutes(r)
	NewSaleHandler(service.NewSaleService(gw.Sales(), gw.Products(), logger), logger).RegisterRoutes(r)

	return &testAPI{router: r, db: svc.DB(), uploadDir: uploadDir}
}

func (a *testAPI) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

type photoPart struct {
	field       string
	filename    string
	contentType string
	content     []byte
}

// productForm builds a multipart create-product request. Fields with a nil
// value are left out.
func productForm(t *testing.T, fields map[string]*string, photos ...photoPart) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, value := range fields {
		if value != nil {
			require.NoError(t, mw.WriteField(name, *value))
		}
	}
	for _, p := range photos {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, p.field, p.filename))
		if p.contentType != "" {
			h.Set("Content-Type", p.contentType)
		}
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(p.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/produtos", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func str(s string) *string {
	return &s
}

func validFields(name, price string) map[string]*string {
	return map[string]*string{"name": str(name), "price": str(price)}
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	var reader io.Reader
	switch b := body.(type) {
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (a *testAPI) createProduct(t *testing.T, name string, photos ...photoPart) domain.Product {
	t.Helper()
	w := a.do(t, productForm(t, validFields(name, "10"), photos...))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[domain.Product](t, w)
}

func (a *testAPI) uploadedFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(a.uploadDir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
