package product

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/dao"
	"storefront/internal/dao/daotest"
	"storefront/internal/dao/fs"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type countingNotifier struct{ n atomic.Int32 }

func (c *countingNotifier) Refresh(context.Context) { c.n.Add(1) }

// newRouter mounts the API and returns a session cookie for a logged-in
// user alongside it.
func newRouter(t *testing.T, repo dao.ProductRepository, notify Notifier) (*gin.Engine, *http.Cookie) {
	t.Helper()
	sessions := session.NewManager("test-secret", false)
	r := gin.New()
	New(repo, notify, zap.NewNop()).Mount(r.Group("/api"), middleware.RequireUser(sessions))

	rec := httptest.NewRecorder()
	require.NoError(t, sessions.Login(rec, httptest.NewRequest(http.MethodGet, "/", nil), models.SessionUser{ID: "u1", FirstName: "Ana"}))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return r, cookies[0]
}

func do(r *gin.Engine, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Status  string          `json:"status"`
	Error   string          `json:"error"`
	Payload json.RawMessage `json:"payload"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestProductLifecycle(t *testing.T) {
	notify := &countingNotifier{}
	r, login := newRouter(t, fs.NewProductManager(filepath.Join(t.TempDir(), "products.json")), notify)

	rec := do(r, http.MethodPost, "/api/products", `{"title":"Mate","description":"Calabaza","price":1500,"code":"MATE1","stock":3,"category":"bazar","status":true}`, login)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.Product
	require.NoError(t, json.Unmarshal(decode(t, rec).Payload, &created))
	assert.NotEmpty(t, created.ID)

	rec = do(r, http.MethodPut, "/api/products/"+created.ID, `{"price":1800}`, login)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated models.Product
	require.NoError(t, json.Unmarshal(decode(t, rec).Payload, &updated))
	assert.Equal(t, 1800.0, updated.Price)
	assert.Equal(t, "Mate", updated.Title)

	rec = do(r, http.MethodGet, "/api/products?query=BAZAR", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page models.ProductPage
	require.NoError(t, json.Unmarshal(decode(t, rec).Payload, &page))
	assert.Equal(t, 1, page.TotalDocs)

	rec = do(r, http.MethodDelete, "/api/products/"+created.ID, "", login)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(r, http.MethodGet, "/api/products/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "error", env.Status)
	assert.NotEmpty(t, env.Error)

	assert.Equal(t, int32(3), notify.n.Load())
}

func TestProductWritesNeedSession(t *testing.T) {
	notify := &countingNotifier{}
	repo := fs.NewProductManager(filepath.Join(t.TempDir(), "products.json"))
	r, login := newRouter(t, repo, notify)

	rec := do(r, http.MethodPost, "/api/products", `{"title":"Mate","description":"d","price":1,"code":"X","category":"c"}`, login)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Product
	require.NoError(t, json.Unmarshal(decode(t, rec).Payload, &created))

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodPost, "/api/products", `{"title":"Otro","description":"d","price":1,"code":"Y","category":"c"}`},
		{http.MethodPut, "/api/products/" + created.ID, `{"price":99}`},
		{http.MethodDelete, "/api/products/" + created.ID, ""},
	} {
		rec := do(r, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.method)
		env := decode(t, rec)
		assert.Equal(t, "error", env.Status)
		assert.NotEmpty(t, env.Error)
	}

	rec = do(r, http.MethodGet, "/api/products/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stored models.Product
	require.NoError(t, json.Unmarshal(decode(t, rec).Payload, &stored))
	assert.Equal(t, 1.0, stored.Price)

	page, err := repo.GetProducts(context.Background(), models.QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalDocs)
	assert.Equal(t, int32(1), notify.n.Load())
}

func TestCreateProductValidation(t *testing.T) {
	r, login := newRouter(t, fs.NewProductManager(filepath.Join(t.TempDir(), "products.json")), nil)

	rec := do(r, http.MethodPost, "/api/products", `{"title":"Mate","price":-1}`, login)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "error", env.Status)
	assert.Contains(t, env.Error, "description es obligatorio")
	assert.Contains(t, env.Error, "price debe ser mayor que 0")

	rec = do(r, http.MethodPost, "/api/products", `{not json`, login)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Datos inválidos", decode(t, rec).Error)
}

func TestDuplicateCodeConflicts(t *testing.T) {
	r, login := newRouter(t, fs.NewProductManager(filepath.Join(t.TempDir(), "products.json")), nil)
	body := `{"title":"Mate","description":"d","price":1,"code":"X","category":"c"}`

	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/products", body, login).Code)
	rec := do(r, http.MethodPost, "/api/products", body, login)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStorageFailureIsGeneric(t *testing.T) {
	r, _ := newRouter(t, daotest.Failing{}, nil)

	rec := do(r, http.MethodGet, "/api/products", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, "Error interno del servidor", env.Error)
}
