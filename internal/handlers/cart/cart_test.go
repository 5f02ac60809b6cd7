package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/dao/daotest"
	"storefront/internal/models"
	"storefront/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setup(t *testing.T) (*gin.Engine, *daotest.Carts, *session.Manager) {
	t.Helper()
	carts := daotest.NewCarts()
	carts.Catalog["p1"] = models.Product{ID: "p1", Title: "Mate", Price: 10}
	carts.Catalog["p2"] = models.Product{ID: "p2", Title: "Yerba", Price: 5}

	sessions := session.NewManager("test-secret", false)
	r := gin.New()
	New(carts, sessions, zap.NewNop()).Mount(r.Group("/api"))
	return r, carts, sessions
}

// loginAs returns a session cookie for u.
func loginAs(t *testing.T, sessions *session.Manager, u models.SessionUser) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, sessions.Login(rec, httptest.NewRequest(http.MethodGet, "/", nil), u))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

// owner creates a cart in carts and logs in a user owning it.
func owner(t *testing.T, carts *daotest.Carts, sessions *session.Manager) (models.Cart, *http.Cookie) {
	t.Helper()
	cart, err := carts.CreateCart(context.Background())
	require.NoError(t, err)
	return cart, loginAs(t, sessions, models.SessionUser{ID: "u-" + cart.ID, Role: models.RoleUser, CartID: cart.ID})
}

func send(r *gin.Engine, method, path, contentType, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func payload(t *testing.T, rec *httptest.ResponseRecorder) models.Cart {
	t.Helper()
	var env struct {
		Status  string      `json:"status"`
		Payload models.Cart `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "success", env.Status)
	return env.Payload
}

func TestCartAPI(t *testing.T) {
	r, carts, sessions := setup(t)
	own, login := owner(t, carts, sessions)
	cid := own.ID

	rec := send(r, http.MethodPost, "/api/carts", "", "", login)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEqual(t, cid, payload(t, rec).ID)

	rec = send(r, http.MethodPost, "/api/carts/"+cid+"/product/p1", "", "", login)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, payload(t, rec).Count())

	rec = send(r, http.MethodPost, "/api/carts/"+cid+"/product/p1", "application/json", `{"quantity":2}`, login)
	require.Equal(t, http.StatusOK, rec.Code)
	cart := payload(t, rec)
	require.Len(t, cart.Products, 1)
	assert.Equal(t, 3, cart.Products[0].Quantity)

	send(r, http.MethodPost, "/api/carts/"+cid+"/product/p2", "", "", login)

	rec = send(r, http.MethodPut, "/api/carts/"+cid+"/product/p2", "application/json", `{"quantity":4}`, login)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 50.0, payload(t, rec).Total())

	rec = send(r, http.MethodPut, "/api/carts/"+cid+"/product/p2", "application/json", `{}`, login)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send(r, http.MethodDelete, "/api/carts/"+cid+"/product/p1", "", "", login)
	require.Equal(t, http.StatusOK, rec.Code)
	cart = payload(t, rec)
	require.Len(t, cart.Products, 1)
	assert.Equal(t, "p2", cart.Products[0].Product.ID)

	rec = send(r, http.MethodDelete, "/api/carts/"+cid, "", "", login)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, payload(t, rec).Products)

	rec = send(r, http.MethodGet, "/api/carts/"+cid, "", "", login)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCartAPIErrors(t *testing.T) {
	r, carts, sessions := setup(t)
	cart, login := owner(t, carts, sessions)
	admin := loginAs(t, sessions, models.SessionUser{ID: "root", Role: models.RoleAdmin})

	for name, tc := range map[string]struct {
		method, path, body string
		cookie             *http.Cookie
		status             int
	}{
		"unknown cart":     {http.MethodGet, "/api/carts/nope", "", admin, http.StatusNotFound},
		"unknown product":  {http.MethodPost, "/api/carts/" + cart.ID + "/product/zzz", "", login, http.StatusNotFound},
		"negative qty":     {http.MethodPost, "/api/carts/" + cart.ID + "/product/p1", `{"quantity":-2}`, login, http.StatusBadRequest},
		"line not in cart": {http.MethodPut, "/api/carts/" + cart.ID + "/product/p1", `{"quantity":2}`, login, http.StatusNotFound},
	} {
		t.Run(name, func(t *testing.T) {
			rec := send(r, tc.method, tc.path, "application/json", tc.body, tc.cookie)
			assert.Equal(t, tc.status, rec.Code)
			var env map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.Equal(t, "error", env["status"])
			assert.NotEmpty(t, env["error"])
		})
	}
}

func TestCartAPIOwnership(t *testing.T) {
	r, carts, sessions := setup(t)
	mine, login := owner(t, carts, sessions)
	theirs, _ := owner(t, carts, sessions)
	_, err := carts.AddProductToCart(context.Background(), theirs.ID, "p1", 2)
	require.NoError(t, err)

	routes := []struct{ method, path, body string }{
		{http.MethodGet, "/api/carts/" + theirs.ID, ""},
		{http.MethodPost, "/api/carts/" + theirs.ID + "/product/p2", ""},
		{http.MethodPut, "/api/carts/" + theirs.ID + "/product/p1", `{"quantity":9}`},
		{http.MethodDelete, "/api/carts/" + theirs.ID + "/product/p1", ""},
		{http.MethodDelete, "/api/carts/" + theirs.ID, ""},
	}
	for _, tc := range routes {
		rec := send(r, tc.method, tc.path, "application/json", tc.body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "anonymous %s %s", tc.method, tc.path)

		rec = send(r, tc.method, tc.path, "application/json", tc.body, login)
		assert.Equal(t, http.StatusForbidden, rec.Code, "%s %s", tc.method, tc.path)
		var env map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		assert.Equal(t, "error", env["status"])
	}
	assert.Equal(t, http.StatusUnauthorized, send(r, http.MethodPost, "/api/carts", "", "").Code)

	stored, err := carts.GetCart(context.Background(), theirs.ID)
	require.NoError(t, err)
	require.Len(t, stored.Products, 1)
	assert.Equal(t, 2, stored.Products[0].Quantity)

	rec := send(r, http.MethodGet, "/api/carts/"+mine.ID, "", "", login)
	assert.Equal(t, http.StatusOK, rec.Code)

	admin := loginAs(t, sessions, models.SessionUser{ID: "root", Role: models.RoleAdmin})
	rec = send(r, http.MethodGet, "/api/carts/"+theirs.ID, "", "", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, payload(t, rec).Count())
}

func TestFormPostRedirectsToCart(t *testing.T) {
	r, carts, sessions := setup(t)
	cart, login := owner(t, carts, sessions)

	rec := send(r, http.MethodPost, "/api/carts/"+cart.ID+"/product/p1", "application/x-www-form-urlencoded", "", login)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/carts/"+cart.ID, rec.Header().Get("Location"))

	rec = send(r, http.MethodPost, "/api/carts/"+cart.ID+"/product/zzz", "application/x-www-form-urlencoded", "", login)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/products", rec.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	flashes, err := sessions.Flashes(httptest.NewRecorder(), req)
	require.NoError(t, err)
	assert.Len(t, flashes[session.FlashError], 1)
}
