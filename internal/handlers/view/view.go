// Package view serves the server-rendered pages.
package view

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/dao"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/session"
)

const (
	msgProductsFailed = "Error interno del servidor"
	msgCartsFailed    = "Error al intentar listar los carritos"
	msgCartNotFound   = "Carrito no encontrado"
)

type Handler struct {
	products dao.ProductRepository
	carts    dao.CartRepository
	sessions *session.Manager
	log      *zap.Logger
}

func New(products dao.ProductRepository, carts dao.CartRepository, sessions *session.Manager, log *zap.Logger) *Handler {
	return &Handler{products: products, carts: carts, sessions: sessions, log: log}
}

// Mount registers the eight page routes.
func (h *Handler) Mount(r gin.IRoutes) {
	auth := middleware.RedirectIfNotLoggedIn(h.sessions)
	guest := middleware.RedirectIfLoggedIn(h.sessions)

	r.GET("/", auth, h.Index)
	r.GET("/products", auth, h.Products)
	r.GET("/realtimeproducts", auth, h.RealTimeProducts)
	r.GET("/chat", auth, h.Chat)
	r.GET("/carts", auth, h.Carts)
	r.GET("/carts/:cid", auth, h.Cart)
	r.GET("/login", guest, h.Login)
	r.GET("/register", guest, h.Register)
	r.GET("/profile", auth, h.Profile)
}

// GET /
func (h *Handler) Index(c *gin.Context) {
	handlers.Page(c, h.sessions, http.StatusOK, "index", gin.H{"title": "Inicio"})
}

// GET /products?limit=&page=&sort=&query=
func (h *Handler) Products(c *gin.Context) {
	opts := models.ParseQueryOptions(c.Request.URL.Query())

	page, err := h.products.GetProducts(c.Request.Context(), opts)
	if err != nil {
		h.log.Error("❌ listado de productos", zap.Error(err))
		handlers.Error(c, h.sessions, http.StatusInternalServerError, msgProductsFailed)
		return
	}

	handlers.Page(c, h.sessions, http.StatusOK, "products", gin.H{
		"title":       "Productos",
		"productos":   page.Products,
		"totalDocs":   page.TotalDocs,
		"page":        page.Page,
		"totalPages":  page.TotalPages,
		"hasPrevPage": page.HasPrevPage,
		"hasNextPage": page.HasNextPage,
		"prevPage":    page.PrevPage,
		"nextPage":    page.NextPage,
		"limit":       page.Limit,
		"sort":        opts.Sort,
		"query":       opts.Query,
	})
}

// GET /realtimeproducts
func (h *Handler) RealTimeProducts(c *gin.Context) {
	handlers.Page(c, h.sessions, http.StatusOK, "realtimeproducts", gin.H{"title": "Productos en tiempo real"})
}

// GET /chat
func (h *Handler) Chat(c *gin.Context) {
	handlers.Page(c, h.sessions, http.StatusOK, "chat", gin.H{"title": "Chat"})
}

// GET /carts
func (h *Handler) Carts(c *gin.Context) {
	carts, err := h.carts.GetAllCarts(c.Request.Context())
	if err != nil {
		h.log.Error("❌ listado de carritos", zap.Error(err))
		handlers.Error(c, h.sessions, http.StatusInternalServerError, msgCartsFailed)
		return
	}
	handlers.Page(c, h.sessions, http.StatusOK, "carts", gin.H{"title": "Carritos", "carts": carts})
}

// GET /carts/:cid
func (h *Handler) Cart(c *gin.Context) {
	cid := c.Param("cid")
	cart, err := h.carts.GetCart(c.Request.Context(), cid)
	if err != nil {
		if !errors.Is(err, dao.ErrNotFound) {
			h.log.Error("❌ lectura de carrito", zap.String("cid", cid), zap.Error(err))
		}
		handlers.Error(c, h.sessions, http.StatusNotFound, msgCartNotFound)
		return
	}
	handlers.Page(c, h.sessions, http.StatusOK, "cart", gin.H{"title": "Carrito", "cart": cart})
}

// GET /login
func (h *Handler) Login(c *gin.Context) {
	handlers.Page(c, h.sessions, http.StatusOK, "login", gin.H{"title": "Ingresar"})
}

// GET /register
func (h *Handler) Register(c *gin.Context) {
	handlers.Page(c, h.sessions, http.StatusOK, "register", gin.H{"title": "Registro"})
}

// GET /profile
func (h *Handler) Profile(c *gin.Context) {
	handlers.Page(c, h.sessions, http.StatusOK, "profile", gin.H{"title": "Perfil"})
}
