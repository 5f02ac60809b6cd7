// Package product serves the product JSON API.
package product

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/dao"
	"storefront/internal/handlers"
	"storefront/internal/models"
)

// Notifier is told after every mutation so realtime pages can refresh.
type Notifier interface {
	Refresh(ctx context.Context)
}

type Handler struct {
	products dao.ProductRepository
	notify   Notifier
	log      *zap.Logger
}

// New builds the handler. notify may be nil.
func New(products dao.ProductRepository, notify Notifier, log *zap.Logger) *Handler {
	return &Handler{products: products, notify: notify, log: log}
}

// Mount registers the catalogue routes. Reads are public; auth guards the
// writes.
func (h *Handler) Mount(r gin.IRoutes, auth gin.HandlerFunc) {
	r.GET("/products", h.List)
	r.GET("/products/:pid", h.Get)
	r.POST("/products", auth, h.Create)
	r.PUT("/products/:pid", auth, h.Update)
	r.DELETE("/products/:pid", auth, h.Delete)
}

// GET /api/products
func (h *Handler) List(c *gin.Context) {
	opts := models.ParseQueryOptions(c.Request.URL.Query())
	page, err := h.products.GetProducts(c.Request.Context(), opts)
	if err != nil {
		handlers.APIFailure(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "payload": page})
}

// GET /api/products/:pid
func (h *Handler) Get(c *gin.Context) {
	p, err := h.products.GetProductByID(c.Request.Context(), c.Param("pid"))
	if err != nil {
		handlers.APIFailure(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "payload": p})
}

// POST /api/products
func (h *Handler) Create(c *gin.Context) {
	var input models.Product
	if err := c.ShouldBindJSON(&input); err != nil {
		handlers.APIError(c, http.StatusBadRequest, handlers.BindingMessage(err))
		return
	}
	input.ID = ""

	p, err := h.products.AddProduct(c.Request.Context(), input)
	if err != nil {
		handlers.APIFailure(c, h.log, err)
		return
	}
	h.changed(c)
	c.JSON(http.StatusCreated, gin.H{"status": "success", "payload": p})
}

// PUT /api/products/:pid
func (h *Handler) Update(c *gin.Context) {
	var input models.ProductUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		handlers.APIError(c, http.StatusBadRequest, handlers.BindingMessage(err))
		return
	}

	p, err := h.products.UpdateProduct(c.Request.Context(), c.Param("pid"), input)
	if err != nil {
		handlers.APIFailure(c, h.log, err)
		return
	}
	h.changed(c)
	c.JSON(http.StatusOK, gin.H{"status": "success", "payload": p})
}

// DELETE /api/products/:pid
func (h *Handler) Delete(c *gin.Context) {
	pid := c.Param("pid")
	if err := h.products.DeleteProduct(c.Request.Context(), pid); err != nil {
		handlers.APIFailure(c, h.log, err)
		return
	}
	h.changed(c)
	c.JSON(http.StatusOK, gin.H{"status": "success", "payload": gin.H{"id": pid}})
}

func (h *Handler) changed(c *gin.Context) {
	if h.notify != nil {
		h.notify.Refresh(c.Request.Context())
	}
}
