// Package cart serves the cart JSON API. Adding a product also accepts the
// plain form post from the products page, which is answered with a redirect.
package cart

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"storefront/internal/dao"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/session"
)

type quantityInput struct {
	Quantity int `json:"quantity" form:"quantity" binding:"omitempty,gt=0"`
}

type Handler struct {
	carts    dao.CartRepository
	sessions *session.Manager
	log      *zap.Logger
}

func New(carts dao.CartRepository, sessions *session.Manager, log *zap.Logger) *Handler {
	return &Handler{carts: carts, sessions: sessions, log: log}
}

// Mount registers the cart routes. Every route needs a session user, and
// routes naming a cart only accept the user's own.
func (h *Handler) Mount(r gin.IRoutes) {
	auth := middleware.RequireUser(h.sessions)
	own := middleware.RequireOwnCart("cid")

	r.POST("/carts", auth, h.Create)
	r.GET("/carts/:cid", auth, own, h.Get)
	r.POST("/carts/:cid/product/:pid", auth, own, h.AddProduct)
	r.PUT("/carts/:cid/product/:pid", auth, own, h.UpdateQuantity)
	r.DELETE("/carts/:cid/product/:pid", auth, own, h.RemoveProduct)
	r.DELETE("/carts/:cid", auth, own, h.Empty)
}

// POST /api/carts
func (h *Handler) Create(c *gin.Context) {
	cart, err := h.carts.CreateCart(c.Request.Context())
	if err != nil {
		handlers.APIFailure(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "payload": cart})
}

// GET /api/carts/:cid
func (h *Handler) Get(c *gin.Context) {
	cart, err := h.carts.GetCart(c.Request.Context(), c.Param("cid"))
	if err != nil {
		handlers.APIFailure(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "payload": cart})
}

// POST /api/carts/:cid/product/:pid, body {quantity} optional (default 1)
func (h *Handler) AddProduct(c *gin.Context) {
	cid, pid := c.Param("cid"), c.Param("pid")
	fromForm := c.ContentType() == binding.MIMEPOSTForm

	var input quantityInput
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBind(&input); err != nil {
			h.addFailed(c, fromForm, http.StatusBadRequest, handlers.BindingMessage(err))
			return
		}
	}
	if input.Quantity == 0 {
		input.Quantity = 1
	}

	cart, err := h.carts.AddProductToCart(c.Request.Context(), cid, pid, input.Quantity)
	if err != nil {
		if fromForm {
			if handlers.APIStatus(err) == http.StatusInternalServerError {
				h.log.Error("❌ agregado al carrito", zap.String("cid", cid), zap.String("pid", pid), zap.Error(err))
			}
			h.addFailed(c, true, 0, "No se pudo agregar el producto al carrito")
			return
		}
		handlers.APIFailure(c, h.log, err)
		return
	}

	if fromForm {
		handlers.FlashRedirect(c, h.sessions, h.log, session.FlashSuccess, "Producto agregado al carrito", "/carts/"+cart.ID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "payload": cart})
}

func (h *Handler) addFailed(c *gin.Context, fromForm bool, status int, message string) {
	if fromForm {
		handlers.FlashRedirect(c, h.sessions, h.log, session.FlashError, message, "/products")
		return
	}
	handlers.APIError(c, status, message)
}

// PUT /api/carts/:cid/product/:pid, body {quantity}
func (h *Handler) UpdateQuantity(c *gin.Context) {
	var input quantityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		handlers.APIError(c, http.StatusBadRequest, handlers.BindingMessage(err))
		return
	}
	if input.Quantity == 0 {
		handlers.APIError(c, http.StatusBadRequest, "quantity es obligatorio")
		return
	}

	cart, err := h.carts.UpdateProductQuantity(c.Request.Context(), c.Param("cid"), c.Param("pid"), input.Quantity)
	if err != nil {
		handlers.APIFailure(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "payload": cart})
}

// DELETE /api/carts/:cid/product/:pid
func (h *Handler) RemoveProduct(c *gin.Context) {
	cart, err := h.carts.RemoveProductFromCart(c.Request.Context(), c.Param("cid"), c.Param("pid"))
	if err != nil {
		handlers.APIFailure(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "payload": cart})
}

// DELETE /api/carts/:cid
func (h *Handler) Empty(c *gin.Context) {
	cart, err := h.carts.EmptyCart(c.Request.Context(), c.Param("cid"))
	if err != nil {
		handlers.APIFailure(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "payload": cart})
}
