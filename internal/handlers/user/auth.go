// Package user handles the form based login, registration and logout.
package user

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/dao"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/session"
	"storefront/internal/utils"
)

const (
	msgBadCredentials = "Email o contraseña incorrectos"
	msgEmailTaken     = "Ya existe una cuenta con ese email"
	msgRegistered     = "Cuenta creada, ya podés ingresar"
	msgServerError    = "Error interno del servidor"
)

type loginForm struct {
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required"`
}

type registerForm struct {
	FirstName string `form:"first_name" binding:"required"`
	LastName  string `form:"last_name" binding:"required"`
	Email     string `form:"email" binding:"required,email"`
	Age       int    `form:"age" binding:"required,gt=0"`
	Password  string `form:"password" binding:"required,min=6"`
}

type Handler struct {
	users    dao.UserRepository
	carts    dao.CartRepository
	sessions *session.Manager
	attempts middleware.AttemptStore
	log      *zap.Logger
}

// New builds the handler. attempts may be nil, which disables the login
// rate limit.
func New(users dao.UserRepository, carts dao.CartRepository, sessions *session.Manager, attempts middleware.AttemptStore, log *zap.Logger) *Handler {
	return &Handler{users: users, carts: carts, sessions: sessions, attempts: attempts, log: log}
}

func (h *Handler) Mount(r gin.IRoutes) {
	guest := middleware.RedirectIfLoggedIn(h.sessions)

	r.POST("/login", guest, middleware.LoginRateLimit(h.attempts, h.blocked), h.Login)
	r.POST("/register", guest, h.Register)
	r.GET("/logout", h.Logout)
}

// POST /login
func (h *Handler) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		h.reject(c)
		return
	}
	ctx := c.Request.Context()

	u, err := h.users.GetUserByEmail(ctx, form.Email)
	if err != nil {
		if !errors.Is(err, dao.ErrNotFound) {
			h.log.Error("❌ búsqueda de usuario", zap.Error(err))
			handlers.FlashRedirect(c, h.sessions, h.log, session.FlashError, msgServerError, middleware.LoginPath)
			return
		}
		h.reject(c)
		return
	}

	ok, err := utils.VerifyPassword(form.Password, u.PasswordHash)
	if err != nil {
		h.log.Warn("⚠️ hash de contraseña ilegible", zap.String("user", u.ID), zap.Error(err))
	}
	if !ok {
		h.reject(c)
		return
	}

	if err := h.sessions.Login(c.Writer, c.Request, u.SessionUser()); err != nil {
		h.log.Error("❌ guardado de sesión", zap.Error(err))
		handlers.FlashRedirect(c, h.sessions, h.log, session.FlashError, msgServerError, middleware.LoginPath)
		return
	}
	c.Set(middleware.LoginSucceededKey, true)
	h.log.Info("✅ sesión iniciada", zap.String("user", u.ID))
	c.Redirect(http.StatusFound, "/products")
}

func (h *Handler) reject(c *gin.Context) {
	c.Set(middleware.LoginFailedKey, true)
	handlers.FlashRedirect(c, h.sessions, h.log, session.FlashError, msgBadCredentials, middleware.LoginPath)
}

func (h *Handler) blocked(c *gin.Context, retryAfter time.Duration) {
	minutes := int(math.Ceil(retryAfter.Minutes()))
	msg := fmt.Sprintf("Demasiados intentos fallidos, probá de nuevo en %d minutos", minutes)
	handlers.FlashRedirect(c, h.sessions, h.log, session.FlashError, msg, middleware.LoginPath)
}

// POST /register
func (h *Handler) Register(c *gin.Context) {
	var form registerForm
	if err := c.ShouldBind(&form); err != nil {
		handlers.FlashRedirect(c, h.sessions, h.log, session.FlashError, handlers.BindingMessage(err), "/register")
		return
	}
	ctx := c.Request.Context()
	email := strings.ToLower(strings.TrimSpace(form.Email))

	if _, err := h.users.GetUserByEmail(ctx, email); err == nil {
		handlers.FlashRedirect(c, h.sessions, h.log, session.FlashError, msgEmailTaken, "/register")
		return
	} else if !errors.Is(err, dao.ErrNotFound) {
		h.fail(c, "búsqueda de usuario", err)
		return
	}

	hash, err := utils.HashPassword(form.Password)
	if err != nil {
		h.fail(c, "hash de contraseña", err)
		return
	}

	cart, err := h.carts.CreateCart(ctx)
	if err != nil {
		h.fail(c, "creación de carrito", err)
		return
	}

	u, err := h.users.CreateUser(ctx, models.User{
		FirstName:    strings.TrimSpace(form.FirstName),
		LastName:     strings.TrimSpace(form.LastName),
		Email:        email,
		Age:          form.Age,
		PasswordHash: hash,
		CartID:       cart.ID,
		Role:         models.RoleUser,
	})
	if err != nil {
		if errors.Is(err, dao.ErrDuplicateEmail) {
			handlers.FlashRedirect(c, h.sessions, h.log, session.FlashError, msgEmailTaken, "/register")
			return
		}
		h.fail(c, "creación de usuario", err)
		return
	}

	h.log.Info("✅ usuario registrado", zap.String("user", u.ID), zap.String("cart", cart.ID))
	handlers.FlashRedirect(c, h.sessions, h.log, session.FlashSuccess, msgRegistered, middleware.LoginPath)
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	h.log.Error("❌ "+op, zap.Error(err))
	handlers.FlashRedirect(c, h.sessions, h.log, session.FlashError, msgServerError, "/register")
}

// GET /logout
func (h *Handler) Logout(c *gin.Context) {
	if err := h.sessions.Logout(c.Writer, c.Request); err != nil {
		h.log.Warn("⚠️ cierre de sesión", zap.Error(err))
	}
	c.Redirect(http.StatusFound, middleware.LoginPath)
}
