package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/dao"
	"storefront/internal/handlers"
	"storefront/internal/handlers/cart"
	"storefront/internal/handlers/product"
	"storefront/internal/handlers/user"
	"storefront/internal/handlers/view"
	"storefront/internal/middleware"
	"storefront/internal/realtime"
	"storefront/internal/session"
	"storefront/web"
)

// Deps is everything the routes need. Attempts may be nil (no login rate
// limit); the realtime hubs may be nil, which leaves /ws unmounted.
type Deps struct {
	Products dao.ProductRepository
	Carts    dao.CartRepository
	Users    dao.UserRepository

	Sessions *session.Manager
	Attempts middleware.AttemptStore

	RealtimeProducts *realtime.Products
	Chat             *realtime.Chat

	AllowedOrigins []string
	Log            *zap.Logger
}

func RegisterRoutes(r *gin.Engine, d Deps) error {
	tmpl, err := web.Templates()
	if err != nil {
		return err
	}
	r.SetHTMLTemplate(tmpl)
	r.StaticFS("/static", http.FS(web.Static()))

	// Pages
	view.New(d.Products, d.Carts, d.Sessions, d.Log).Mount(r)
	user.New(d.Users, d.Carts, d.Sessions, d.Attempts, d.Log).Mount(r)

	// JSON API
	var notify product.Notifier
	if d.RealtimeProducts != nil {
		notify = d.RealtimeProducts
	}
	api := r.Group("/api", cors.New(corsConfig(d.AllowedOrigins)))
	// Preflights only reach the cors middleware through a matching route.
	api.OPTIONS("/*path", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	product.New(d.Products, notify, d.Log).Mount(api, middleware.RequireUser(d.Sessions))
	cart.New(d.Carts, d.Sessions, d.Log).Mount(api)

	// Websockets
	ws := r.Group("/ws", middleware.RedirectIfNotLoggedIn(d.Sessions))
	if d.RealtimeProducts != nil {
		ws.GET("/products", d.RealtimeProducts.Handle)
	}
	if d.Chat != nil {
		ws.GET("/chat", d.Chat.Handle)
	}

	r.NoRoute(func(c *gin.Context) {
		handlers.Error(c, d.Sessions, http.StatusNotFound, "Página no encontrada")
	})
	return nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowOrigins = []string{"http://localhost:8080"}
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
