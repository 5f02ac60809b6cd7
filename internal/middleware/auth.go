package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/models"
	"storefront/internal/session"
)

const userContextKey = "user"

const (
	LoginPath   = "/login"
	ProfilePath = "/profile"
)

// RedirectIfNotLoggedIn sends visitors without a session user to /login.
// Logged-in requests carry the user in the gin context.
func RedirectIfNotLoggedIn(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := sessions.User(c.Request)
		if !ok {
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}
		c.Set(userContextKey, user)
		c.Next()
	}
}

// RedirectIfLoggedIn keeps logged-in users away from the login and
// register forms.
func RedirectIfLoggedIn(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := sessions.User(c.Request); ok {
			c.Redirect(http.StatusFound, ProfilePath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireUser is the JSON flavour of RedirectIfNotLoggedIn: requests
// without a session user get a 401 envelope instead of a redirect.
func RequireUser(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := sessions.User(c.Request)
		if !ok {
			abortJSON(c, http.StatusUnauthorized, "Debes iniciar sesión")
			return
		}
		c.Set(userContextKey, user)
		c.Next()
	}
}

// RequireOwnCart lets a request through only when the cart named by the
// param is the session user's cart. Admins may reach any cart. It must run
// after RequireUser or RedirectIfNotLoggedIn.
func RequireOwnCart(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			abortJSON(c, http.StatusUnauthorized, "Debes iniciar sesión")
			return
		}
		if user.Role != models.RoleAdmin && c.Param(param) != user.CartID {
			abortJSON(c, http.StatusForbidden, "El carrito no pertenece a tu sesión")
			return
		}
		c.Next()
	}
}

func abortJSON(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"status": "error", "error": msg})
}

// CurrentUser returns the user stored by RedirectIfNotLoggedIn or RequireUser.
func CurrentUser(c *gin.Context) (models.SessionUser, bool) {
	v, ok := c.Get(userContextKey)
	if !ok {
		return models.SessionUser{}, false
	}
	u, ok := v.(models.SessionUser)
	return u, ok
}
