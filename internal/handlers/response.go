// Package handlers holds the rendering and error helpers shared by the page
// and API handlers in its subpackages.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"storefront/internal/dao"
	"storefront/internal/middleware"
	"storefront/internal/session"
)

// Page renders view with the session user and any queued flash messages
// added to data. "user" is always present so templates can test it.
func Page(c *gin.Context, sessions *session.Manager, status int, view string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["user"]; !ok {
		if u, ok := middleware.CurrentUser(c); ok {
			data["user"] = u
		} else if u, ok := sessions.User(c.Request); ok {
			data["user"] = u
		} else {
			data["user"] = nil
		}
	}

	// Flashes rewrites the cookie, so it has to run before the body.
	messages, err := sessions.Flashes(c.Writer, c.Request)
	if err != nil {
		messages = map[string][]string{}
	}
	data["messages"] = messages

	c.HTML(status, view, data)
}

// Error renders the error view, or {"error": message} for clients that ask
// for JSON.
func Error(c *gin.Context, sessions *session.Manager, status int, message string) {
	switch c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) {
	case gin.MIMEJSON:
		c.JSON(status, gin.H{"error": message})
	default:
		Page(c, sessions, status, "error", gin.H{"title": "Error", "message": message})
	}
	c.Abort()
}

// FlashRedirect queues a flash message and redirects with 302.
func FlashRedirect(c *gin.Context, sessions *session.Manager, log *zap.Logger, kind, message, location string) {
	if err := sessions.Flash(c.Writer, c.Request, kind, message); err != nil {
		log.Warn("⚠️ flash no guardado", zap.Error(err))
	}
	c.Redirect(http.StatusFound, location)
}

// APIError answers {"status":"error","error":message}.
func APIError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"status": "error", "error": message})
}

// APIStatus maps a data-access error to its HTTP status.
func APIStatus(err error) int {
	switch {
	case errors.Is(err, dao.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, dao.ErrInvalidProduct), errors.Is(err, dao.ErrInvalidQty):
		return http.StatusBadRequest
	case errors.Is(err, dao.ErrDuplicateCode), errors.Is(err, dao.ErrDuplicateEmail):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// APIFailure reports err with the status APIStatus picks. Server errors are
// logged and replaced by a generic message.
func APIFailure(c *gin.Context, log *zap.Logger, err error) {
	status := APIStatus(err)
	if status == http.StatusInternalServerError {
		log.Error("❌ error de API",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		APIError(c, status, "Error interno del servidor")
		return
	}
	APIError(c, status, err.Error())
}

// BindingMessage turns a ShouldBind error into a readable message, one
// clause per failing field.
func BindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Datos inválidos"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s es obligatorio", field))
		case "gt", "gte", "min":
			parts = append(parts, fmt.Sprintf("%s debe ser mayor %s %s", field, comparison(fe.Tag()), fe.Param()))
		case "email":
			parts = append(parts, fmt.Sprintf("%s no es un email válido", field))
		default:
			parts = append(parts, fmt.Sprintf("%s no cumple %s", field, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

func comparison(tag string) string {
	if tag == "gt" {
		return "que"
	}
	return "o igual a"
}
