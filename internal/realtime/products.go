package realtime

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/dao"
	"storefront/internal/models"
)

// listingLimit bounds the list pushed to realtime clients.
const listingLimit = 100

type productEvent struct {
	Type    string         `json:"type"`
	Product models.Product `json:"product"`
	ID      string         `json:"id"`
}

type productsMessage struct {
	Type     string           `json:"type"`
	Products []models.Product `json:"products,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// Products pushes the catalogue to every realtime products page and applies
// add/delete events sent by those pages.
type Products struct {
	hub      *Hub
	products dao.ProductRepository
	log      *zap.Logger
}

func NewProducts(products dao.ProductRepository, log *zap.Logger) *Products {
	return &Products{hub: NewHub("products", log), products: products, log: log}
}

func (p *Products) Run(ctx context.Context) {
	p.hub.Run(ctx)
}

// Handle upgrades GET /ws/products.
func (p *Products) Handle(c *gin.Context) {
	ctx := c.Request.Context()
	p.hub.serve(c.Writer, c.Request,
		func(cl *client) {
			msg, err := p.snapshot(ctx)
			if err != nil {
				p.log.Error("❌ listado realtime", zap.Error(err))
				p.hub.sendTo(cl, productsMessage{Type: "error", Error: "Error al obtener productos"})
				return
			}
			p.hub.sendTo(cl, msg)
		},
		func(cl *client, data []byte) {
			if errMsg := p.apply(ctx, data); errMsg != "" {
				p.hub.sendTo(cl, productsMessage{Type: "error", Error: errMsg})
				return
			}
			p.Refresh(ctx)
		},
	)
}

// Refresh broadcasts the current catalogue. The JSON API calls it after
// every mutation so open pages stay in sync.
func (p *Products) Refresh(ctx context.Context) {
	msg, err := p.snapshot(ctx)
	if err != nil {
		p.log.Error("❌ listado realtime", zap.Error(err))
		return
	}
	if err := p.hub.Broadcast(ctx, msg); err != nil {
		p.log.Warn("difusión realtime", zap.Error(err))
	}
}

func (p *Products) snapshot(ctx context.Context) (productsMessage, error) {
	page, err := p.products.GetProducts(ctx, models.QueryOptions{Limit: listingLimit, Page: 1})
	if err != nil {
		return productsMessage{}, err
	}
	return productsMessage{Type: "products", Products: page.Products}, nil
}

// apply runs one client event and returns a user-facing error, or "".
func (p *Products) apply(ctx context.Context, data []byte) string {
	var ev productEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return "Mensaje inválido"
	}

	var err error
	switch ev.Type {
	case "add":
		_, err = p.products.AddProduct(ctx, ev.Product)
	case "delete":
		err = p.products.DeleteProduct(ctx, ev.ID)
	default:
		return "Evento desconocido"
	}

	switch {
	case err == nil:
		return ""
	case errors.Is(err, dao.ErrInvalidProduct):
		return "Faltan campos obligatorios del producto"
	case errors.Is(err, dao.ErrDuplicateCode):
		return "Ya existe un producto con ese código"
	case errors.Is(err, dao.ErrNotFound):
		return "Producto no encontrado"
	}
	p.log.Error("❌ evento realtime", zap.String("type", ev.Type), zap.Error(err))
	return "Error interno del servidor"
}
