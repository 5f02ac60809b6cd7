// Package dao declares the data-access contracts shared by the Mongo and
// file backed managers.
package dao

import (
	"context"
	"errors"

	"storefront/internal/models"
)

var (
	ErrNotFound       = errors.New("no encontrado")
	ErrInvalidProduct = errors.New("producto inválido")
	ErrDuplicateCode  = errors.New("código de producto duplicado")
	ErrDuplicateEmail = errors.New("email ya registrado")
	ErrInvalidQty     = errors.New("cantidad inválida")
)

type ProductRepository interface {
	GetProducts(ctx context.Context, opts models.QueryOptions) (models.ProductPage, error)
	GetProductByID(ctx context.Context, id string) (models.Product, error)
	AddProduct(ctx context.Context, p models.Product) (models.Product, error)
	UpdateProduct(ctx context.Context, id string, u models.ProductUpdate) (models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// ProductLookup resolves the products referenced by cart lines.
type ProductLookup interface {
	GetProductByID(ctx context.Context, id string) (models.Product, error)
	ProductsByIDs(ctx context.Context, ids []string) (map[string]models.Product, error)
}

type CartRepository interface {
	CreateCart(ctx context.Context) (models.Cart, error)
	GetCart(ctx context.Context, id string) (models.Cart, error)
	GetAllCarts(ctx context.Context) ([]models.Cart, error)
	AddProductToCart(ctx context.Context, cartID, productID string, quantity int) (models.Cart, error)
	UpdateProductQuantity(ctx context.Context, cartID, productID string, quantity int) (models.Cart, error)
	RemoveProductFromCart(ctx context.Context, cartID, productID string) (models.Cart, error)
	EmptyCart(ctx context.Context, cartID string) (models.Cart, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, u models.User) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

type MessageRepository interface {
	SaveMessage(ctx context.Context, m models.Message) (models.Message, error)
	RecentMessages(ctx context.Context, limit int) ([]models.Message, error)
}
