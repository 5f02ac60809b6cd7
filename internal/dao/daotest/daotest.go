// Package daotest provides in-memory repositories for handler tests.
package daotest

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"storefront/internal/dao"
	"storefront/internal/models"
)

// ErrBroken is returned by Failing repositories.
var ErrBroken = errors.New("almacenamiento caído")

// Carts is an in-memory CartRepository. Products are looked up in Catalog
// when set, so carts come back populated.
type Carts struct {
	mu      sync.Mutex
	carts   map[string][]models.CartItem
	order   []string
	Catalog map[string]models.Product
}

func NewCarts() *Carts {
	return &Carts{carts: make(map[string][]models.CartItem), Catalog: make(map[string]models.Product)}
}

func (m *Carts) CreateCart(context.Context) (models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := "c" + strconv.Itoa(len(m.order)+1)
	m.carts[id] = nil
	m.order = append(m.order, id)
	return models.Cart{ID: id, Products: []models.CartItem{}}, nil
}

func (m *Carts) GetCart(_ context.Context, id string) (models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(id)
}

func (m *Carts) get(id string) (models.Cart, error) {
	items, ok := m.carts[id]
	if !ok {
		return models.Cart{}, dao.ErrNotFound
	}
	out := make([]models.CartItem, len(items))
	copy(out, items)
	return models.Cart{ID: id, Products: out}, nil
}

func (m *Carts) GetAllCarts(context.Context) ([]models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Cart, 0, len(m.order))
	for _, id := range m.order {
		c, _ := m.get(id)
		out = append(out, c)
	}
	return out, nil
}

func (m *Carts) AddProductToCart(_ context.Context, cartID, productID string, quantity int) (models.Cart, error) {
	if quantity <= 0 {
		return models.Cart{}, dao.ErrInvalidQty
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	items, ok := m.carts[cartID]
	if !ok {
		return models.Cart{}, dao.ErrNotFound
	}
	p, ok := m.Catalog[productID]
	if !ok {
		return models.Cart{}, dao.ErrNotFound
	}
	for i := range items {
		if items[i].Product.ID == productID {
			items[i].Quantity += quantity
			return m.get(cartID)
		}
	}
	m.carts[cartID] = append(items, models.CartItem{Product: p, Quantity: quantity})
	return m.get(cartID)
}

func (m *Carts) UpdateProductQuantity(_ context.Context, cartID, productID string, quantity int) (models.Cart, error) {
	if quantity <= 0 {
		return models.Cart{}, dao.ErrInvalidQty
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	items, ok := m.carts[cartID]
	if !ok {
		return models.Cart{}, dao.ErrNotFound
	}
	for i := range items {
		if items[i].Product.ID == productID {
			items[i].Quantity = quantity
			return m.get(cartID)
		}
	}
	return models.Cart{}, dao.ErrNotFound
}

func (m *Carts) RemoveProductFromCart(_ context.Context, cartID, productID string) (models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items, ok := m.carts[cartID]
	if !ok {
		return models.Cart{}, dao.ErrNotFound
	}
	kept := items[:0]
	for _, it := range items {
		if it.Product.ID != productID {
			kept = append(kept, it)
		}
	}
	m.carts[cartID] = kept
	return m.get(cartID)
}

func (m *Carts) EmptyCart(_ context.Context, cartID string) (models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.carts[cartID]; !ok {
		return models.Cart{}, dao.ErrNotFound
	}
	m.carts[cartID] = nil
	return m.get(cartID)
}

// Users is an in-memory UserRepository keyed by lowercase email.
type Users struct {
	mu    sync.Mutex
	users map[string]models.User
}

func NewUsers() *Users {
	return &Users{users: make(map[string]models.User)}
}

func (m *Users) CreateUser(_ context.Context, u models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if _, ok := m.users[u.Email]; ok {
		return models.User{}, dao.ErrDuplicateEmail
	}
	u.ID = "u" + strconv.Itoa(len(m.users)+1)
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	m.users[u.Email] = u
	return u, nil
}

func (m *Users) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return models.User{}, dao.ErrNotFound
	}
	return u, nil
}

// Failing implements every repository and fails each call with ErrBroken.
type Failing struct{}

func (Failing) GetProducts(context.Context, models.QueryOptions) (models.ProductPage, error) {
	return models.ProductPage{}, ErrBroken
}
func (Failing) GetProductByID(context.Context, string) (models.Product, error) {
	return models.Product{}, ErrBroken
}
func (Failing) AddProduct(context.Context, models.Product) (models.Product, error) {
	return models.Product{}, ErrBroken
}
func (Failing) UpdateProduct(context.Context, string, models.ProductUpdate) (models.Product, error) {
	return models.Product{}, ErrBroken
}
func (Failing) DeleteProduct(context.Context, string) error { return ErrBroken }

func (Failing) CreateCart(context.Context) (models.Cart, error) { return models.Cart{}, ErrBroken }
func (Failing) GetCart(context.Context, string) (models.Cart, error) {
	return models.Cart{}, ErrBroken
}
func (Failing) GetAllCarts(context.Context) ([]models.Cart, error) { return nil, ErrBroken }
func (Failing) AddProductToCart(context.Context, string, string, int) (models.Cart, error) {
	return models.Cart{}, ErrBroken
}
func (Failing) UpdateProductQuantity(context.Context, string, string, int) (models.Cart, error) {
	return models.Cart{}, ErrBroken
}
func (Failing) RemoveProductFromCart(context.Context, string, string) (models.Cart, error) {
	return models.Cart{}, ErrBroken
}
func (Failing) EmptyCart(context.Context, string) (models.Cart, error) {
	return models.Cart{}, ErrBroken
}

func (Failing) CreateUser(context.Context, models.User) (models.User, error) {
	return models.User{}, ErrBroken
}
func (Failing) GetUserByEmail(context.Context, string) (models.User, error) {
	return models.User{}, ErrBroken
}

var (
	_ dao.CartRepository    = (*Carts)(nil)
	_ dao.UserRepository    = (*Users)(nil)
	_ dao.ProductRepository = Failing{}
	_ dao.CartRepository    = Failing{}
	_ dao.UserRepository    = Failing{}
)
