// Package db implements the data-access managers over MongoDB.
package db

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

const (
	productsCollection = "products"
	cartsCollection    = "carts"
	usersCollection    = "users"
	messagesCollection = "messages"
)

type productDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Price       float64            `bson:"price"`
	Thumbnails  []string           `bson:"thumbnails"`
	Code        string             `bson:"code"`
	Stock       int                `bson:"stock"`
	Category    string             `bson:"category"`
	Status      bool               `bson:"status"`
}

func (d productDocument) toModel() models.Product {
	thumbnails := d.Thumbnails
	if thumbnails == nil {
		thumbnails = []string{}
	}
	return models.Product{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Price:       d.Price,
		Thumbnails:  thumbnails,
		Code:        d.Code,
		Stock:       d.Stock,
		Category:    d.Category,
		Status:      d.Status,
	}
}

func productFromModel(p models.Product) productDocument {
	return productDocument{
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Thumbnails:  p.Thumbnails,
		Code:        p.Code,
		Stock:       p.Stock,
		Category:    p.Category,
		Status:      p.Status,
	}
}

// cartLine references a product by its catalogue id, which is an ObjectID
// hex string for the Mongo catalogue and a number for the file catalogue.
type cartLine struct {
	Product  string `bson:"product"`
	Quantity int    `bson:"quantity"`
}

type cartDocument struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Products []cartLine         `bson:"products"`
}

// toModel populates the cart lines from products.
// Lines whose product was deleted keep only the id.
func (d cartDocument) toModel(products map[string]models.Product) models.Cart {
	cart := models.Cart{ID: d.ID.Hex(), Products: make([]models.CartItem, 0, len(d.Products))}
	for _, line := range d.Products {
		p, ok := products[line.Product]
		if !ok {
			p = models.Product{ID: line.Product}
		}
		cart.Products = append(cart.Products, models.CartItem{Product: p, Quantity: line.Quantity})
	}
	return cart
}

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	FirstName    string             `bson:"first_name"`
	LastName     string             `bson:"last_name"`
	Email        string             `bson:"email"`
	Age          int                `bson:"age"`
	PasswordHash string             `bson:"password"`
	Cart         primitive.ObjectID `bson:"cart,omitempty"`
	Role         string             `bson:"role"`
}

func (d userDocument) toModel() models.User {
	u := models.User{
		ID:           d.ID.Hex(),
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Email:        d.Email,
		Age:          d.Age,
		PasswordHash: d.PasswordHash,
		Role:         d.Role,
	}
	if !d.Cart.IsZero() {
		u.CartID = d.Cart.Hex()
	}
	return u
}

type messageDocument struct {
	ID        string    `bson:"_id"`
	User      string    `bson:"user"`
	Message   string    `bson:"message"`
	CreatedAt time.Time `bson:"created_at"`
}

func (d messageDocument) toModel() models.Message {
	return models.Message{ID: d.ID, User: d.User, Message: d.Message, CreatedAt: d.CreatedAt}
}
