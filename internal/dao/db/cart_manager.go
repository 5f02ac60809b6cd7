package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/dao"
	"storefront/internal/models"
)

// CartManager stores carts as product references and populates them from
// the catalogue on read.
type CartManager struct {
	coll     *mongo.Collection
	products dao.ProductLookup
}

var _ dao.CartRepository = (*CartManager)(nil)

// NewCartManager stores carts in database. products is the catalogue the
// cart lines point into, Mongo or file backed.
func NewCartManager(database *mongo.Database, products dao.ProductLookup) *CartManager {
	return &CartManager{
		coll:     database.Collection(cartsCollection),
		products: products,
	}
}

func (m *CartManager) CreateCart(ctx context.Context) (models.Cart, error) {
	res, err := m.coll.InsertOne(ctx, cartDocument{Products: []cartLine{}})
	if err != nil {
		return models.Cart{}, fmt.Errorf("alta de carrito: %w", err)
	}
	return models.Cart{ID: res.InsertedID.(primitive.ObjectID).Hex(), Products: []models.CartItem{}}, nil
}

// GetCart returns dao.ErrNotFound for unknown and malformed ids alike.
func (m *CartManager) GetCart(ctx context.Context, id string) (models.Cart, error) {
	oid, err := parseCartID(id)
	if err != nil {
		return models.Cart{}, err
	}

	var doc cartDocument
	err = m.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Cart{}, fmt.Errorf("carrito %s: %w", id, dao.ErrNotFound)
	}
	if err != nil {
		return models.Cart{}, fmt.Errorf("carrito %s: %w", id, err)
	}

	products, err := m.products.ProductsByIDs(ctx, productIDs([]cartDocument{doc}))
	if err != nil {
		return models.Cart{}, fmt.Errorf("productos del carrito %s: %w", id, err)
	}
	return doc.toModel(products), nil
}

func (m *CartManager) GetAllCarts(ctx context.Context) ([]models.Cart, error) {
	cursor, err := m.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("búsqueda de carritos: %w", err)
	}
	var docs []cartDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("lectura de carritos: %w", err)
	}

	products, err := m.products.ProductsByIDs(ctx, productIDs(docs))
	if err != nil {
		return nil, fmt.Errorf("productos de los carritos: %w", err)
	}

	carts := make([]models.Cart, len(docs))
	for i, d := range docs {
		carts[i] = d.toModel(products)
	}
	return carts, nil
}

// AddProductToCart increments the line for productID, creating it when absent.
func (m *CartManager) AddProductToCart(ctx context.Context, cartID, productID string, quantity int) (models.Cart, error) {
	if quantity <= 0 {
		return models.Cart{}, dao.ErrInvalidQty
	}
	cid, err := parseCartID(cartID)
	if err != nil {
		return models.Cart{}, err
	}
	if _, err := m.products.GetProductByID(ctx, productID); err != nil {
		return models.Cart{}, err
	}

	res, err := m.coll.UpdateOne(ctx,
		bson.M{"_id": cid, "products.product": productID},
		bson.M{"$inc": bson.M{"products.$.quantity": quantity}},
	)
	if err != nil {
		return models.Cart{}, fmt.Errorf("carrito %s: %w", cartID, err)
	}
	if res.MatchedCount == 0 {
		res, err = m.coll.UpdateOne(ctx,
			bson.M{"_id": cid},
			bson.M{"$push": bson.M{"products": cartLine{Product: productID, Quantity: quantity}}},
		)
		if err != nil {
			return models.Cart{}, fmt.Errorf("carrito %s: %w", cartID, err)
		}
		if res.MatchedCount == 0 {
			return models.Cart{}, fmt.Errorf("carrito %s: %w", cartID, dao.ErrNotFound)
		}
	}
	return m.GetCart(ctx, cartID)
}

func (m *CartManager) UpdateProductQuantity(ctx context.Context, cartID, productID string, quantity int) (models.Cart, error) {
	if quantity <= 0 {
		return models.Cart{}, dao.ErrInvalidQty
	}
	cid, err := parseCartID(cartID)
	if err != nil {
		return models.Cart{}, err
	}

	res, err := m.coll.UpdateOne(ctx,
		bson.M{"_id": cid, "products.product": productID},
		bson.M{"$set": bson.M{"products.$.quantity": quantity}},
	)
	if err != nil {
		return models.Cart{}, fmt.Errorf("carrito %s: %w", cartID, err)
	}
	if res.MatchedCount == 0 {
		return models.Cart{}, fmt.Errorf("producto %s en carrito %s: %w", productID, cartID, dao.ErrNotFound)
	}
	return m.GetCart(ctx, cartID)
}

func (m *CartManager) RemoveProductFromCart(ctx context.Context, cartID, productID string) (models.Cart, error) {
	cid, err := parseCartID(cartID)
	if err != nil {
		return models.Cart{}, err
	}

	res, err := m.coll.UpdateOne(ctx,
		bson.M{"_id": cid, "products.product": productID},
		bson.M{"$pull": bson.M{"products": bson.M{"product": productID}}},
	)
	if err != nil {
		return models.Cart{}, fmt.Errorf("carrito %s: %w", cartID, err)
	}
	if res.MatchedCount == 0 {
		return models.Cart{}, fmt.Errorf("producto %s en carrito %s: %w", productID, cartID, dao.ErrNotFound)
	}
	return m.GetCart(ctx, cartID)
}

func (m *CartManager) EmptyCart(ctx context.Context, cartID string) (models.Cart, error) {
	cid, err := parseCartID(cartID)
	if err != nil {
		return models.Cart{}, err
	}

	res, err := m.coll.UpdateOne(ctx, bson.M{"_id": cid}, bson.M{"$set": bson.M{"products": []cartLine{}}})
	if err != nil {
		return models.Cart{}, fmt.Errorf("carrito %s: %w", cartID, err)
	}
	if res.MatchedCount == 0 {
		return models.Cart{}, fmt.Errorf("carrito %s: %w", cartID, dao.ErrNotFound)
	}
	return models.Cart{ID: cartID, Products: []models.CartItem{}}, nil
}

// parseCartID parses a cart id. Malformed ids are reported as not found.
func parseCartID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return oid, fmt.Errorf("carrito %s: %w", id, dao.ErrNotFound)
	}
	return oid, nil
}

func productIDs(docs []cartDocument) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, d := range docs {
		for _, line := range d.Products {
			if _, ok := seen[line.Product]; ok {
				continue
			}
			seen[line.Product] = struct{}{}
			ids = append(ids, line.Product)
		}
	}
	return ids
}
