package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

func TestProductDocumentToModel(t *testing.T) {
	id := primitive.NewObjectID()
	p := productDocument{ID: id, Title: "Remera", Price: 12.5, Code: "R1", Category: "ropa", Status: true}.toModel()

	assert.Equal(t, id.Hex(), p.ID)
	assert.Equal(t, "Remera", p.Title)
	assert.NotNil(t, p.Thumbnails)
	assert.True(t, p.Status)
}

func TestCartDocumentToModel(t *testing.T) {
	known := primitive.NewObjectID().Hex()
	deleted := "17"
	doc := cartDocument{
		ID: primitive.NewObjectID(),
		Products: []cartLine{
			{Product: known, Quantity: 2},
			{Product: deleted, Quantity: 1},
		},
	}

	cart := doc.toModel(map[string]models.Product{
		known: {ID: known, Title: "Gorra", Price: 5},
	})

	assert.Equal(t, doc.ID.Hex(), cart.ID)
	assert.Len(t, cart.Products, 2)
	assert.Equal(t, "Gorra", cart.Products[0].Product.Title)
	assert.Equal(t, deleted, cart.Products[1].Product.ID)
	assert.InDelta(t, 10.0, cart.Total(), 0.0001)
}

func TestUserDocumentToModelWithoutCart(t *testing.T) {
	u := userDocument{ID: primitive.NewObjectID(), Email: "ana@test.com", Role: models.RoleUser}.toModel()
	assert.Empty(t, u.CartID)
	assert.Equal(t, "ana@test.com", u.Email)
}

func TestListFilter(t *testing.T) {
	assert.Equal(t, bson.M{}, listFilter(models.QueryOptions{}))
	assert.Equal(t, bson.M{"status": true}, listFilter(models.QueryOptions{Query: "disponible"}))

	f := listFilter(models.QueryOptions{Query: "ropa (hombre)"})
	re, ok := f["category"].(primitive.Regex)
	assert.True(t, ok)
	assert.Equal(t, `^ropa \(hombre\)$`, re.Pattern)
	assert.Equal(t, "i", re.Options)
}

func TestProductIDsDeduplicates(t *testing.T) {
	a, b := primitive.NewObjectID().Hex(), "3"
	ids := productIDs([]cartDocument{
		{Products: []cartLine{{Product: a}, {Product: b}}},
		{Products: []cartLine{{Product: a}}},
	})
	assert.Equal(t, []string{a, b}, ids)
}
