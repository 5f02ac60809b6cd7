package db

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/dao"
	"storefront/internal/models"
)

type ProductManager struct {
	coll *mongo.Collection
}

var (
	_ dao.ProductRepository = (*ProductManager)(nil)
	_ dao.ProductLookup     = (*ProductManager)(nil)
)

func NewProductManager(database *mongo.Database) *ProductManager {
	return &ProductManager{coll: database.Collection(productsCollection)}
}

// GetProducts returns one page of the catalogue. The total used for the
// pagination metadata is counted with the same filter as the page.
func (m *ProductManager) GetProducts(ctx context.Context, opts models.QueryOptions) (models.ProductPage, error) {
	opts = opts.Normalized()
	filter := listFilter(opts)

	total, err := m.coll.CountDocuments(ctx, filter)
	if err != nil {
		return models.ProductPage{}, fmt.Errorf("conteo de productos: %w", err)
	}

	findOpts := options.Find().
		SetSkip(int64(opts.Skip())).
		SetLimit(int64(opts.Limit))
	if dir := opts.SortDirection(); dir != 0 {
		findOpts.SetSort(bson.D{{Key: "price", Value: dir}, {Key: "_id", Value: 1}})
	}

	cursor, err := m.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return models.ProductPage{}, fmt.Errorf("búsqueda de productos: %w", err)
	}

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return models.ProductPage{}, fmt.Errorf("lectura de productos: %w", err)
	}

	products := make([]models.Product, len(docs))
	for i, d := range docs {
		products[i] = d.toModel()
	}
	return models.NewProductPage(products, int(total), opts), nil
}

func (m *ProductManager) GetProductByID(ctx context.Context, id string) (models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Product{}, fmt.Errorf("producto %s: %w", id, dao.ErrNotFound)
	}

	var doc productDocument
	err = m.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Product{}, fmt.Errorf("producto %s: %w", id, dao.ErrNotFound)
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("producto %s: %w", id, err)
	}
	return doc.toModel(), nil
}

func (m *ProductManager) AddProduct(ctx context.Context, p models.Product) (models.Product, error) {
	if field := p.Validate(); field != "" {
		return models.Product{}, fmt.Errorf("campo %s: %w", field, dao.ErrInvalidProduct)
	}
	if p.Thumbnails == nil {
		p.Thumbnails = []string{}
	}

	res, err := m.coll.InsertOne(ctx, productFromModel(p))
	if mongo.IsDuplicateKeyError(err) {
		return models.Product{}, fmt.Errorf("código %s: %w", p.Code, dao.ErrDuplicateCode)
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("alta de producto: %w", err)
	}

	p.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return p, nil
}

func (m *ProductManager) UpdateProduct(ctx context.Context, id string, u models.ProductUpdate) (models.Product, error) {
	current, err := m.GetProductByID(ctx, id)
	if err != nil {
		return models.Product{}, err
	}

	u.Apply(&current)
	if field := current.Validate(); field != "" {
		return models.Product{}, fmt.Errorf("campo %s: %w", field, dao.ErrInvalidProduct)
	}

	oid, _ := primitive.ObjectIDFromHex(id)
	res, err := m.coll.ReplaceOne(ctx, bson.M{"_id": oid}, productFromModel(current))
	if mongo.IsDuplicateKeyError(err) {
		return models.Product{}, fmt.Errorf("código %s: %w", current.Code, dao.ErrDuplicateCode)
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("actualización de producto %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return models.Product{}, fmt.Errorf("producto %s: %w", id, dao.ErrNotFound)
	}
	return current, nil
}

func (m *ProductManager) DeleteProduct(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("producto %s: %w", id, dao.ErrNotFound)
	}

	res, err := m.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("baja de producto %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("producto %s: %w", id, dao.ErrNotFound)
	}
	return nil
}

// ProductsByIDs loads the products referenced by ids in one query. Ids
// that are not valid ObjectIDs are skipped.
func (m *ProductManager) ProductsByIDs(ctx context.Context, ids []string) (map[string]models.Product, error) {
	out := make(map[string]models.Product, len(ids))
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return out, nil
	}

	cursor, err := m.coll.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	for _, d := range docs {
		p := d.toModel()
		out[p.ID] = p
	}
	return out, nil
}

func listFilter(opts models.QueryOptions) bson.M {
	query := strings.TrimSpace(opts.Query)
	switch {
	case query == "":
		return bson.M{}
	case opts.AvailabilityFilter():
		return bson.M{"status": true}
	}
	return bson.M{"category": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(query) + "$", Options: "i"}}
}
