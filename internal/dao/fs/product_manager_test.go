package fs

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/dao"
	"storefront/internal/models"
)

func newManager(t *testing.T) *ProductManager {
	t.Helper()
	return NewProductManager(filepath.Join(t.TempDir(), "data", "products.json"))
}

func product(code string, price float64, category string) models.Product {
	return models.Product{
		Title:       "Producto " + code,
		Description: "Descripción " + code,
		Price:       price,
		Code:        code,
		Stock:       10,
		Category:    category,
		Status:      true,
	}
}

func TestProductManagerMissingFileIsEmpty(t *testing.T) {
	m := newManager(t)

	page, err := m.GetProducts(context.Background(), models.QueryOptions{})
	require.NoError(t, err)
	assert.Empty(t, page.Products)
	assert.Equal(t, 1, page.TotalPages)
}

func TestProductManagerAddAssignsIncrementalIDs(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	first, err := m.AddProduct(ctx, product("A1", 10, "ropa"))
	require.NoError(t, err)
	second, err := m.AddProduct(ctx, product("A2", 20, "ropa"))
	require.NoError(t, err)

	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "2", second.ID)
	assert.NotNil(t, first.Thumbnails)

	_, err = os.Stat(m.Path())
	assert.NoError(t, err)

	reopened := NewProductManager(m.Path())
	got, err := reopened.GetProductByID(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "A2", got.Code)
}

func TestProductManagerRejectsInvalidAndDuplicate(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	_, err := m.AddProduct(ctx, models.Product{Title: "sin código"})
	assert.ErrorIs(t, err, dao.ErrInvalidProduct)

	_, err = m.AddProduct(ctx, product("X", 10, "ropa"))
	require.NoError(t, err)
	_, err = m.AddProduct(ctx, product("X", 12, "ropa"))
	assert.ErrorIs(t, err, dao.ErrDuplicateCode)
}

func TestProductManagerPagination(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)
	for i := 1; i <= 12; i++ {
		_, err := m.AddProduct(ctx, product(fmt.Sprintf("P%02d", i), float64(i), "ropa"))
		require.NoError(t, err)
	}

	page, err := m.GetProducts(ctx, models.QueryOptions{Limit: 5, Page: 2})
	require.NoError(t, err)
	assert.Len(t, page.Products, 5)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 12, page.TotalDocs)
	assert.True(t, page.HasPrevPage)
	assert.True(t, page.HasNextPage)
	assert.Equal(t, "P06", page.Products[0].Code)

	last, err := m.GetProducts(ctx, models.QueryOptions{Limit: 5, Page: 3})
	require.NoError(t, err)
	assert.Len(t, last.Products, 2)
	assert.False(t, last.HasNextPage)

	beyond, err := m.GetProducts(ctx, models.QueryOptions{Limit: 5, Page: 7})
	require.NoError(t, err)
	assert.Empty(t, beyond.Products)
}

func TestProductManagerHugePageAndLimit(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)
	for i := 1; i <= 3; i++ {
		_, err := m.AddProduct(ctx, product(fmt.Sprintf("P%02d", i), float64(i), "ropa"))
		require.NoError(t, err)
	}

	for _, raw := range []string{
		"limit=10&page=9223372036854775807",
		"limit=9223372036854775807&page=2",
		"limit=9223372036854775807&page=9223372036854775807",
	} {
		values, err := url.ParseQuery(raw)
		require.NoError(t, err)

		page, err := m.GetProducts(ctx, models.ParseQueryOptions(values))
		require.NoError(t, err, raw)
		assert.Empty(t, page.Products, raw)
		assert.Equal(t, 3, page.TotalDocs, raw)
	}

	all, err := m.GetProducts(ctx, models.QueryOptions{Limit: math.MaxInt, Page: 1})
	require.NoError(t, err)
	assert.Len(t, all.Products, 3)
	assert.Equal(t, models.MaxLimit, all.Limit)
}

func TestProductManagerSortAndFilter(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)
	_, _ = m.AddProduct(ctx, product("B", 30, "ropa"))
	_, _ = m.AddProduct(ctx, product("A", 10, "calzado"))
	unavailable := product("C", 20, "Ropa")
	unavailable.Status = false
	_, _ = m.AddProduct(ctx, unavailable)

	asc, err := m.GetProducts(ctx, models.QueryOptions{Sort: "asc"})
	require.NoError(t, err)
	require.Len(t, asc.Products, 3)
	assert.Equal(t, []string{"A", "C", "B"}, codes(asc.Products))

	desc, err := m.GetProducts(ctx, models.QueryOptions{Sort: "desc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C", "A"}, codes(desc.Products))

	ropa, err := m.GetProducts(ctx, models.QueryOptions{Query: "ropa"})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, codes(ropa.Products))

	available, err := m.GetProducts(ctx, models.QueryOptions{Query: "disponible"})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, codes(available.Products))
}

func TestProductManagerUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)
	p, err := m.AddProduct(ctx, product("U1", 10, "ropa"))
	require.NoError(t, err)
	_, err = m.AddProduct(ctx, product("U2", 10, "ropa"))
	require.NoError(t, err)

	price := 99.5
	updated, err := m.UpdateProduct(ctx, p.ID, models.ProductUpdate{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, 99.5, updated.Price)
	assert.Equal(t, p.ID, updated.ID)

	taken := "U2"
	_, err = m.UpdateProduct(ctx, p.ID, models.ProductUpdate{Code: &taken})
	assert.ErrorIs(t, err, dao.ErrDuplicateCode)

	_, err = m.UpdateProduct(ctx, "404", models.ProductUpdate{Price: &price})
	assert.ErrorIs(t, err, dao.ErrNotFound)

	require.NoError(t, m.DeleteProduct(ctx, p.ID))
	_, err = m.GetProductByID(ctx, p.ID)
	assert.ErrorIs(t, err, dao.ErrNotFound)
	assert.ErrorIs(t, m.DeleteProduct(ctx, p.ID), dao.ErrNotFound)
}

func TestProductManagerCorruptFile(t *testing.T) {
	m := newManager(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(m.Path()), 0o755))
	require.NoError(t, os.WriteFile(m.Path(), []byte("{not json"), 0o600))

	_, err := m.GetProducts(context.Background(), models.QueryOptions{})
	assert.Error(t, err)
}

func codes(products []models.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Code
	}
	return out
}

func TestProductManagerProductsByIDs(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)
	a, err := m.AddProduct(ctx, product("A", 1, "x"))
	require.NoError(t, err)
	_, err = m.AddProduct(ctx, product("B", 2, "x"))
	require.NoError(t, err)

	got, err := m.ProductsByIDs(ctx, []string{a.ID, "404"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "A", got[a.ID].Code)
}
