// Package fs implements the product manager over a JSON file.
package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"storefront/internal/dao"
	"storefront/internal/models"
)

// ProductManager keeps the catalogue as a JSON array in a single file.
// The file is re-read on every call and rewritten atomically on mutation.
type ProductManager struct {
	path string
	mu   sync.RWMutex
}

var (
	_ dao.ProductRepository = (*ProductManager)(nil)
	_ dao.ProductLookup     = (*ProductManager)(nil)
)

func NewProductManager(path string) *ProductManager {
	return &ProductManager{path: path}
}

func (m *ProductManager) Path() string {
	return m.path
}

func (m *ProductManager) GetProducts(_ context.Context, opts models.QueryOptions) (models.ProductPage, error) {
	opts = opts.Normalized()

	m.mu.RLock()
	products, err := m.read()
	m.mu.RUnlock()
	if err != nil {
		return models.ProductPage{}, err
	}

	filtered := filter(products, opts)
	total := len(filtered)

	start := min(max(opts.Skip(), 0), total)
	end := total
	if opts.Limit < total-start {
		end = start + opts.Limit
	}

	return models.NewProductPage(filtered[start:end], total, opts), nil
}

func (m *ProductManager) GetProductByID(_ context.Context, id string) (models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	products, err := m.read()
	if err != nil {
		return models.Product{}, err
	}
	i := indexOf(products, id)
	if i < 0 {
		return models.Product{}, fmt.Errorf("producto %s: %w", id, dao.ErrNotFound)
	}
	return products[i], nil
}

// ProductsByIDs returns the products among ids that exist, keyed by id.
func (m *ProductManager) ProductsByIDs(_ context.Context, ids []string) (map[string]models.Product, error) {
	m.mu.RLock()
	products, err := m.read()
	m.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	out := make(map[string]models.Product, len(ids))
	for _, p := range products {
		if _, ok := wanted[p.ID]; ok {
			out[p.ID] = p
		}
	}
	return out, nil
}

func (m *ProductManager) AddProduct(_ context.Context, p models.Product) (models.Product, error) {
	if field := p.Validate(); field != "" {
		return models.Product{}, fmt.Errorf("campo %s: %w", field, dao.ErrInvalidProduct)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	products, err := m.read()
	if err != nil {
		return models.Product{}, err
	}
	if codeTaken(products, p.Code, "") {
		return models.Product{}, fmt.Errorf("código %s: %w", p.Code, dao.ErrDuplicateCode)
	}

	p.ID = strconv.Itoa(nextID(products))
	if p.Thumbnails == nil {
		p.Thumbnails = []string{}
	}
	products = append(products, p)

	if err := m.write(products); err != nil {
		return models.Product{}, err
	}
	return p, nil
}

func (m *ProductManager) UpdateProduct(_ context.Context, id string, u models.ProductUpdate) (models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	products, err := m.read()
	if err != nil {
		return models.Product{}, err
	}
	i := indexOf(products, id)
	if i < 0 {
		return models.Product{}, fmt.Errorf("producto %s: %w", id, dao.ErrNotFound)
	}

	updated := products[i]
	u.Apply(&updated)
	updated.ID = id
	if field := updated.Validate(); field != "" {
		return models.Product{}, fmt.Errorf("campo %s: %w", field, dao.ErrInvalidProduct)
	}
	if codeTaken(products, updated.Code, id) {
		return models.Product{}, fmt.Errorf("código %s: %w", updated.Code, dao.ErrDuplicateCode)
	}

	products[i] = updated
	if err := m.write(products); err != nil {
		return models.Product{}, err
	}
	return updated, nil
}

func (m *ProductManager) DeleteProduct(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	products, err := m.read()
	if err != nil {
		return err
	}
	i := indexOf(products, id)
	if i < 0 {
		return fmt.Errorf("producto %s: %w", id, dao.ErrNotFound)
	}

	products = append(products[:i], products[i+1:]...)
	return m.write(products)
}

func (m *ProductManager) read() ([]models.Product, error) {
	data, err := os.ReadFile(m.path)
	if errors.Is(err, iofs.ErrNotExist) {
		return []models.Product{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lectura de %s: %w", m.path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return []models.Product{}, nil
	}

	var products []models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("decodificación de %s: %w", m.path, err)
	}
	return products, nil
}

func (m *ProductManager) write(products []models.Product) error {
	data, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creación de %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".products-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), m.path)
}

func filter(products []models.Product, opts models.QueryOptions) []models.Product {
	out := make([]models.Product, 0, len(products))
	query := strings.TrimSpace(opts.Query)
	for _, p := range products {
		switch {
		case query == "":
		case opts.AvailabilityFilter():
			if !p.Status {
				continue
			}
		default:
			if !strings.EqualFold(p.Category, query) {
				continue
			}
		}
		out = append(out, p)
	}

	switch opts.SortDirection() {
	case 1:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case -1:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	}
	return out
}

func indexOf(products []models.Product, id string) int {
	for i, p := range products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func codeTaken(products []models.Product, code, exceptID string) bool {
	for _, p := range products {
		if p.Code == code && p.ID != exceptID {
			return true
		}
	}
	return false
}

func nextID(products []models.Product) int {
	highest := 0
	for _, p := range products {
		if n, err := strconv.Atoi(p.ID); err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1
}
