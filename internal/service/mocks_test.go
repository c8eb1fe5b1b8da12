package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"bazar/internal/domain"
	"bazar/internal/repository"
	"bazar/internal/upload"
)

var errStorage = errors.New("storage unavailable")

// Mock repositories for testing
type mockProductRepository struct {
	mu        sync.Mutex
	products  map[int64]*domain.Product
	nextID    int64
	createErr error
	listErr   error
	// deleteMisses simulates a concurrent delete between lookup and delete.
	deleteMisses bool
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[int64]*domain.Product)}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	product.ID = m.nextID
	product.CreatedAt = time.Now().UTC()
	stored := *product
	m.products[product.ID] = &stored
	return nil
}

func (m *mockProductRepository) List(ctx context.Context, status *domain.ProductStatus, limit, offset int) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*domain.Product
	for _, p := range m.products {
		if status == nil || p.Status == *status {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if offset >= len(out) {
		return []*domain.Product{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteMisses {
		return 0, nil
	}
	if _, ok := m.products[id]; !ok {
		return 0, nil
	}
	delete(m.products, id)
	return 1, nil
}

func (m *mockProductRepository) ListPhotos(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var photos []string
	for _, p := range m.products {
		if p.Photo != nil {
			photos = append(photos, *p.Photo)
		}
	}
	return photos, nil
}

type mockSaleRepository struct {
	mu        sync.Mutex
	sales     []*domain.Sale
	products  *mockProductRepository
	createErr error
	countErr  error
}

func newMockSaleRepository(products *mockProductRepository) *mockSaleRepository {
	return &mockSaleRepository{products: products}
}

func (m *mockSaleRepository) Create(ctx context.Context, sale *domain.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, err := m.products.FindByID(ctx, sale.ProductID); err != nil {
		return repository.ErrProductNotFound
	}
	sale.ID = int64(len(m.sales) + 1)
	sale.SaleDate = time.Now().UTC()
	m.sales = append(m.sales, sale)
	return nil
}

func (m *mockSaleRepository) List(ctx context.Context, limit, offset int) ([]*domain.SaleDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.SaleDetail{}
	for i := len(m.sales) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		s := m.sales[i]
		p, _ := m.products.FindByID(ctx, s.ProductID)
		detail := &domain.SaleDetail{Sale: *s}
		if p != nil {
			detail.ProductName = p.Name
			detail.ProductPhoto = p.Photo
		}
		out = append(out, detail)
	}
	return out, nil
}

func (m *mockSaleRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.countErr != nil {
		return 0, m.countErr
	}
	return len(m.sales), nil
}

// fakePhotoStore records saved and removed paths instead of touching disk.
type fakePhotoStore struct {
	mu        sync.Mutex
	saved     []string
	removed   []string
	saveErr   error
	removeErr error
}

func (f *fakePhotoStore) Save(in upload.Incoming) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return "", f.saveErr
	}
	path := upload.URLPrefix + "0123456789abcdef.png"
	f.saved = append(f.saved, path)
	return path, nil
}

func (f *fakePhotoStore) Remove(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, path)
	return f.removeErr
}
