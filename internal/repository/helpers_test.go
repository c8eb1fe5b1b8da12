package repository

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"bazar/internal/config"
	"bazar/internal/database"
	"bazar/internal/domain"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestGateway opens a migrated SQLite database in a temp dir.
func newTestGateway(t *testing.T) (*Gateway, *sql.DB) {
	t.Helper()

	svc, err := database.New(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "bazar.db"),
	})
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(svc.DB(), svc.Dialect(), zap.NewNop()))

	gw, err := NewGateway(context.Background(), svc.DB(), svc.Dialect())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = gw.Close()
		_ = svc.Close()
	})
	return gw, svc.DB()
}

func strPtr(s string) *string {
	return &s
}

func createProduct(t *testing.T, repo ProductRepository, name string, status domain.ProductStatus) *domain.Product {
	t.Helper()

	product := &domain.Product{
		Name:   name,
		Price:  9.99,
		Status: status,
	}
	require.NoError(t, repo.Create(context.Background(), product))
	return product
}

func productNames(products []*domain.Product) []string {
	names := make([]string, len(products))
	for i, p := range products {
		names[i] = p.Name
	}
	return names
}

func seqNames(from, to int) []string {
	var names []string
	if from <= to {
		for i := from; i <= to; i++ {
			names = append(names, fmt.Sprintf("product %02d", i))
		}
		return names
	}
	for i := from; i >= to; i-- {
		names = append(names, fmt.Sprintf("product %02d", i))
	}
	return names
}
