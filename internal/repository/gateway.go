package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bazar/internal/database"
)

// Gateway owns every prepared statement used by the repositories. It is
// built once at startup and closed on shutdown.
type Gateway struct {
	stmts    map[string]*sql.Stmt
	products ProductRepository
	sales    SaleRepository
}

// NewGateway prepares all product and sale statements against db.
func NewGateway(ctx context.Context, db *sql.DB, dialect database.Dialect) (*Gateway, error) {
	queries := make(map[string]string, len(productQueries)+len(saleQueries))
	for name, q := range productQueries {
		queries[name] = q
	}
	for name, q := range saleQueries {
		queries[name] = q
	}

	g := &Gateway{stmts: make(map[string]*sql.Stmt, len(queries))}
	for name, query := range queries {
		stmt, err := db.PrepareContext(ctx, dialect.Rebind(query))
		if err != nil {
			closeErr := g.Close()
			return nil, errors.Join(fmt.Errorf("failed to prepare %s: %w", name, err), closeErr)
		}
		g.stmts[name] = stmt
	}

	g.products = &productRepository{stmts: g.stmts}
	g.sales = &saleRepository{stmts: g.stmts}
	return g, nil
}

// Products returns the product repository backed by the gateway.
func (g *Gateway) Products() ProductRepository {
	return g.products
}

// Sales returns the sale repository backed by the gateway.
func (g *Gateway) Sales() SaleRepository {
	return g.sales
}

// Close releases every prepared statement.
func (g *Gateway) Close() error {
	var errs []error
	for name, stmt := range g.stmts {
		if err := stmt.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %s: %w", name, err))
		}
		delete(g.stmts, name)
	}
	return errors.Join(errs...)
}
