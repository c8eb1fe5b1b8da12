package repository

import (
	"context"
	"database/sql"
	"fmt"

	"bazar/internal/domain"
)

const (
	stmtInsertSale = "insertSale"
	stmtListSales  = "listSales"
	stmtCountSales = "countSales"
)

var saleQueries = map[string]string{
	stmtInsertSale: `
		INSERT INTO sales (product_id, quantity, total)
		VALUES (?, ?, ?)
		RETURNING id, sale_date
	`,
	stmtListSales: `
		SELECT s.id, s.product_id, s.quantity, s.total, s.sale_date, p.name, p.photo
		FROM sales s
		JOIN products p ON s.product_id = p.id
		ORDER BY s.sale_date DESC, s.id DESC
		LIMIT ? OFFSET ?
	`,
	stmtCountSales: `SELECT COUNT(*) FROM sales`,
}

// SaleRepository defines the interface for sale data access
type SaleRepository interface {
	Create(ctx context.Context, sale *domain.Sale) error
	List(ctx context.Context, limit, offset int) ([]*domain.SaleDetail, error)
	Count(ctx context.Context) (int, error)
}

type saleRepository struct {
	stmts map[string]*sql.Stmt
}

// Create inserts a new sale and fills in the generated ID and SaleDate. A
// sale referencing a missing product yields ErrProductNotFound.
func (r *saleRepository) Create(ctx context.Context, sale *domain.Sale) error {
	err := r.stmts[stmtInsertSale].QueryRowContext(
		ctx,
		sale.ProductID,
		sale.Quantity,
		sale.Total,
	).Scan(&sale.ID, timestamp{&sale.SaleDate})

	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to create sale: %w", err)
	}

	return nil
}

// List retrieves one page of sales with their product name and photo, newest first
func (r *saleRepository) List(ctx context.Context, limit, offset int) ([]*domain.SaleDetail, error) {
	rows, err := r.stmts[stmtListSales].QueryContext(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	defer rows.Close()

	sales := []*domain.SaleDetail{}
	for rows.Next() {
		var (
			sale  domain.SaleDetail
			photo sql.NullString
		)
		err := rows.Scan(
			&sale.ID,
			&sale.ProductID,
			&sale.Quantity,
			&sale.Total,
			timestamp{&sale.SaleDate},
			&sale.ProductName,
			&photo,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sale.ProductPhoto = nullableString(photo)
		sales = append(sales, &sale)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sales: %w", err)
	}

	return sales, nil
}

// Count returns the total number of recorded sales
func (r *saleRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.stmts[stmtCountSales].QueryRowContext(ctx).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count sales: %w", err)
	}
	return total, nil
}
