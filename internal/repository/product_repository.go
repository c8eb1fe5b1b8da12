package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bazar/internal/domain"
)

const (
	stmtInsertProduct        = "insertProduct"
	stmtListProducts         = "listProducts"
	stmtListProductsByStatus = "listProductsByStatus"
	stmtGetProduct           = "getProductByID"
	stmtDeleteProduct        = "deleteProduct"
	stmtListPhotos           = "listProductPhotos"
)

const productColumns = `id, name, description, price, photo, status, created_at`

var productQueries = map[string]string{
	stmtInsertProduct: `
		INSERT INTO products (name, description, price, photo, status)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id, created_at
	`,
	stmtListProducts: `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`,
	stmtListProductsByStatus: `
		SELECT ` + productColumns + `
		FROM products
		WHERE status = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`,
	stmtGetProduct: `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = ?
	`,
	stmtDeleteProduct: `DELETE FROM products WHERE id = ?`,
	stmtListPhotos:    `SELECT photo FROM products WHERE photo IS NOT NULL`,
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	List(ctx context.Context, status *domain.ProductStatus, limit, offset int) ([]*domain.Product, error)
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	Delete(ctx context.Context, id int64) (int64, error)
	ListPhotos(ctx context.Context) ([]string, error)
}

type productRepository struct {
	stmts map[string]*sql.Stmt
}

// Create inserts a new product and fills in the generated ID and CreatedAt
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	err := r.stmts[stmtInsertProduct].QueryRowContext(
		ctx,
		product.Name,
		toNullString(product.Description),
		product.Price,
		toNullString(product.Photo),
		string(product.Status),
	).Scan(&product.ID, timestamp{&product.CreatedAt})

	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// List retrieves one page of products, newest first, optionally filtered by status
func (r *productRepository) List(ctx context.Context, status *domain.ProductStatus, limit, offset int) ([]*domain.Product, error) {
	var (
		rows *sql.Rows
		err  error
	)

	if status != nil {
		rows, err = r.stmts[stmtListProductsByStatus].QueryContext(ctx, string(*status), limit, offset)
	} else {
		rows, err = r.stmts[stmtListProducts].QueryContext(ctx, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// FindByID retrieves a product by ID
func (r *productRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := scanProduct(r.stmts[stmtGetProduct].QueryRowContext(ctx, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// Delete removes a product and, through the foreign key, its sales. It
// returns the number of product rows removed.
func (r *productRepository) Delete(ctx context.Context, id int64) (int64, error) {
	result, err := r.stmts[stmtDeleteProduct].ExecContext(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// ListPhotos returns every photo path still referenced by a product
func (r *productRepository) ListPhotos(ctx context.Context) ([]string, error) {
	rows, err := r.stmts[stmtListPhotos].QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list product photos: %w", err)
	}
	defer rows.Close()

	photos := []string{}
	for rows.Next() {
		var photo string
		if err := rows.Scan(&photo); err != nil {
			return nil, fmt.Errorf("failed to scan product photo: %w", err)
		}
		photos = append(photos, photo)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product photos: %w", err)
	}

	return photos, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		product     domain.Product
		description sql.NullString
		photo       sql.NullString
		status      string
	)

	err := row.Scan(
		&product.ID,
		&product.Name,
		&description,
		&product.Price,
		&photo,
		&status,
		timestamp{&product.CreatedAt},
	)
	if err != nil {
		return nil, err
	}

	product.Description = nullableString(description)
	product.Photo = nullableString(photo)
	product.Status = domain.ProductStatus(status)
	return &product, nil
}
