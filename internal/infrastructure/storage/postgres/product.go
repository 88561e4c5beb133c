package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pricescout/backend/internal/domain"
)

const (
	productColumns = `id, name, description, quantity, purchase_price, sale_price,
		competitor_new_price, competitor_used_price, last_updated`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products ORDER BY seq`

	getProductSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	lockProductSQL = getProductSQL + ` FOR UPDATE`

	insertProductSQL = `INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	updateProductSQL = `UPDATE products SET
		name = $2, description = $3, quantity = $4, purchase_price = $5, sale_price = $6,
		competitor_new_price = $7, competitor_used_price = $8, last_updated = $9
		WHERE id = $1`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`

	deleteAllProductsSQL = `DELETE FROM products`
)

var _ domain.ProductRepository = (*ProductRepository)(nil)

// ProductRepository implements domain.ProductRepository backed by PostgreSQL.
// Insertion order is kept by an identity column.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products in insertion order.
func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Get returns a single product by its identifier.
func (r *ProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	rows, err := r.pool.Query(ctx, getProductSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// Create inserts a product.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	if _, err := r.pool.Exec(ctx, insertProductSQL, productArgs(p)...); err != nil {
		return fmt.Errorf("creating product %q: %w", p.ID, err)
	}
	return nil
}

// UpdateFunc locks the row, applies fn and writes the result in one transaction.
func (r *ProductRepository) UpdateFunc(ctx context.Context, id string, fn func(*domain.Product) error) (*domain.Product, error) {
	var updated domain.Product
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, lockProductSQL, id)
		if err != nil {
			return fmt.Errorf("locking product %q: %w", id, err)
		}
		p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrProductNotFound
			}
			return fmt.Errorf("locking product %q: %w", id, err)
		}

		if err := fn(&p); err != nil {
			return err
		}
		p.ID = id

		if _, err := tx.Exec(ctx, updateProductSQL, productArgs(&p)...); err != nil {
			return fmt.Errorf("updating product %q: %w", id, err)
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a product.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return fmt.Errorf("deleting product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// ReplaceAll swaps the whole list in one transaction, keeping slice order.
func (r *ProductRepository) ReplaceAll(ctx context.Context, products []domain.Product) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, deleteAllProductsSQL); err != nil {
			return fmt.Errorf("clearing products: %w", err)
		}

		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"products"},
			[]string{
				"id", "name", "description", "quantity", "purchase_price", "sale_price",
				"competitor_new_price", "competitor_used_price", "last_updated",
			},
			pgx.CopyFromSlice(len(products), func(i int) ([]any, error) {
				return productArgs(&products[i]), nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copying products: %w", err)
		}
		return nil
	})
}

func productArgs(p *domain.Product) []any {
	return []any{
		p.ID, p.Name, p.Description, p.Quantity, p.PurchasePrice, p.SalePrice,
		p.CompetitorNewPrice, p.CompetitorUsedPrice, p.LastUpdated,
	}
}

func scanProduct(row pgx.CollectableRow) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Quantity, &p.PurchasePrice, &p.SalePrice,
		&p.CompetitorNewPrice, &p.CompetitorUsedPrice, &p.LastUpdated,
	)
	return p, err
}
