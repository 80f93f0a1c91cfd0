package store

import (
	"context"
	"database/sql"

	"github.com/example/marketplace/internal/domain/category"
	"github.com/example/marketplace/internal/domain/product"
	"github.com/lib/pq"
)

// PostgresCatalogStore persists products and categories. Stock changes go
// through conditional UPDATEs so concurrent writers can never drive a
// quantity negative.
type PostgresCatalogStore struct {
	db *sql.DB
}

func NewPostgresCatalogStore(db *sql.DB) *PostgresCatalogStore {
	return &PostgresCatalogStore{db: db}
}

const productColumns = `id, seller_id, name, description, price, stock, images, category_id, category_name, is_active, created_at, updated_at`

func (s *PostgresCatalogStore) Create(ctx context.Context, p *product.Product) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, p.ID, p.SellerID, p.Name, p.Description, p.Price, p.Stock, pq.Array(p.Images),
		p.CategoryID, p.CategoryName, p.IsActive, p.CreatedAt, p.UpdatedAt)
	return err
}

func (s *PostgresCatalogStore) Update(ctx context.Context, p *product.Product) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET
			name = $2, description = $3, price = $4, images = $5,
			category_id = $6, category_name = $7, is_active = $8, updated_at = $9
		WHERE id = $1
	`, p.ID, p.Name, p.Description, p.Price, pq.Array(p.Images),
		p.CategoryID, p.CategoryName, p.IsActive, p.UpdatedAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return product.ErrProductNotFound
	}
	return nil
}

func (s *PostgresCatalogStore) GetByID(ctx context.Context, id string) (*product.Product, error) {
	return s.scanProduct(s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
}

func (s *PostgresCatalogStore) ListActive(ctx context.Context) ([]*product.Product, error) {
	return s.listProducts(ctx,
		`SELECT `+productColumns+` FROM products WHERE is_active = true ORDER BY created_at DESC`)
}

func (s *PostgresCatalogStore) ListBySeller(ctx context.Context, sellerID string) ([]*product.Product, error) {
	return s.listProducts(ctx,
		`SELECT `+productColumns+` FROM products WHERE seller_id = $1 ORDER BY created_at DESC`, sellerID)
}

// DecrementStock takes quantity from a product in a single conditional
// statement. Zero affected rows means the product is gone or the remaining
// stock is smaller than the request; the two cases are told apart with a
// follow-up read.
func (s *PostgresCatalogStore) DecrementStock(ctx context.Context, id string, quantity int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2
	`, id, quantity)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
		return product.ErrInsufficientStock
	}
	return nil
}

func (s *PostgresCatalogStore) IncrementStock(ctx context.Context, id string, quantity int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id = $1
	`, id, quantity)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return product.ErrProductNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresCatalogStore) scanProduct(row rowScanner) (*product.Product, error) {
	var p product.Product
	err := row.Scan(&p.ID, &p.SellerID, &p.Name, &p.Description, &p.Price, &p.Stock,
		pq.Array(&p.Images), &p.CategoryID, &p.CategoryName, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, product.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresCatalogStore) listProducts(ctx context.Context, query string, args ...any) ([]*product.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*product.Product
	for rows.Next() {
		p, err := s.scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Category operations

func (s *PostgresCatalogStore) CreateCategory(ctx context.Context, c *category.Category) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, slug, description, subcategories, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, c.ID, c.Name, c.Slug, c.Description, pq.Array(c.Subcategories), c.IsActive, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return category.ErrDuplicateSlug
		}
		return err
	}
	return nil
}

func (s *PostgresCatalogStore) UpdateCategory(ctx context.Context, c *category.Category) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE categories SET
			name = $2, slug = $3, description = $4, subcategories = $5, is_active = $6, updated_at = $7
		WHERE id = $1
	`, c.ID, c.Name, c.Slug, c.Description, pq.Array(c.Subcategories), c.IsActive, c.UpdatedAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return category.ErrCategoryNotFound
	}
	return nil
}

func (s *PostgresCatalogStore) GetCategoryByID(ctx context.Context, id string) (*category.Category, error) {
	var c category.Category
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, slug, description, subcategories, is_active, created_at, updated_at
		FROM categories WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Slug, &c.Description, pq.Array(&c.Subcategories),
		&c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, category.ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PostgresCatalogStore) ListActiveCategories(ctx context.Context) ([]*category.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, slug, description, subcategories, is_active, created_at, updated_at
		FROM categories WHERE is_active = true ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*category.Category
	for rows.Next() {
		var c category.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, pq.Array(&c.Subcategories),
			&c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

// categoryStoreAdapter narrows the catalog store to the category.Store port.
type categoryStoreAdapter struct {
	catalog *PostgresCatalogStore
}

// NewPostgresCategoryStore returns a category.Store backed by the catalog
// store's category tables.
func NewPostgresCategoryStore(catalog *PostgresCatalogStore) category.Store {
	return &categoryStoreAdapter{catalog: catalog}
}

func (a *categoryStoreAdapter) Create(ctx context.Context, c *category.Category) error {
	return a.catalog.CreateCategory(ctx, c)
}

func (a *categoryStoreAdapter) Update(ctx context.Context, c *category.Category) error {
	return a.catalog.UpdateCategory(ctx, c)
}

func (a *categoryStoreAdapter) GetByID(ctx context.Context, id string) (*category.Category, error) {
	return a.catalog.GetCategoryByID(ctx, id)
}

func (a *categoryStoreAdapter) ListActive(ctx context.Context) ([]*category.Category, error) {
	return a.catalog.ListActiveCategories(ctx)
}

var _ product.Store = (*PostgresCatalogStore)(nil)
