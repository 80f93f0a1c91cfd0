package store

import (
	"context"
	"database/sql"

	"github.com/example/marketplace/internal/domain/cart"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresCartStore persists carts, one per buyer. The version column backs
// the checkout double-submission guard.
type PostgresCartStore struct {
	db *sql.DB
}

func NewPostgresCartStore(db *sql.DB) *PostgresCartStore {
	return &PostgresCartStore{db: db}
}

func (s *PostgresCartStore) GetByUser(ctx context.Context, userID string) (*cart.Cart, error) {
	var c cart.Cart
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, version, created_at, updated_at
		FROM carts WHERE user_id = $1
	`, userID).Scan(&c.ID, &c.UserID, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, cart.ErrCartNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, quantity FROM cart_items WHERE cart_id = $1 ORDER BY created_at
	`, c.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item cart.Item
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Quantity); err != nil {
			return nil, err
		}
		c.Items = append(c.Items, item)
	}
	return &c, rows.Err()
}

// EnsureCart creates the buyer's cart if missing. The unique constraint on
// user_id makes concurrent first-adds converge on a single cart.
func (s *PostgresCartStore) EnsureCart(ctx context.Context, userID string) (*cart.Cart, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO carts (id, user_id, version, created_at, updated_at)
		VALUES ($1, $2, 0, now(), now())
		ON CONFLICT (user_id) DO NOTHING
	`, uuid.New().String(), userID)
	if err != nil {
		return nil, err
	}
	return s.GetByUser(ctx, userID)
}

func (s *PostgresCartStore) PutItem(ctx context.Context, cartID string, item cart.Item) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cart_items (id, cart_id, product_id, quantity, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (id) DO UPDATE SET quantity = EXCLUDED.quantity
	`, item.ID, cartID, item.ProductID, item.Quantity)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			// Same product raced into the cart twice; fold into one row.
			_, err = s.db.ExecContext(ctx, `
				UPDATE cart_items SET quantity = $3 WHERE cart_id = $1 AND product_id = $2
			`, cartID, item.ProductID, item.Quantity)
		}
	}
	return err
}

func (s *PostgresCartStore) RemoveItem(ctx context.Context, cartID, itemID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE cart_id = $1 AND id = $2`, cartID, itemID)
	return err
}

func (s *PostgresCartStore) Clear(ctx context.Context, cartID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	return err
}

// BumpVersion is the atomic claim a checkout takes on the cart contents it
// read. A stale version means another checkout got there first.
func (s *PostgresCartStore) BumpVersion(ctx context.Context, cartID string, fromVersion int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE carts SET version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2
	`, cartID, fromVersion)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return cart.ErrVersionConflict
	}
	return nil
}

var _ cart.Store = (*PostgresCartStore)(nil)
