package store

import (
	"context"
	"database/sql"

	"github.com/example/marketplace/internal/domain/order"
)

// PostgresOrderStore persists the order ledger. Headers and line items live
// in separate tables; both carry a status column and the line rows carry the
// product snapshot taken at checkout.
type PostgresOrderStore struct {
	db *sql.DB
}

func NewPostgresOrderStore(db *sql.DB) *PostgresOrderStore {
	return &PostgresOrderStore{db: db}
}

func (s *PostgresOrderStore) Create(ctx context.Context, o *order.Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, total_amount, status, street, city, state, postal_code,
			payment_method, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, o.ID, o.UserID, o.TotalAmount, o.Status,
		o.ShippingAddress.Street, o.ShippingAddress.City, o.ShippingAddress.State, o.ShippingAddress.PostalCode,
		o.PaymentMethod, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return err
	}

	for _, item := range o.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, name, price, quantity, seller_id, image, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, item.ID, o.ID, item.ProductID, item.Name, item.Price, item.Quantity,
			item.SellerID, item.Image, item.Status)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

const orderColumns = `id, user_id, total_amount, status, street, city, state, postal_code, payment_method, created_at, updated_at`

func (s *PostgresOrderStore) GetByID(ctx context.Context, id string) (*order.Order, error) {
	o, err := s.scanOrder(s.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := s.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *PostgresOrderStore) ListByUser(ctx context.Context, userID string) ([]*order.Order, error) {
	return s.listOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (s *PostgresOrderStore) ListBySeller(ctx context.Context, sellerID string) ([]*order.Order, error) {
	return s.listOrders(ctx, `
		SELECT DISTINCT o.id, o.user_id, o.total_amount, o.status, o.street, o.city, o.state,
			o.postal_code, o.payment_method, o.created_at, o.updated_at
		FROM orders o
		INNER JOIN order_items oi ON oi.order_id = o.id
		WHERE oi.seller_id = $1
		ORDER BY o.created_at DESC
	`, sellerID)
}

// MarkCancelled claims the cancellation: the header moves from pending to
// cancelled and every line is cascaded to cancelled in the same transaction.
// The pre-cancellation lines are returned so the caller can restock them.
func (s *PostgresOrderStore) MarkCancelled(ctx context.Context, orderID, userID string) (*order.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var ownerID string
	var status order.Status
	err = tx.QueryRowContext(ctx,
		`SELECT user_id, status FROM orders WHERE id = $1 FOR UPDATE`, orderID).
		Scan(&ownerID, &status)
	if err == sql.ErrNoRows {
		return nil, order.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if ownerID != userID {
		return nil, order.ErrOrderNotFound
	}
	if status != order.StatusPending {
		return nil, order.ErrNotCancellable
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = $2, updated_at = now() WHERE id = $1
	`, orderID, order.StatusCancelled); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE order_items SET status = $2 WHERE order_id = $1
	`, orderID, order.ItemCancelled); err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, product_id, name, price, quantity, seller_id, image
		FROM order_items WHERE order_id = $1
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	o := &order.Order{ID: orderID, UserID: userID, Status: order.StatusCancelled}
	for rows.Next() {
		var item order.Item
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Name, &item.Price,
			&item.Quantity, &item.SellerID, &item.Image); err != nil {
			return nil, err
		}
		item.Status = order.ItemCancelled
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *PostgresOrderStore) GetItemForSeller(ctx context.Context, orderID, itemID, sellerID string) (*order.Item, error) {
	var item order.Item
	err := s.db.QueryRowContext(ctx, `
		SELECT id, product_id, name, price, quantity, seller_id, image, status
		FROM order_items WHERE id = $1 AND order_id = $2 AND seller_id = $3
	`, itemID, orderID, sellerID).Scan(&item.ID, &item.ProductID, &item.Name, &item.Price,
		&item.Quantity, &item.SellerID, &item.Image, &item.Status)
	if err == sql.ErrNoRows {
		return nil, order.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// SetItemStatus is conditional on the status the caller validated against,
// so a racing transition fails instead of silently overwriting.
func (s *PostgresOrderStore) SetItemStatus(ctx context.Context, orderID, itemID string, from, to order.ItemStatus) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE order_items SET status = $4 WHERE id = $2 AND order_id = $1 AND status = $3
	`, orderID, itemID, from, to)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return order.TransitionError(from, to)
	}
	return nil
}

func (s *PostgresOrderStore) scanOrder(row rowScanner) (*order.Order, error) {
	var o order.Order
	err := row.Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.Status,
		&o.ShippingAddress.Street, &o.ShippingAddress.City, &o.ShippingAddress.State,
		&o.ShippingAddress.PostalCode, &o.PaymentMethod, &o.CreatedAt, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, order.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *PostgresOrderStore) loadItems(ctx context.Context, o *order.Order) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, name, price, quantity, seller_id, image, status
		FROM order_items WHERE order_id = $1
	`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item order.Item
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Name, &item.Price,
			&item.Quantity, &item.SellerID, &item.Image, &item.Status); err != nil {
			return err
		}
		o.Items = append(o.Items, item)
	}
	return rows.Err()
}

func (s *PostgresOrderStore) listOrders(ctx context.Context, query string, args ...any) ([]*order.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*order.Order
	for rows.Next() {
		o, err := s.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, o := range orders {
		if err := s.loadItems(ctx, o); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

var _ order.Store = (*PostgresOrderStore)(nil)
