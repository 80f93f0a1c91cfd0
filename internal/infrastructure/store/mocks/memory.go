// Package mocks provides in-memory store implementations for tests. The
// conditional operations (stock decrement, version bump, status transitions)
// hold a mutex across check and write, so concurrency tests exercise the same
// atomicity contract the real backends provide.
package mocks

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/marketplace/internal/domain/cart"
	"github.com/example/marketplace/internal/domain/category"
	"github.com/example/marketplace/internal/domain/order"
	"github.com/example/marketplace/internal/domain/product"
	"github.com/example/marketplace/internal/domain/user"
)

// ProductStore is an in-memory product.Store.
type ProductStore struct {
	mu       sync.Mutex
	products map[string]*product.Product
}

func NewProductStore() *ProductStore {
	return &ProductStore{products: make(map[string]*product.Product)}
}

// Seed inserts a product directly, bypassing validation.
func (s *ProductStore) Seed(p *product.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.products[p.ID] = &cp
}

func (s *ProductStore) Create(ctx context.Context, p *product.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.products[p.ID] = &cp
	return nil
}

func (s *ProductStore) Update(ctx context.Context, p *product.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.products[p.ID]
	if !ok {
		return product.ErrProductNotFound
	}
	cp := *p
	cp.Stock = existing.Stock
	s.products[p.ID] = &cp
	return nil
}

func (s *ProductStore) GetByID(ctx context.Context, id string) (*product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *ProductStore) ListActive(ctx context.Context) ([]*product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*product.Product
	for _, p := range s.products {
		if p.IsActive {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *ProductStore) ListBySeller(ctx context.Context, sellerID string) ([]*product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*product.Product
	for _, p := range s.products {
		if p.SellerID == sellerID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *ProductStore) DecrementStock(ctx context.Context, id string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return product.ErrProductNotFound
	}
	if p.Stock < quantity {
		return product.ErrInsufficientStock
	}
	p.Stock -= quantity
	p.UpdatedAt = time.Now()
	return nil
}

func (s *ProductStore) IncrementStock(ctx context.Context, id string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return product.ErrProductNotFound
	}
	p.Stock += quantity
	p.UpdatedAt = time.Now()
	return nil
}

// Stock reads the current stock level for assertions.
func (s *ProductStore) Stock(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[id]; ok {
		return p.Stock
	}
	return 0
}

// CartStore is an in-memory cart.Store.
type CartStore struct {
	mu    sync.Mutex
	carts map[string]*cart.Cart // keyed by user ID
}

func NewCartStore() *CartStore {
	return &CartStore{carts: make(map[string]*cart.Cart)}
}

func (s *CartStore) GetByUser(ctx context.Context, userID string) (*cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[userID]
	if !ok {
		return nil, cart.ErrCartNotFound
	}
	return copyCart(c), nil
}

func (s *CartStore) EnsureCart(ctx context.Context, userID string) (*cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[userID]
	if !ok {
		now := time.Now()
		c = &cart.Cart{ID: uuid.New().String(), UserID: userID, CreatedAt: now, UpdatedAt: now}
		s.carts[userID] = c
	}
	return copyCart(c), nil
}

func (s *CartStore) PutItem(ctx context.Context, cartID string, item cart.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.byID(cartID)
	if c == nil {
		return cart.ErrCartNotFound
	}
	for i := range c.Items {
		if c.Items[i].ID == item.ID {
			c.Items[i] = item
			return nil
		}
	}
	c.Items = append(c.Items, item)
	return nil
}

func (s *CartStore) RemoveItem(ctx context.Context, cartID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.byID(cartID)
	if c == nil {
		return nil
	}
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *CartStore) Clear(ctx context.Context, cartID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.byID(cartID); c != nil {
		c.Items = nil
	}
	return nil
}

func (s *CartStore) BumpVersion(ctx context.Context, cartID string, fromVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.byID(cartID)
	if c == nil || c.Version != fromVersion {
		return cart.ErrVersionConflict
	}
	c.Version++
	c.UpdatedAt = time.Now()
	return nil
}

func (s *CartStore) byID(cartID string) *cart.Cart {
	for _, c := range s.carts {
		if c.ID == cartID {
			return c
		}
	}
	return nil
}

func copyCart(c *cart.Cart) *cart.Cart {
	cp := *c
	cp.Items = append([]cart.Item(nil), c.Items...)
	return &cp
}

// OrderStore is an in-memory order.Store.
type OrderStore struct {
	mu     sync.Mutex
	orders map[string]*order.Order

	// FailCreate forces Create to return this error, for compensation tests.
	FailCreate error
}

func NewOrderStore() *OrderStore {
	return &OrderStore{orders: make(map[string]*order.Order)}
}

func (s *OrderStore) Create(ctx context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreate != nil {
		return s.FailCreate
	}
	s.orders[o.ID] = copyOrder(o)
	return nil
}

func (s *OrderStore) GetByID(ctx context.Context, id string) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return copyOrder(o), nil
}

func (s *OrderStore) ListByUser(ctx context.Context, userID string) ([]*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*order.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, copyOrder(o))
		}
	}
	return out, nil
}

func (s *OrderStore) ListBySeller(ctx context.Context, sellerID string) ([]*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*order.Order
	for _, o := range s.orders {
		for _, item := range o.Items {
			if item.SellerID == sellerID {
				out = append(out, copyOrder(o))
				break
			}
		}
	}
	return out, nil
}

func (s *OrderStore) MarkCancelled(ctx context.Context, orderID, userID string) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok || o.UserID != userID {
		return nil, order.ErrOrderNotFound
	}
	if o.Status != order.StatusPending {
		return nil, order.ErrNotCancellable
	}
	o.Status = order.StatusCancelled
	o.UpdatedAt = time.Now()
	for i := range o.Items {
		o.Items[i].Status = order.ItemCancelled
	}
	return copyOrder(o), nil
}

func (s *OrderStore) GetItemForSeller(ctx context.Context, orderID, itemID, sellerID string) (*order.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return nil, order.ErrItemNotFound
	}
	for _, item := range o.Items {
		if item.ID == itemID && item.SellerID == sellerID {
			cp := item
			return &cp, nil
		}
	}
	return nil, order.ErrItemNotFound
}

func (s *OrderStore) SetItemStatus(ctx context.Context, orderID, itemID string, from, to order.ItemStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return order.ErrItemNotFound
	}
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			if o.Items[i].Status != from {
				return order.TransitionError(from, to)
			}
			o.Items[i].Status = to
			return nil
		}
	}
	return order.ErrItemNotFound
}

func copyOrder(o *order.Order) *order.Order {
	cp := *o
	cp.Items = append([]order.Item(nil), o.Items...)
	return &cp
}

// CategoryStore is an in-memory category.Store.
type CategoryStore struct {
	mu         sync.Mutex
	categories map[string]*category.Category
}

func NewCategoryStore() *CategoryStore {
	return &CategoryStore{categories: make(map[string]*category.Category)}
}

func (s *CategoryStore) Create(ctx context.Context, c *category.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.categories {
		if existing.Slug == c.Slug {
			return category.ErrDuplicateSlug
		}
	}
	cp := *c
	s.categories[c.ID] = &cp
	return nil
}

func (s *CategoryStore) Update(ctx context.Context, c *category.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; !ok {
		return category.ErrCategoryNotFound
	}
	cp := *c
	s.categories[c.ID] = &cp
	return nil
}

func (s *CategoryStore) GetByID(ctx context.Context, id string) (*category.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, category.ErrCategoryNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *CategoryStore) ListActive(ctx context.Context) ([]*category.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*category.Category
	for _, c := range s.categories {
		if c.IsActive {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

// UserStore is an in-memory user.Store.
type UserStore struct {
	mu       sync.Mutex
	users    map[string]*user.User
	sessions map[string]*user.Session
}

func NewUserStore() *UserStore {
	return &UserStore{
		users:    make(map[string]*user.User),
		sessions: make(map[string]*user.Session),
	}
}

func (s *UserStore) Create(ctx context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return user.ErrEmailTaken
		}
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *UserStore) List(ctx context.Context, role, search string) ([]*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	needle := strings.ToLower(search)
	var out []*user.User
	for _, u := range s.users {
		if role != "" && u.Role != role {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(u.Name), needle) &&
			!strings.Contains(strings.ToLower(u.Email), needle) {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (s *UserStore) SetActive(ctx context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.IsActive = active
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (s *UserStore) CreateSession(ctx context.Context, sess *user.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	s.sessions[sess.ID] = &cp
	return nil
}

func (s *UserStore) GetSession(ctx context.Context, id string) (*user.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, user.ErrSessionNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *UserStore) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *UserStore) DeleteSessionsByUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if sess.UserID == userID {
			delete(s.sessions, id)
		}
	}
	return nil
}

// Notifier records order events for assertions.
type Notifier struct {
	mu        sync.Mutex
	Placed    []*order.Order
	Cancelled []*order.Order
}

func NewNotifier() *Notifier { return &Notifier{} }

func (n *Notifier) OrderPlaced(o *order.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Placed = append(n.Placed, o)
}

func (n *Notifier) OrderCancelled(o *order.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Cancelled = append(n.Cancelled, o)
}

var (
	_ product.Store  = (*ProductStore)(nil)
	_ cart.Store     = (*CartStore)(nil)
	_ order.Store    = (*OrderStore)(nil)
	_ category.Store = (*CategoryStore)(nil)
	_ user.Store     = (*UserStore)(nil)
	_ order.Notifier = (*Notifier)(nil)
)
