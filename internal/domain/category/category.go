package category

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrInvalidName      = errors.New("category name must be at least 3 characters")
	ErrDuplicateSlug    = errors.New("category slug already exists")
)

type Category struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Description   string    `json:"description"`
	Subcategories []string  `json:"subcategories,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Store interface {
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, c *Category) error
	GetByID(ctx context.Context, id string) (*Category, error)
	ListActive(ctx context.Context) ([]*Category, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Slugify converts a category name to its URL slug.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "-")
	return slug
}

func (s *Service) Create(ctx context.Context, name, description string, subcategories []string) (*Category, error) {
	name = strings.TrimSpace(name)
	if len(name) < 3 {
		return nil, ErrInvalidName
	}

	now := time.Now()
	c := &Category{
		ID:            uuid.New().String(),
		Name:          name,
		Slug:          Slugify(name),
		Description:   description,
		Subcategories: subcategories,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Update(ctx context.Context, id string, name, description *string, subcategories *[]string) (*Category, error) {
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if len(trimmed) < 3 {
			return nil, ErrInvalidName
		}
		c.Name = trimmed
		c.Slug = Slugify(trimmed)
	}
	if description != nil {
		c.Description = *description
	}
	if subcategories != nil {
		c.Subcategories = *subcategories
	}
	c.UpdatedAt = time.Now()

	if err := s.store.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Deactivate(ctx context.Context, id string) error {
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	c.IsActive = false
	c.UpdatedAt = time.Now()
	return s.store.Update(ctx, c)
}

// GetCategory satisfies the category reader port used by the product service.
func (s *Service) GetCategory(ctx context.Context, id string) (*Category, error) {
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.IsActive {
		return nil, ErrCategoryNotFound
	}
	return c, nil
}

func (s *Service) ListActive(ctx context.Context) ([]*Category, error) {
	return s.store.ListActive(ctx)
}
