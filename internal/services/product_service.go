package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tradegatehq/tradegate/internal/feed"
	"github.com/tradegatehq/tradegate/internal/models"
	apperrors "github.com/tradegatehq/tradegate/pkg/errors"
)

// CreateProductInput defines attributes accepted when creating a catalog item.
type CreateProductInput struct {
	Name        string
	Description string
	Category    string
	Specs       map[string]any
	ImageURL    string
	Status      string
}

// UpdateProductInput carries partial product changes. Nil fields are left
// untouched.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Category    *string
	Specs       map[string]any
	ImageURL    *string
	Status      *string
}

// ListProductsInput defines filters for browsing the catalog.
type ListProductsInput struct {
	Category string
	Status   string
	Search   string
}

// ProductService manages the product catalog.
type ProductService struct {
	db  *gorm.DB
	bus *feed.Bus
}

// NewProductService constructs a ProductService.
func NewProductService(db *gorm.DB, bus *feed.Bus) (*ProductService, error) {
	if db == nil {
		return nil, errors.New("product service: db is required")
	}
	return &ProductService{db: db, bus: bus}, nil
}

// Create persists a new catalog item.
func (s *ProductService) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("name is required")
	}

	specs, err := marshalSpecs(input.Specs)
	if err != nil {
		return nil, err
	}

	product := models.Product{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Category:    strings.TrimSpace(input.Category),
		Specs:       specs,
		ImageURL:    strings.TrimSpace(input.ImageURL),
		Status:      defaultIfEmpty(strings.TrimSpace(input.Status), models.StatusPending),
	}

	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, fmt.Errorf("product service: create product: %w", err)
	}

	s.publish(feed.Event{
		Kind:  feed.KindInsert,
		Table: product.TableName(),
		New:   feed.AsRow(product),
	})
	return &product, nil
}

// List returns catalog items matching the supplied filters, newest first.
func (s *ProductService) List(ctx context.Context, input ListProductsInput) ([]models.Product, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).Order("created_at DESC")
	if category := strings.TrimSpace(input.Category); category != "" {
		query = query.Where("category = ?", category)
	}
	if status := strings.TrimSpace(input.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if search := strings.TrimSpace(input.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("product service: list products: %w", err)
	}
	return products, nil
}

// GetByID loads a single catalog item.
func (s *ProductService) GetByID(ctx context.Context, id string) (*models.Product, error) {
	ctx = ensureContext(ctx)

	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("product service: load product: %w", err)
	}
	return &product, nil
}

// Update applies partial changes to a catalog item.
func (s *ProductService) Update(ctx context.Context, id string, input UpdateProductInput) (*models.Product, error) {
	ctx = ensureContext(ctx)

	product, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := feed.AsRow(*product)

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewBadRequest("name cannot be empty")
		}
		updates["name"] = name
		product.Name = name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
		product.Description = *input.Description
	}
	if input.Category != nil {
		updates["category"] = strings.TrimSpace(*input.Category)
		product.Category = updates["category"].(string)
	}
	if input.Specs != nil {
		specs, err := marshalSpecs(input.Specs)
		if err != nil {
			return nil, err
		}
		updates["specs"] = specs
		product.Specs = specs
	}
	if input.ImageURL != nil {
		updates["image_url"] = strings.TrimSpace(*input.ImageURL)
		product.ImageURL = updates["image_url"].(string)
	}
	if input.Status != nil {
		status := strings.TrimSpace(*input.Status)
		if status == "" {
			return nil, apperrors.NewBadRequest("status cannot be empty")
		}
		updates["status"] = status
		product.Status = status
	}
	if len(updates) == 0 {
		return product, nil
	}

	if err := s.db.WithContext(ctx).Model(product).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("product service: update product: %w", err)
	}

	s.publish(feed.Event{
		Kind:  feed.KindUpdate,
		Table: product.TableName(),
		Old:   previous,
		New:   feed.AsRow(*product),
	})
	return product, nil
}

// Delete removes a catalog item.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	product, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(product).Error; err != nil {
		return fmt.Errorf("product service: delete product: %w", err)
	}

	s.publish(feed.Event{
		Kind:  feed.KindDelete,
		Table: product.TableName(),
		Old:   feed.AsRow(*product),
	})
	return nil
}

func (s *ProductService) publish(evt feed.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(evt)
}

func marshalSpecs(specs map[string]any) (datatypes.JSON, error) {
	if specs == nil {
		return nil, nil
	}
	value, err := datatypes.NewJSONType(specs).MarshalJSON()
	if err != nil {
		return nil, apperrors.NewBadRequest("specs must be a JSON object")
	}
	return datatypes.JSON(value), nil
}
