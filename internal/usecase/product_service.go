package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pricescout/backend/internal/domain"
)

// ProductInput is the editable part of a product
type ProductInput struct {
	Name          string          `json:"name" validate:"required,max=200"`
	Description   string          `json:"description" validate:"max=2000"`
	Quantity      int             `json:"quantity" validate:"gte=0"`
	PurchasePrice decimal.Decimal `json:"purchasePrice" validate:"min=0"`
	SalePrice     decimal.Decimal `json:"salePrice" validate:"min=0"`
}

// ProductPatch changes only the fields that are set
type ProductPatch struct {
	Name          *string          `json:"name" validate:"omitnil,min=1,max=200"`
	Description   *string          `json:"description" validate:"omitnil,max=2000"`
	Quantity      *int             `json:"quantity" validate:"omitnil,gte=0"`
	PurchasePrice *decimal.Decimal `json:"purchasePrice" validate:"omitnil,min=0"`
	SalePrice     *decimal.Decimal `json:"salePrice" validate:"omitnil,min=0"`
}

func (p ProductPatch) empty() bool {
	return p.Name == nil && p.Description == nil && p.Quantity == nil &&
		p.PurchasePrice == nil && p.SalePrice == nil
}

// ProductService manages the tracked product list
type ProductService struct {
	products domain.ProductRepository
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// NewProductService creates a product service
func NewProductService(products domain.ProductRepository, logger *zap.Logger) *ProductService {
	return &ProductService{
		products: products,
		validate: NewValidator(),
		logger:   logger.Named("products"),
		now:      time.Now,
	}
}

// List returns products in insertion order
func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	return s.products.List(ctx)
}

// Get returns one product
func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.Get(ctx, id)
}

// Create validates input and stores a new product. Competitor prices start unknown.
func (s *ProductService) Create(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	p := &domain.Product{
		ID:            uuid.NewString(),
		Name:          in.Name,
		Description:   in.Description,
		Quantity:      in.Quantity,
		PurchasePrice: in.PurchasePrice,
		SalePrice:     in.SalePrice,
		LastUpdated:   s.now().UTC(),
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.logger.Info("product created", zap.String("id", p.ID), zap.String("name", p.Name))
	return p, nil
}

// Update replaces the editable fields of a product
func (s *ProductService) Update(ctx context.Context, id string, in ProductInput) (*domain.Product, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	p, err := s.products.UpdateFunc(ctx, id, func(p *domain.Product) error {
		p.Name = in.Name
		p.Description = in.Description
		p.Quantity = in.Quantity
		p.PurchasePrice = in.PurchasePrice
		p.SalePrice = in.SalePrice
		p.LastUpdated = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

// Patch applies the set fields of patch
func (s *ProductService) Patch(ctx context.Context, id string, patch ProductPatch) (*domain.Product, error) {
	if patch.empty() {
		return nil, fmt.Errorf("%w: no fields to update", domain.ErrInvalidRequest)
	}
	if err := s.validate.Struct(patch); err != nil {
		return nil, validationError(err)
	}

	p, err := s.products.UpdateFunc(ctx, id, func(p *domain.Product) error {
		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.Description != nil {
			p.Description = *patch.Description
		}
		if patch.Quantity != nil {
			p.Quantity = *patch.Quantity
		}
		if patch.PurchasePrice != nil {
			p.PurchasePrice = *patch.PurchasePrice
		}
		if patch.SalePrice != nil {
			p.SalePrice = *patch.SalePrice
		}
		p.LastUpdated = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("patch product: %w", err)
	}
	return p, nil
}

// Delete removes a product
func (s *ProductService) Delete(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("product deleted", zap.String("id", id))
	return nil
}

// Export returns the full product list
func (s *ProductService) Export(ctx context.Context) ([]domain.Product, error) {
	return s.products.List(ctx)
}

// Import replaces the product list. Every item is validated before anything
// is written; items without an id get a fresh one.
func (s *ProductService) Import(ctx context.Context, products []domain.Product) (int, error) {
	now := s.now().UTC()
	seen := make(map[string]bool, len(products))

	for i := range products {
		p := &products[i]
		if err := s.validate.Struct(p); err != nil {
			return 0, fmt.Errorf("item %d: %w", i, validationError(err))
		}
		if p.ID == "" || seen[p.ID] {
			p.ID = uuid.NewString()
		}
		seen[p.ID] = true
		if p.LastUpdated.IsZero() {
			p.LastUpdated = now
		}
	}

	if err := s.products.ReplaceAll(ctx, products); err != nil {
		return 0, fmt.Errorf("import products: %w", err)
	}

	s.logger.Info("products imported", zap.Int("count", len(products)))
	return len(products), nil
}
