package service

import (
	"context"
	"errors"

	"go-sales-ledger/internal/apperr"
	"go-sales-ledger/internal/model"
	"go-sales-ledger/internal/repository"
	"go-sales-ledger/internal/ws"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const msgProductNotFound = "Product not found"

type ProductRequest struct {
	Name string `json:"name" validate:"required,notblank,min=3,max=255"`
}

// ProductService manages the caller's catalog. Every operation is scoped to
// caller.UserID; other users' products behave as if they did not exist.
type ProductService interface {
	List(ctx context.Context, caller model.Caller, params ListParams) (*Page[model.Product], error)
	Get(ctx context.Context, caller model.Caller, id uuid.UUID) (*model.Product, error)
	Create(ctx context.Context, caller model.Caller, req ProductRequest) (*model.Product, error)
	Update(ctx context.Context, caller model.Caller, id uuid.UUID, req ProductRequest) (*model.Product, error)
	Delete(ctx context.Context, caller model.Caller, id uuid.UUID) error
}

type productService struct {
	productRepo repository.ProductRepository
	db          *gorm.DB
	notifier    Notifier
}

func NewProductService(productRepo repository.ProductRepository, db *gorm.DB, notifier Notifier) ProductService {
	return &productService{
		productRepo: productRepo,
		db:          db,
		notifier:    notifierOrNop(notifier),
	}
}

func (s *productService) List(ctx context.Context, caller model.Caller, params ListParams) (*Page[model.Product], error) {
	params = params.Normalize()
	products, total, err := s.productRepo.List(ctx, params.query(caller.UserID))
	if err != nil {
		return nil, apperr.Internal("Failed to fetch products", err)
	}
	if total == 0 {
		return nil, apperr.NotFound("No products found")
	}
	return newPage(products, total, params), nil
}

func (s *productService) Get(ctx context.Context, caller model.Caller, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id, caller.UserID)
	if err != nil {
		return nil, storeError(err, msgProductNotFound, "Failed to fetch products")
	}
	return product, nil
}

func (s *productService) Create(ctx context.Context, caller model.Caller, req ProductRequest) (*model.Product, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}

	product := &model.Product{Name: req.Name, UserID: caller.UserID}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, apperr.Internal("Failed to create product", err)
	}

	s.notifier.Publish(caller.UserID, ws.ProductCreated, product)
	return product, nil
}

func (s *productService) Update(ctx context.Context, caller model.Caller, id uuid.UUID, req ProductRequest) (*model.Product, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}

	if err := s.productRepo.UpdateName(ctx, id, caller.UserID, req.Name); err != nil {
		return nil, storeError(err, msgProductNotFound, "Failed to update product")
	}

	product, err := s.productRepo.FindByID(ctx, id, caller.UserID)
	if err != nil {
		return nil, storeError(err, msgProductNotFound, "Failed to update product")
	}

	s.notifier.Publish(caller.UserID, ws.ProductUpdated, product)
	return product, nil
}

// Delete removes the product together with the line items that reference it.
func (s *productService) Delete(ctx context.Context, caller model.Caller, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.productRepo.WithTx(tx).Delete(ctx, id, caller.UserID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound(msgProductNotFound)
		}
		return apperr.Internal("Failed to delete product", err)
	}

	s.notifier.Publish(caller.UserID, ws.ProductDeleted, map[string]interface{}{"id": id})
	return nil
}
