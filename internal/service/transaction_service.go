package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-sales-ledger/internal/apperr"
	"go-sales-ledger/internal/model"
	"go-sales-ledger/internal/repository"
	"go-sales-ledger/internal/ws"
	"go-sales-ledger/pkg/metrics"
	"go-sales-ledger/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const msgTransactionNotFound = "Transaction not found"

type LineItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  *int   `json:"quantity" validate:"required,min=1"`
	Price     *int   `json:"price" validate:"required,min=0"`
}

// TransactionRequest is the body of both create and update.
type TransactionRequest struct {
	InvoiceNo string            `json:"invoiceNo" validate:"required,notblank"`
	Date      string            `json:"date" validate:"required,isodate"`
	Customer  string            `json:"customer" validate:"required,notblank"`
	Products  []LineItemRequest `json:"products" validate:"required,min=1,dive"`
}

// productIDs returns the referenced ids in input order, duplicates kept.
// Call it only on a validated request.
func (r TransactionRequest) productIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.Products))
	for _, item := range r.Products {
		ids = append(ids, uuid.MustParse(item.ProductID))
	}
	return ids
}

func (r TransactionRequest) lineItems(transactionID uuid.UUID) []model.TransactionProduct {
	items := make([]model.TransactionProduct, 0, len(r.Products))
	for _, item := range r.Products {
		items = append(items, model.TransactionProduct{
			Quantity:      *item.Quantity,
			Price:         *item.Price,
			ProductID:     uuid.MustParse(item.ProductID),
			TransactionID: transactionID,
		})
	}
	return items
}

// TransactionService is the ledger: the transaction writer plus owner-scoped
// reads and deletes.
type TransactionService interface {
	List(ctx context.Context, caller model.Caller, params ListParams) (*Page[model.Transaction], error)
	Get(ctx context.Context, caller model.Caller, id uuid.UUID) (*model.Transaction, error)
	Create(ctx context.Context, caller model.Caller, req TransactionRequest) (*model.Transaction, error)
	Update(ctx context.Context, caller model.Caller, id uuid.UUID, req TransactionRequest) (*model.Transaction, error)
	Delete(ctx context.Context, caller model.Caller, id uuid.UUID) error
}

type transactionService struct {
	productRepo     repository.ProductRepository
	transactionRepo repository.TransactionRepository
	db              *gorm.DB
	notifier        Notifier
	metrics         *metrics.Metrics
}

func NewTransactionService(
	productRepo repository.ProductRepository,
	transactionRepo repository.TransactionRepository,
	db *gorm.DB,
	notifier Notifier,
	m *metrics.Metrics,
) TransactionService {
	return &transactionService{
		productRepo:     productRepo,
		transactionRepo: transactionRepo,
		db:              db,
		notifier:        notifierOrNop(notifier),
		metrics:         m,
	}
}

func (s *transactionService) List(ctx context.Context, caller model.Caller, params ListParams) (*Page[model.Transaction], error) {
	params = params.Normalize()
	transactions, total, err := s.transactionRepo.List(ctx, params.query(caller.UserID))
	if err != nil {
		return nil, apperr.Internal("Failed to fetch transactions", err)
	}
	if total == 0 {
		return nil, apperr.NotFound("No Transactions found")
	}
	return newPage(transactions, total, params), nil
}

func (s *transactionService) Get(ctx context.Context, caller model.Caller, id uuid.UUID) (*model.Transaction, error) {
	transaction, err := s.transactionRepo.FindByID(ctx, id, caller.UserID)
	if err != nil {
		return nil, storeError(err, msgTransactionNotFound, "Failed to get transaction")
	}
	return transaction, nil
}

func (s *transactionService) Create(ctx context.Context, caller model.Caller, req TransactionRequest) (*model.Transaction, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}
	date, _ := validator.ParseDate(req.Date)

	var id uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger := s.transactionRepo.WithTx(tx)

		// 1. Every referenced product must exist and belong to the caller
		if err := s.checkProducts(ctx, s.productRepo.WithTx(tx), caller.UserID, req.productIDs()); err != nil {
			return err
		}

		// 2. Header
		header := &model.Transaction{
			InvoiceNo: req.InvoiceNo,
			Date:      date,
			Customer:  req.Customer,
			UserID:    caller.UserID,
		}
		if err := ledger.CreateHeader(ctx, header); err != nil {
			return err
		}

		// 3. One row per line item
		if err := ledger.CreateItems(ctx, req.lineItems(header.ID)); err != nil {
			return err
		}

		id = header.ID
		return nil
	})
	s.metrics.LedgerWrite("create", err)
	if err != nil {
		return nil, writeError(err, "Failed to create transaction")
	}

	created, err := s.transactionRepo.FindByID(ctx, id, caller.UserID)
	if err != nil {
		return nil, storeError(err, msgTransactionNotFound, "Failed to get transaction")
	}

	s.notifier.Publish(caller.UserID, ws.TransactionCreated, created)
	return created, nil
}

// Update replaces the header fields and the full set of line items.
func (s *transactionService) Update(ctx context.Context, caller model.Caller, id uuid.UUID, req TransactionRequest) (*model.Transaction, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}
	date, _ := validator.ParseDate(req.Date)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger := s.transactionRepo.WithTx(tx)

		// 1. Products are checked before anything is touched
		if err := s.checkProducts(ctx, s.productRepo.WithTx(tx), caller.UserID, req.productIDs()); err != nil {
			return err
		}

		// 2. Target must be the caller's
		ok, err := ledger.Exists(ctx, id, caller.UserID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound(msgTransactionNotFound)
		}

		// 3. Drop old items, rewrite header, insert new items
		if err := ledger.DeleteItems(ctx, id); err != nil {
			return err
		}
		header := &model.Transaction{
			InvoiceNo: req.InvoiceNo,
			Date:      date,
			Customer:  req.Customer,
			UserID:    caller.UserID,
		}
		header.ID = id
		if err := ledger.UpdateHeader(ctx, header); err != nil {
			return err
		}
		return ledger.CreateItems(ctx, req.lineItems(id))
	})
	s.metrics.LedgerWrite("update", err)
	if err != nil {
		return nil, writeError(err, "Failed to update transaction")
	}

	updated, err := s.transactionRepo.FindByID(ctx, id, caller.UserID)
	if err != nil {
		return nil, storeError(err, msgTransactionNotFound, "Failed to get transaction")
	}

	s.notifier.Publish(caller.UserID, ws.TransactionUpdated, updated)
	return updated, nil
}

func (s *transactionService) Delete(ctx context.Context, caller model.Caller, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.transactionRepo.WithTx(tx).Delete(ctx, id, caller.UserID)
	})
	s.metrics.LedgerWrite("delete", err)
	if err != nil {
		return writeError(err, "Failed to delete transaction")
	}

	s.notifier.Publish(caller.UserID, ws.TransactionDeleted, map[string]interface{}{"id": id})
	return nil
}

// checkProducts fails with a bad request naming every referenced id that is
// missing or owned by someone else. Each id is named once, in input order.
func (s *transactionService) checkProducts(ctx context.Context, products repository.ProductRepository, ownerID uuid.UUID, ids []uuid.UUID) error {
	distinct := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			distinct = append(distinct, id)
		}
	}

	found, err := products.FindOwnedIDs(ctx, ownerID, distinct)
	if err != nil {
		return err
	}
	owned := make(map[uuid.UUID]bool, len(found))
	for _, id := range found {
		owned[id] = true
	}

	var missing []string
	for _, id := range distinct {
		if !owned[id] {
			missing = append(missing, id.String())
		}
	}
	if len(missing) > 0 {
		return apperr.BadRequest(fmt.Sprintf("Products with IDs %s do not exist.", strings.Join(missing, ", ")))
	}
	return nil
}

// writeError keeps client errors raised inside a write and hides the rest.
func writeError(err error, internal string) error {
	if appErr, ok := apperr.As(err); ok {
		return appErr
	}
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msgTransactionNotFound)
	}
	return apperr.Internal(internal, err)
}
