package repository

import (
	"context"

	"go-sales-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionRepository is the ledger store for transaction headers and
// their line items.
type TransactionRepository interface {
	WithTx(tx *gorm.DB) TransactionRepository
	FindByID(ctx context.Context, id, ownerID uuid.UUID) (*model.Transaction, error)
	List(ctx context.Context, q ListQuery) ([]model.Transaction, int64, error)
	Exists(ctx context.Context, id, ownerID uuid.UUID) (bool, error)
	CreateHeader(ctx context.Context, tx *model.Transaction) error
	UpdateHeader(ctx context.Context, tx *model.Transaction) error
	DeleteItems(ctx context.Context, transactionID uuid.UUID) error
	CreateItems(ctx context.Context, items []model.TransactionProduct) error
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
	CountItems(ctx context.Context, transactionID uuid.UUID) (int64, error)
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

func (r *transactionRepo) WithTx(tx *gorm.DB) TransactionRepository {
	return &transactionRepo{tx}
}

func (r *transactionRepo) FindByID(ctx context.Context, id, ownerID uuid.UUID) (*model.Transaction, error) {
	var transaction model.Transaction
	err := r.db.WithContext(ctx).
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id ASC") }).
		Preload("Products.Product").
		First(&transaction, "id = ? AND user_id = ?", id, ownerID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &transaction, nil
}

func (r *transactionRepo) List(ctx context.Context, q ListQuery) ([]model.Transaction, int64, error) {
	var (
		transactions []model.Transaction
		total        int64
	)

	scope := r.db.WithContext(ctx).Model(&model.Transaction{}).Where("user_id = ?", q.OwnerID)
	if q.Search != "" {
		scope = scope.Where(`invoice_no LIKE ? ESCAPE '\'`, likePattern(q.Search))
	}
	scope = scope.Session(&gorm.Session{})

	if err := scope.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []model.Transaction{}, 0, nil
	}

	err := scope.
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id ASC") }).
		Preload("Products.Product").
		Order("created_at DESC").
		Limit(q.Limit).
		Offset(q.Offset).
		Find(&transactions).Error
	return transactions, total, err
}

func (r *transactionRepo) Exists(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("id = ? AND user_id = ?", id, ownerID).
		Count(&count).Error
	return count > 0, err
}

func (r *transactionRepo) CreateHeader(ctx context.Context, tx *model.Transaction) error {
	return r.db.WithContext(ctx).Omit("Products").Create(tx).Error
}

// UpdateHeader overwrites invoice number, date and customer in place.
func (r *transactionRepo) UpdateHeader(ctx context.Context, tx *model.Transaction) error {
	res := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("id = ? AND user_id = ?", tx.ID, tx.UserID).
		Updates(map[string]interface{}{
			"invoice_no": tx.InvoiceNo,
			"date":       tx.Date,
			"customer":   tx.Customer,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *transactionRepo) DeleteItems(ctx context.Context, transactionID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).Delete(&model.TransactionProduct{}).Error
}

// CreateItems inserts one row per line item; duplicates of the same product
// stay separate rows.
func (r *transactionRepo) CreateItems(ctx context.Context, items []model.TransactionProduct) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit("Product").Create(&items).Error
}

// Delete removes the header and its line items. Call it on a repository
// bound with WithTx so both deletes commit together.
func (r *transactionRepo) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	db := r.db.WithContext(ctx)

	ok, err := r.Exists(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}

	if err := db.Where("transaction_id = ?", id).Delete(&model.TransactionProduct{}).Error; err != nil {
		return err
	}
	return db.Where("id = ? AND user_id = ?", id, ownerID).Delete(&model.Transaction{}).Error
}

func (r *transactionRepo) CountItems(ctx context.Context, transactionID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.TransactionProduct{}).
		Where("transaction_id = ?", transactionID).
		Count(&count).Error
	return count, err
}
