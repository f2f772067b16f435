package repository

import (
	"context"

	"go-sales-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductRepository is the catalog store. Every read and write is scoped by
// the owning user id.
type ProductRepository interface {
	WithTx(tx *gorm.DB) ProductRepository
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id, ownerID uuid.UUID) (*model.Product, error)
	List(ctx context.Context, q ListQuery) ([]model.Product, int64, error)
	UpdateName(ctx context.Context, id, ownerID uuid.UUID, name string) error
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
	FindOwnedIDs(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

// WithTx binds the repository to an open transaction.
func (r *productRepo) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepo{tx}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return translate(r.db.WithContext(ctx).Create(product).Error)
}

func (r *productRepo) FindByID(ctx context.Context, id, ownerID uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).First(&product, "id = ? AND user_id = ?", id, ownerID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *productRepo) List(ctx context.Context, q ListQuery) ([]model.Product, int64, error) {
	var (
		products []model.Product
		total    int64
	)

	scope := r.db.WithContext(ctx).Model(&model.Product{}).Where("user_id = ?", q.OwnerID)
	if q.Search != "" {
		scope = scope.Where(`name LIKE ? ESCAPE '\'`, likePattern(q.Search))
	}
	scope = scope.Session(&gorm.Session{})

	if err := scope.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []model.Product{}, 0, nil
	}

	err := scope.Order("created_at DESC").Limit(q.Limit).Offset(q.Offset).Find(&products).Error
	return products, total, err
}

func (r *productRepo) UpdateName(ctx context.Context, id, ownerID uuid.UUID, name string) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND user_id = ?", id, ownerID).
		Update("name", name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the product and every line item that references it.
// Call it on a repository bound with WithTx so both deletes commit together.
func (r *productRepo) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	db := r.db.WithContext(ctx)

	res := db.Where("id = ? AND user_id = ?", id, ownerID).Delete(&model.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return db.Where("product_id = ?", id).Delete(&model.TransactionProduct{}).Error
}

// FindOwnedIDs returns the subset of ids that exist and belong to ownerID.
func (r *productRepo) FindOwnedIDs(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	found := []uuid.UUID{}
	if len(ids) == 0 {
		return found, nil
	}
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id IN ? AND user_id = ?", ids, ownerID).
		Pluck("id", &found).Error
	return found, err
}
