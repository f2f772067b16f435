package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"go-sales-ledger/internal/apperr"
	"go-sales-ledger/internal/model"
	"go-sales-ledger/internal/repository"
	"go-sales-ledger/internal/ws"
	"go-sales-ledger/pkg/metrics"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTransactionService(f *fixture, m *metrics.Metrics) TransactionService {
	return NewTransactionService(f.products, f.transactions, f.db, f.notifier, m)
}

func request(items ...LineItemRequest) TransactionRequest {
	return TransactionRequest{
		InvoiceNo: "INV-1",
		Date:      "2024-01-01",
		Customer:  "Acme",
		Products:  items,
	}
}

func item(productID uuid.UUID, quantity, price int) LineItemRequest {
	return LineItemRequest{ProductID: productID.String(), Quantity: intPtr(quantity), Price: intPtr(price)}
}

type lineItem struct {
	ProductID uuid.UUID
	Quantity  int
	Price     int
}

func lineItems(tx *model.Transaction) []lineItem {
	out := make([]lineItem, 0, len(tx.Products))
	for _, p := range tx.Products {
		out = append(out, lineItem{ProductID: p.ProductID, Quantity: p.Quantity, Price: p.Price})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity < out[j].Quantity
		}
		return out[i].Price < out[j].Price
	})
	return out
}

func TestTransactionService_CreateThenGet(t *testing.T) {
	f := newFixture(t)
	m := metrics.New()
	svc := newTransactionService(f, m)
	ctx := context.Background()
	owner := f.caller(t, "alice@example.com")
	product := f.product(t, owner, "Coffee")

	created, err := svc.Create(ctx, owner, request(item(product.ID, 2, 100)))
	require.NoError(t, err)

	got, err := svc.Get(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "INV-1", got.InvoiceNo)
	assert.Equal(t, "Acme", got.Customer)
	assert.Equal(t, "2024-01-01", got.Date.Format("2006-01-02"))
	assert.Equal(t, []lineItem{{ProductID: product.ID, Quantity: 2, Price: 100}}, lineItems(got))
	require.NotNil(t, got.Products[0].Product)
	assert.Equal(t, "Coffee", got.Products[0].Product.Name)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LedgerWrites().WithLabelValues("create", "ok")))
	assert.Equal(t, []string{ws.TransactionCreated}, f.notifier.types())
}

func TestTransactionService_DuplicateProductsKeepEveryRow(t *testing.T) {
	f := newFixture(t)
	svc := newTransactionService(f, nil)
	ctx := context.Background()
	owner := f.caller(t, "alice@example.com")
	product := f.product(t, owner, "Coffee")

	created, err := svc.Create(ctx, owner, request(item(product.ID, 1, 10), item(product.ID, 3, 10)))
	require.NoError(t, err)
	assert.Len(t, created.Products, 2)
}

func TestTransactionService_RejectsForeignProduct(t *testing.T) {
	f := newFixture(t)
	svc := newTransactionService(f, nil)
	ctx := context.Background()
	alice := f.caller(t, "alice@example.com")
	bob := f.caller(t, "bob@example.com")
	alicesProduct := f.product(t, alice, "Coffee")
	bobsProduct := f.product(t, bob, "Tea")

	_, err := svc.Create(ctx, bob, request(item(bobsProduct.ID, 1, 5), item(alicesProduct.ID, 1, 5)))
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, fmt.Sprintf("Products with IDs %s do not exist.", alicesProduct.ID), err.Error())

	assert.Zero(t, f.countRows(t, &model.Transaction{}))
	assert.Zero(t, f.countRows(t, &model.TransactionProduct{}))
	assert.Empty(t, f.notifier.types())
}

func TestTransactionService_MissingIDsNamedOnceInInputOrder(t *testing.T) {
	f := newFixture(t)
	svc := newTransactionService(f, nil)
	owner := f.caller(t, "alice@example.com")
	a, b := uuid.New(), uuid.New()

	_, err := svc.Create(context.Background(), owner, request(item(a, 1, 1), item(b, 1, 1), item(a, 2, 2)))
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, fmt.Sprintf("Products with IDs %s, %s do not exist.", a, b), err.Error())
}

func TestTransactionService_ValidationReportsEveryField(t *testing.T) {
	f := newFixture(t)
	svc := newTransactionService(f, nil)
	owner := f.caller(t, "alice@example.com")

	_, err := svc.Create(context.Background(), owner, TransactionRequest{
		InvoiceNo: " ",
		Date:      "01/02/2024",
		Products: []LineItemRequest{
			{ProductID: "not-a-uuid", Quantity: intPtr(0), Price: intPtr(-1)},
		},
	})
	require.ErrorIs(t, err, apperr.ErrValidation)

	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Len(t, appErr.Details, 6)
	assert.Zero(t, f.countRows(t, &model.Transaction{}))
}

func TestTransactionService_EmptyLineItems(t *testing.T) {
	f := newFixture(t)
	svc := newTransactionService(f, nil)
	owner := f.caller(t, "alice@example.com")

	_, err := svc.Create(context.Background(), owner, request())
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestTransactionService_UpdateReplacesLineItems(t *testing.T) {
	f := newFixture(t)
	svc := newTransactionService(f, nil)
	ctx := context.Background()
	owner := f.caller(t, "alice@example.com")
	coffee := f.product(t, owner, "Coffee")
	tea := f.product(t, owner, "Tea")

	created, err := svc.Create(ctx, owner, request(item(coffee.ID, 1, 10), item(coffee.ID, 2, 20)))
	require.NoError(t, err)

	next := request(item(tea.ID, 5, 7))
	next.InvoiceNo = "INV-2"
	next.Customer = "Globex"
	next.Date = "2024-02-29"
	_, err = svc.Update(ctx, owner, created.ID, next)
	require.NoError(t, err)

	got, err := svc.Get(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "INV-2", got.InvoiceNo)
	assert.Equal(t, "Globex", got.Customer)
	assert.Equal(t, "2024-02-29", got.Date.Format("2006-01-02"))
	assert.Equal(t, []lineItem{{ProductID: tea.ID, Quantity: 5, Price: 7}}, lineItems(got))
	assert.EqualValues(t, 1, f.countRows(t, &model.TransactionProduct{}))
}

func TestTransactionService_UpdateWithMissingProductChangesNothing(t *testing.T) {
	f := newFixture(t)
	svc := newTransactionService(f, nil)
	ctx := context.Background()
	owner := f.caller(t, "alice@example.com")
	coffee := f.product(t, owner, "Coffee")

	created, err := svc.Create(ctx, owner, request(item(coffee.ID, 1, 10)))
	require.NoError(t, err)

	bad := request(item(uuid.New(), 9, 9))
	bad.Customer = "Changed"
	_, err = svc.Update(ctx, owner, created.ID, bad)
	require.ErrorIs(t, err, apperr.ErrValidation)

	got, err := svc.Get(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Customer)
	assert.Equal(t, []lineItem{{ProductID: coffee.ID, Quantity: 1, Price: 10}}, lineItems(got))
}

func TestTransactionService_UpdateUnknownTransaction(t *testing.T) {
	f := newFixture(t)
	svc := newTransactionService(f, nil)
	ctx := context.Background()
	alice := f.caller(t, "alice@example.com")
	bob := f.caller(t, "bob@example.com")
	coffee := f.product(t, alice, "Coffee")
	bobsCoffee := f.product(t, bob, "Coffee")

	created, err := svc.Create(ctx, alice, request(item(coffee.ID, 1, 10)))
	require.NoError(t, err)

	_, err = svc.Update(ctx, alice, uuid.New(), request(item(coffee.ID, 1, 10)))
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, "Transaction not found", err.Error())

	// Bob owns his product but not Alice's transaction.
	_, err = svc.Update(ctx, bob, created.ID, request(item(bobsCoffee.ID, 1, 10)))
	require.ErrorIs(t, err, apperr.ErrNotFound)

	got, err := svc.Get(ctx, alice, created.ID)
	require.NoError(t, err)
	assert.Len(t, got.Products, 1)
}

func TestTransactionService_Delete(t *testing.T) {
	f := newFixture(t)
	svc := newTransactionService(f, nil)
	ctx := context.Background()
	owner := f.caller(t, "alice@example.com")
	coffee := f.product(t, owner, "Coffee")

	created, err := svc.Create(ctx, owner, request(item(coffee.ID, 1, 1), item(coffee.ID, 2, 2), item(coffee.ID, 3, 3)))
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(ctx, f.caller(t, "bob@example.com"), created.ID), apperr.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, owner, created.ID))

	_, err = svc.Get(ctx, owner, created.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	count, err := f.transactions.CountItems(ctx, created.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestTransactionService_List(t *testing.T) {
	f := newFixture(t)
	svc := newTransactionService(f, nil)
	ctx := context.Background()
	owner := f.caller(t, "alice@example.com")
	coffee := f.product(t, owner, "Coffee")

	_, err := svc.List(ctx, owner, ListParams{})
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, "No Transactions found", err.Error())

	for i := 0; i < 3; i++ {
		req := request(item(coffee.ID, 1, 1))
		req.InvoiceNo = fmt.Sprintf("INV-%d", i)
		_, err := svc.Create(ctx, owner, req)
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, owner, ListParams{Search: "INV-2"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "INV-2", page.Data[0].InvoiceNo)
	assert.Len(t, page.Data[0].Products, 1)

	page, err = svc.List(ctx, owner, ListParams{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, Pagination{TotalItems: 3, TotalPages: 2, CurrentPage: 1}, page.Pagination)
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestTransactionService_StorageFaultRollsBack(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "products"`).
		WillReturnError(errors.New("connection reset by peer"))
	mock.ExpectRollback()

	m := metrics.New()
	svc := NewTransactionService(repository.NewProductRepo(db), repository.NewTransactionRepo(db), db, nil, m)
	caller := model.Caller{UserID: uuid.New(), Email: "alice@example.com"}

	_, err := svc.Create(context.Background(), caller, request(item(uuid.New(), 1, 1)))
	require.ErrorIs(t, err, apperr.ErrInternal)
	assert.Equal(t, "Failed to create transaction", mustAppErr(t, err).Message)

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LedgerWrites().WithLabelValues("create", "error")))
}

func TestTransactionService_CreateRollsBackHeaderWhenItemsFail(t *testing.T) {
	db, mock := newMockDB(t)
	productID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "products"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(productID.String()))
	mock.ExpectExec(`INSERT INTO "transactions"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "transaction_products"`).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	svc := NewTransactionService(repository.NewProductRepo(db), repository.NewTransactionRepo(db), db, nil, nil)
	caller := model.Caller{UserID: uuid.New(), Email: "alice@example.com"}

	_, err := svc.Create(context.Background(), caller, request(item(productID, 1, 1)))
	require.ErrorIs(t, err, apperr.ErrInternal)
	assert.Equal(t, "Failed to create transaction", mustAppErr(t, err).Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionService_UpdateRollsBackWhenNewItemsFail(t *testing.T) {
	db, mock := newMockDB(t)
	productID := uuid.New()
	transactionID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "products"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(productID.String()))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(`DELETE FROM "transaction_products"`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`UPDATE "transactions" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "transaction_products"`).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	svc := NewTransactionService(repository.NewProductRepo(db), repository.NewTransactionRepo(db), db, nil, nil)
	caller := model.Caller{UserID: uuid.New(), Email: "alice@example.com"}

	_, err := svc.Update(context.Background(), caller, transactionID, request(item(productID, 1, 1)))
	require.ErrorIs(t, err, apperr.ErrInternal)
	assert.Equal(t, "Failed to update transaction", mustAppErr(t, err).Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// failLineItemInserts makes every later insert into transaction_products fail.
func failLineItemInserts(t *testing.T, db *gorm.DB) {
	t.Helper()
	err := db.Callback().Create().Before("gorm:create").Register("test:fail_line_items", func(tx *gorm.DB) {
		if tx.Statement.Table == "transaction_products" {
			tx.AddError(errors.New("disk full"))
		}
	})
	require.NoError(t, err)
}

func TestTransactionService_FailedItemInsertLeavesNoHeader(t *testing.T) {
	f := newFixture(t)
	svc := newTransactionService(f, nil)
	owner := f.caller(t, "alice@example.com")
	coffee := f.product(t, owner, "Coffee")

	failLineItemInserts(t, f.db)

	_, err := svc.Create(context.Background(), owner, request(item(coffee.ID, 2, 100)))
	require.ErrorIs(t, err, apperr.ErrInternal)

	assert.Zero(t, f.countRows(t, &model.Transaction{}))
	assert.Zero(t, f.countRows(t, &model.TransactionProduct{}))
	assert.Empty(t, f.notifier.types())
}

func TestTransactionService_FailedUpdateKeepsOriginalItems(t *testing.T) {
	f := newFixture(t)
	svc := newTransactionService(f, nil)
	ctx := context.Background()
	owner := f.caller(t, "alice@example.com")
	coffee := f.product(t, owner, "Coffee")
	tea := f.product(t, owner, "Tea")

	created, err := svc.Create(ctx, owner, request(item(coffee.ID, 1, 10), item(coffee.ID, 2, 20)))
	require.NoError(t, err)

	failLineItemInserts(t, f.db)

	next := request(item(tea.ID, 5, 7))
	next.Customer = "Globex"
	_, err = svc.Update(ctx, owner, created.ID, next)
	require.ErrorIs(t, err, apperr.ErrInternal)

	got, err := svc.Get(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Customer)
	assert.Equal(t, []lineItem{
		{ProductID: coffee.ID, Quantity: 1, Price: 10},
		{ProductID: coffee.ID, Quantity: 2, Price: 20},
	}, lineItems(got))
}

func mustAppErr(t *testing.T, err error) *apperr.Error {
	t.Helper()
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	return appErr
}
