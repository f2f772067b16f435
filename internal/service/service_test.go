package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go-sales-ledger/internal/model"
	"go-sales-ledger/internal/repository"
	"go-sales-ledger/internal/testdb"
	"go-sales-ledger/pkg/jwt"
	"go-sales-ledger/pkg/password"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordedEvent struct {
	OwnerID uuid.UUID
	Type    string
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (n *recordingNotifier) Publish(ownerID uuid.UUID, eventType string, _ interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{OwnerID: ownerID, Type: eventType})
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	db           *gorm.DB
	users        repository.UserRepository
	products     repository.ProductRepository
	transactions repository.TransactionRepository
	notifier     *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.Open(t)
	return &fixture{
		db:           db,
		users:        repository.NewUserRepo(db),
		products:     repository.NewProductRepo(db),
		transactions: repository.NewTransactionRepo(db),
		notifier:     &recordingNotifier{},
	}
}

func (f *fixture) caller(t *testing.T, email string) model.Caller {
	t.Helper()
	user := &model.User{Name: "Owner", PhoneNumber: "081234567", Email: email, Password: "hash"}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user.Caller()
}

func (f *fixture) product(t *testing.T, owner model.Caller, name string) *model.Product {
	t.Helper()
	p := &model.Product{Name: name, UserID: owner.UserID}
	require.NoError(t, f.products.Create(context.Background(), p))
	return p
}

func (f *fixture) countRows(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(m).Count(&n).Error)
	return n
}

func newTokens() *jwt.Manager {
	return jwt.NewManager(jwt.Config{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     72 * time.Hour,
		RefreshTTL:    24 * time.Hour,
		Issuer:        "test",
	})
}

func newHasher() password.Hasher {
	return password.NewBcrypt(4)
}

func intPtr(v int) *int { return &v }
