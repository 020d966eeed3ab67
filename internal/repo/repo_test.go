package repo

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/budget_api/internal/models"
	"github.com/Skotchmaster/budget_api/internal/testutil"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()
	return New(testutil.NewSQLite(t))
}

func createUser(t *testing.T, r *GormRepo, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, PasswordHash: "h", FirstName: "A", LastName: "B", Phone: "+14155550100"}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func TestGormRepo_UserLookup(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := createUser(t, r, "ada@example.com")

	byEmail, err := r.GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byID, err := r.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", byID.Email)

	_, err = r.GetUserByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	dup := &models.User{Email: "ada@example.com", PasswordHash: "h"}
	require.ErrorIs(t, r.CreateUser(ctx, dup), gorm.ErrDuplicatedKey)
}

func TestGormRepo_RefreshTokenLifecycle(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := createUser(t, r, "ada@example.com")

	require.NoError(t, r.SetRefreshToken(ctx, u.ID, "first"))

	ok, err := r.RotateRefreshToken(ctx, u.ID, "first", "second")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.RotateRefreshToken(ctx, u.ID, "first", "third")
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := r.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RefreshToken)
	assert.Equal(t, "second", *got.RefreshToken)

	require.NoError(t, r.ClearRefreshToken(ctx, "ada@example.com"))
	got, err = r.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got.RefreshToken)
}

func TestGormRepo_DeleteProduct(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := createUser(t, r, "ada@example.com")

	used := &models.Product{Name: "Tea", Price: 3}
	free := &models.Product{Name: "Coffee", Price: 3}
	require.NoError(t, r.CreateProduct(ctx, used))
	require.NoError(t, r.CreateProduct(ctx, free))
	require.NoError(t, r.CreateTransaction(ctx, &models.Transaction{
		UserID: u.ID,
		Items:  []models.TransactionItem{{ProductID: used.ID, Quantity: 1}},
	}))

	_, err := r.DeleteProduct(ctx, used.ID)
	require.ErrorIs(t, err, ErrProductInUse)

	deleted, err := r.DeleteProduct(ctx, free.ID)
	require.NoError(t, err)
	assert.Equal(t, "Coffee", deleted.Name)

	_, err = r.DeleteProduct(ctx, free.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGormRepo_UpdateProduct_Missing(t *testing.T) {
	r := newTestRepo(t)

	_, err := r.UpdateProduct(context.Background(), uuid.New(), map[string]any{"price": 5.0})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGormRepo_TransactionItemsKeepOrder(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := createUser(t, r, "ada@example.com")

	names := []string{"Zucchini", "Apple", "Mango"}
	items := make([]models.TransactionItem, 0, len(names))
	for i, n := range names {
		p := &models.Product{Name: n, Price: 2}
		require.NoError(t, r.CreateProduct(ctx, p))
		items = append(items, models.TransactionItem{ProductID: p.ID, Quantity: i + 1})
	}

	trx := &models.Transaction{UserID: u.ID, Items: items}
	require.NoError(t, r.CreateTransaction(ctx, trx))

	got, err := r.GetTransaction(ctx, trx.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 3)
	for i, n := range names {
		assert.Equal(t, n, got.Items[i].Product.Name)
		assert.Equal(t, i+1, got.Items[i].Quantity)
	}
	require.NotNil(t, got.User)
	assert.Equal(t, u.ID, got.User.ID)

	reversed := []models.TransactionItem{
		{ProductID: items[2].ProductID, Quantity: 7},
		{ProductID: items[0].ProductID, Quantity: 8},
	}
	require.NoError(t, r.ReplaceItems(ctx, trx.ID, reversed))

	got, err = r.GetTransaction(ctx, trx.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Mango", got.Items[0].Product.Name)
	assert.Equal(t, "Zucchini", got.Items[1].Product.Name)
}

func TestGormRepo_DeleteTransaction_Missing(t *testing.T) {
	r := newTestRepo(t)

	err := r.DeleteTransaction(context.Background(), uuid.New())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	exists, err := r.TransactionExists(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGormRepo_DeleteAllTransactions_RollsBackOnFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "transaction_items"`)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "transactions"`)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err = New(db).DeleteAllTransactions(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRepo_DeleteAllTransactions_Commits(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "transaction_items"`)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "transactions"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, New(db).DeleteAllTransactions(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
