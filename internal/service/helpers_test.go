package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/budget_api/internal/models"
	"github.com/Skotchmaster/budget_api/internal/repo"
	"github.com/Skotchmaster/budget_api/internal/testutil"
)

func newRepo(t *testing.T) (*gorm.DB, *repo.GormRepo) {
	t.Helper()
	db := testutil.NewSQLite(t)
	return db, repo.New(db)
}

func seedUser(t *testing.T, r *repo.GormRepo, email string) *models.User {
	t.Helper()
	u := &models.User{
		Email:        email,
		PasswordHash: "not-a-real-hash",
		FirstName:    "Test",
		LastName:     "User",
		Phone:        "+14155550100",
	}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func seedProduct(t *testing.T, r *repo.GormRepo, name string, price float64) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: price}
	require.NoError(t, r.CreateProduct(context.Background(), p))
	return p
}

type fakeIndexer struct {
	indexed   []uuid.UUID
	deleted   []uuid.UUID
	searchErr error
	hits      []models.Product
}

func (f *fakeIndexer) IndexProduct(_ context.Context, p *models.Product) error {
	f.indexed = append(f.indexed, p.ID)
	return nil
}

func (f *fakeIndexer) DeleteProduct(_ context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeIndexer) SearchProducts(context.Context, string, int, int) (int64, []models.Product, error) {
	if f.searchErr != nil {
		return 0, nil, f.searchErr
	}
	return int64(len(f.hits)), f.hits, nil
}
