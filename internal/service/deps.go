package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/budget_api/internal/events"
	"github.com/Skotchmaster/budget_api/internal/logging"
	"github.com/Skotchmaster/budget_api/internal/models"
)

type UserRepo interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	ListUsers(ctx context.Context) ([]models.User, error)
	SetRefreshToken(ctx context.Context, userID uuid.UUID, token string) error
	RotateRefreshToken(ctx context.Context, userID uuid.UUID, current, next string) (bool, error)
	ClearRefreshToken(ctx context.Context, email string) error
}

type ProductRepo interface {
	CreateProduct(ctx context.Context, prod *models.Product) error
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetProductByName(ctx context.Context, name string) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error)
}

type TransactionRepo interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	CreateTransaction(ctx context.Context, trx *models.Transaction) error
	GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	TransactionExists(ctx context.Context, id uuid.UUID) (bool, error)
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
	ReplaceItems(ctx context.Context, id uuid.UUID, items []models.TransactionItem) error
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
	DeleteAllTransactions(ctx context.Context) error
}

// Indexer is the external product search index.
type Indexer interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	SearchProducts(ctx context.Context, query string, offset, limit int) (int64, []models.Product, error)
}

const sideEffectTimeout = 5 * time.Second

// publish sends an event and only logs when the broker refuses it.
func publish(ctx context.Context, p events.Publisher, topic, key string, event map[string]any) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, sideEffectTimeout)
	defer cancel()

	if err := p.Publish(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Warn("publish_event_failed", "topic", topic, "type", event["type"], "error", err)
	}
}
