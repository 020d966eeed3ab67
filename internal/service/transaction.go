package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/budget_api/internal/events"
	"github.com/Skotchmaster/budget_api/internal/logging"
	"github.com/Skotchmaster/budget_api/internal/models"
)

type TransactionService struct {
	Repo   TransactionRepo
	Events events.Publisher
}

func (s *TransactionService) Create(ctx context.Context, userID uuid.UUID, items []ItemInput) (*models.Transaction, error) {
	l := logging.FromContext(ctx).With("svc", "transaction.create", "user_id", userID)

	if err := checkItems(items); err != nil {
		return nil, err
	}

	if _, err := s.Repo.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("create_transaction_failed", "status", 404, "reason", "user not found")
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		l.Error("create_transaction_failed", "status", 500, "reason", "cannot look up user", "error", err)
		return nil, err
	}

	merged := MergeItems(items)
	if err := s.requireProducts(ctx, merged); err != nil {
		l.Warn("create_transaction_failed", "status", 404, "reason", "unknown products", "error", err)
		return nil, err
	}

	trx := models.Transaction{UserID: userID, Items: toModelItems(merged)}
	if err := s.Repo.CreateTransaction(ctx, &trx); err != nil {
		l.Warn("create_transaction_failed", "status", 400, "reason", "cannot persist transaction", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}

	created, err := s.load(ctx, trx.ID)
	if err != nil {
		l.Error("create_transaction_failed", "status", 500, "reason", "cannot reload transaction", "error", err)
		return nil, err
	}

	publish(ctx, s.Events, events.TopicTransactions, created.ID.String(), map[string]any{
		"type":          "transaction_created",
		"transactionId": created.ID,
		"userId":        created.UserID,
		"items":         len(created.Items),
	})

	l.Info("create_transaction_success", "transaction_id", created.ID)
	return created, nil
}

func (s *TransactionService) FindAll(ctx context.Context) ([]models.Transaction, error) {
	list, err := s.Repo.ListTransactions(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("list_transactions_failed", "svc", "transaction.find_all", "status", 500, "error", err)
		return nil, err
	}
	for i := range list {
		sanitizeOwner(&list[i])
	}
	return list, nil
}

func (s *TransactionService) FindOne(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	trx, err := s.load(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logging.FromContext(ctx).Error("get_transaction_failed", "svc", "transaction.find_one", "status", 500, "error", err)
		}
		return nil, err
	}
	return trx, nil
}

// Update replaces the whole item set when items is non-nil. Unlike Create the
// new items are stored as given, without merging.
func (s *TransactionService) Update(ctx context.Context, id uuid.UUID, items *[]ItemInput) (*models.Transaction, error) {
	l := logging.FromContext(ctx).With("svc", "transaction.update", "transaction_id", id)

	exists, err := s.Repo.TransactionExists(ctx, id)
	if err != nil {
		l.Error("update_transaction_failed", "status", 500, "reason", "cannot look up transaction", "error", err)
		return nil, err
	}
	if !exists {
		l.Warn("update_transaction_failed", "status", 404, "reason", "transaction not found")
		return nil, fmt.Errorf("%w: transaction %s", ErrNotFound, id)
	}

	if items != nil {
		if err := checkItems(*items); err != nil {
			return nil, err
		}
		if err := s.requireProducts(ctx, *items); err != nil {
			l.Warn("update_transaction_failed", "status", 404, "reason", "unknown products", "error", err)
			return nil, err
		}
		if err := s.Repo.ReplaceItems(ctx, id, toModelItems(*items)); err != nil {
			l.Warn("update_transaction_failed", "status", 400, "reason", "cannot replace items", "error", err)
			return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
	}

	updated, err := s.load(ctx, id)
	if err != nil {
		l.Error("update_transaction_failed", "status", 500, "reason", "cannot reload transaction", "error", err)
		return nil, err
	}

	publish(ctx, s.Events, events.TopicTransactions, id.String(), map[string]any{
		"type":          "transaction_updated",
		"transactionId": id,
		"items":         len(updated.Items),
	})

	l.Info("update_transaction_success")
	return updated, nil
}

func (s *TransactionService) Remove(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	l := logging.FromContext(ctx).With("svc", "transaction.remove", "transaction_id", id)

	trx, err := s.load(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			l.Warn("delete_transaction_failed", "status", 404, "reason", "transaction not found")
		} else {
			l.Error("delete_transaction_failed", "status", 500, "reason", "cannot look up transaction", "error", err)
		}
		return nil, err
	}

	if err := s.Repo.DeleteTransaction(ctx, id); err != nil {
		l.Warn("delete_transaction_failed", "status", 404, "reason", "cannot delete transaction", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	publish(ctx, s.Events, events.TopicTransactions, id.String(), map[string]any{
		"type":          "transaction_deleted",
		"transactionId": id,
	})

	l.Info("delete_transaction_success")
	return trx, nil
}

// DeleteAll removes every transaction and item or, on failure, nothing.
func (s *TransactionService) DeleteAll(ctx context.Context) error {
	l := logging.FromContext(ctx).With("svc", "transaction.delete_all")

	if err := s.Repo.DeleteAllTransactions(ctx); err != nil {
		l.Warn("delete_all_transactions_failed", "status", 400, "reason", "bulk delete rolled back", "error", err)
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}

	publish(ctx, s.Events, events.TopicTransactions, "all", map[string]any{
		"type": "transactions_cleared",
	})

	l.Info("delete_all_transactions_success")
	return nil
}

func (s *TransactionService) load(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	trx, err := s.Repo.GetTransaction(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: transaction %s", ErrNotFound, id)
		}
		return nil, err
	}
	sanitizeOwner(trx)
	return trx, nil
}

// requireProducts fails with ErrNotFound listing every id that has no product.
func (s *TransactionService) requireProducts(ctx context.Context, items []ItemInput) error {
	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, it := range items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}

	found, err := s.Repo.FindProductsByIDs(ctx, ids)
	if err != nil {
		return err
	}
	known := make(map[uuid.UUID]struct{}, len(found))
	for _, p := range found {
		known[p.ID] = struct{}{}
	}

	var missing []string
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			missing = append(missing, id.String())
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: products %s", ErrNotFound, strings.Join(missing, ", "))
	}
	return nil
}

func checkItems(items []ItemInput) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: items cannot be empty", ErrValidation)
	}
	for _, it := range items {
		if it.Quantity < 1 {
			return fmt.Errorf("%w: quantity must be positive", ErrValidation)
		}
	}
	return nil
}

func toModelItems(items []ItemInput) []models.TransactionItem {
	out := make([]models.TransactionItem, 0, len(items))
	for _, it := range items {
		out = append(out, models.TransactionItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}

func sanitizeOwner(trx *models.Transaction) {
	if trx.User != nil {
		u := trx.User.Sanitized()
		trx.User = &u
	}
}
