package repo

import (
	"context"

	"github.com/Skotchmaster/budget_api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Items.Product").
		Preload("User")
}

// CreateTransaction stores the transaction and its items in one database transaction.
func (r *GormRepo) CreateTransaction(ctx context.Context, trx *models.Transaction) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(trx).Error; err != nil {
			return err
		}
		return insertItems(tx, trx.ID, trx.Items)
	})
}

func insertItems(tx *gorm.DB, transactionID uuid.UUID, items []models.TransactionItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].TransactionID = transactionID
		items[i].Position = i
	}
	return tx.Omit(clause.Associations).Create(&items).Error
}

func (r *GormRepo) GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var trx models.Transaction
	if err := withRelations(r.DB.WithContext(ctx)).Where("id = ?", id).First(&trx).Error; err != nil {
		return nil, err
	}
	return &trx, nil
}

func (r *GormRepo) TransactionExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Transaction{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	items := make([]models.Transaction, 0)
	if err := withRelations(r.DB.WithContext(ctx)).Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ReplaceItems deletes every item of the transaction and inserts items instead.
func (r *GormRepo) ReplaceItems(ctx context.Context, id uuid.UUID, items []models.TransactionItem) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("transaction_id = ?", id).Delete(&models.TransactionItem{}).Error; err != nil {
			return err
		}
		if err := insertItems(tx, id, items); err != nil {
			return err
		}
		return tx.Model(&models.Transaction{}).Where("id = ?", id).Update("updated_at", tx.NowFunc()).Error
	})
}

func (r *GormRepo) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("transaction_id = ?", id).Delete(&models.TransactionItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Transaction{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// DeleteAllTransactions removes all items and then all transactions, all or nothing.
func (r *GormRepo) DeleteAllTransactions(ctx context.Context) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := all.Delete(&models.TransactionItem{}).Error; err != nil {
			return err
		}
		return all.Delete(&models.Transaction{}).Error
	})
}
