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
	"github.com/Skotchmaster/budget_api/internal/repo"
	"github.com/Skotchmaster/budget_api/internal/util"
)

const DefaultMinProductPrice = 2

type CatalogService struct {
	Repo     ProductRepo
	Index    Indexer
	Events   events.Publisher
	MinPrice float64
}

type ProductPatch struct {
	Name  *string
	Price *float64
}

type SearchResult struct {
	Data []models.Product `json:"data"`
	Meta util.Meta        `json:"meta"`
}

func (s *CatalogService) Create(ctx context.Context, name string, price float64) (*models.Product, error) {
	name = strings.TrimSpace(name)
	l := logging.FromContext(ctx).With("svc", "catalog.create", "name", name)

	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if price < s.MinPrice {
		l.Warn("create_product_failed", "status", 400, "reason", "price below minimum", "price", price)
		return nil, fmt.Errorf("%w: price must be at least %v", ErrValidation, s.MinPrice)
	}

	_, err := s.Repo.GetProductByName(ctx, name)
	switch {
	case err == nil:
		l.Warn("create_product_failed", "status", 409, "reason", "name taken")
		return nil, fmt.Errorf("%w: product %q already exists", ErrConflict, name)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		l.Error("create_product_failed", "status", 500, "reason", "cannot look up product", "error", err)
		return nil, err
	}

	prod := models.Product{Name: name, Price: price}
	if err := s.Repo.CreateProduct(ctx, &prod); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			l.Warn("create_product_failed", "status", 409, "reason", "name taken", "error", err)
			return nil, fmt.Errorf("%w: product %q already exists", ErrConflict, name)
		}
		l.Error("create_product_failed", "status", 500, "reason", "cannot add product to db", "error", err)
		return nil, err
	}

	s.index(ctx, &prod)
	publish(ctx, s.Events, events.TopicProducts, prod.ID.String(), map[string]any{
		"type":      "product_created",
		"productId": prod.ID,
		"name":      prod.Name,
		"price":     prod.Price,
	})

	l.Info("create_product_success", "product_id", prod.ID)
	return &prod, nil
}

func (s *CatalogService) List(ctx context.Context) ([]models.Product, error) {
	return s.Repo.ListProducts(ctx)
}

// Get returns nil without an error when no product has that id.
func (s *CatalogService) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	prod, err := s.Repo.GetProduct(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return prod, err
}

func (s *CatalogService) Update(ctx context.Context, id uuid.UUID, patch ProductPatch) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.update", "product_id", id)

	fields := make(map[string]any, 2)
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be blank", ErrValidation)
		}
		fields["name"] = name
	}
	if patch.Price != nil {
		if *patch.Price < 0 {
			return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
		}
		fields["price"] = *patch.Price
	}

	prod, err := s.Repo.UpdateProduct(ctx, id, fields)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			l.Warn("update_product_failed", "status", 404, "reason", "product not found")
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
		case errors.Is(err, gorm.ErrDuplicatedKey):
			l.Warn("update_product_failed", "status", 409, "reason", "name taken", "error", err)
			return nil, fmt.Errorf("%w: product name already exists", ErrConflict)
		}
		l.Error("update_product_failed", "status", 500, "reason", "cannot update product", "error", err)
		return nil, err
	}

	s.index(ctx, prod)
	publish(ctx, s.Events, events.TopicProducts, prod.ID.String(), map[string]any{
		"type":      "product_updated",
		"productId": prod.ID,
		"name":      prod.Name,
		"price":     prod.Price,
	})

	l.Info("update_product_success")
	return prod, nil
}

func (s *CatalogService) Remove(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.remove", "product_id", id)

	prod, err := s.Repo.DeleteProduct(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrProductInUse):
			l.Warn("delete_product_failed", "status", 409, "reason", "product in use")
			return nil, fmt.Errorf("%w: %w", ErrConflict, err)
		case errors.Is(err, gorm.ErrRecordNotFound):
			l.Warn("delete_product_failed", "status", 404, "reason", "product not found")
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
		l.Error("delete_product_failed", "status", 500, "reason", "cannot delete product", "error", err)
		return nil, err
	}

	if s.Index != nil {
		ictx, cancel := context.WithTimeout(ctx, sideEffectTimeout)
		if err := s.Index.DeleteProduct(ictx, id); err != nil {
			l.Warn("unindex_product_failed", "error", err)
		}
		cancel()
	}
	publish(ctx, s.Events, events.TopicProducts, id.String(), map[string]any{
		"type":      "product_deleted",
		"productId": id,
	})

	l.Info("delete_product_success")
	return prod, nil
}

// Search queries the search index when one is configured and falls back to
// a name match in the database otherwise.
func (s *CatalogService) Search(ctx context.Context, q string, page, size int) (*SearchResult, error) {
	q = strings.TrimSpace(q)
	l := logging.FromContext(ctx).With("svc", "catalog.search", "q", q)

	if q == "" {
		return nil, fmt.Errorf("%w: query is required", ErrValidation)
	}

	offset, limit := util.Calculate(page, size)

	if s.Index != nil {
		total, items, err := s.Index.SearchProducts(ctx, q, offset, limit)
		if err == nil {
			return &SearchResult{Data: items, Meta: util.NewMeta(offset, limit, total)}, nil
		}
		l.Warn("search_index_failed", "reason", "falling back to database", "error", err)
	}

	total, items, err := s.Repo.SearchProducts(ctx, q, offset, limit)
	if err != nil {
		l.Error("search_failed", "status", 500, "error", err)
		return nil, err
	}
	return &SearchResult{Data: items, Meta: util.NewMeta(offset, limit, total)}, nil
}

func (s *CatalogService) index(ctx context.Context, prod *models.Product) {
	if s.Index == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, sideEffectTimeout)
	defer cancel()

	if err := s.Index.IndexProduct(ctx, prod); err != nil {
		logging.FromContext(ctx).Warn("index_product_failed", "product_id", prod.ID, "error", err)
	}
}
