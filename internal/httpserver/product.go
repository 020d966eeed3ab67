package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/budget_api/internal/logging"
	"github.com/Skotchmaster/budget_api/internal/service"
	"github.com/Skotchmaster/budget_api/internal/transport"
	"github.com/Skotchmaster/budget_api/internal/util"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	var req transport.CreateProductRequest
	if err := bindAndValidate(c, l, "create_product_error", &req); err != nil {
		return err
	}

	prod, err := h.Svc.Create(ctx, req.Name, *req.Price)
	if err != nil {
		return mapError(l, "create_product_error", err)
	}

	l.Info("create_product_success", "product_id", prod.ID)
	return c.JSON(http.StatusCreated, prod)
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.list")

	items, err := h.Svc.List(ctx)
	if err != nil {
		return mapError(l, "list_products_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

// GetProduct answers 200 with a JSON null when no product has the id.
func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get")

	id, err := parseID(c, l, "get_product_error")
	if err != nil {
		return err
	}

	prod, err := h.Svc.Get(ctx, id)
	if err != nil {
		return mapError(l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, prod)
}

func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.patch")

	id, err := parseID(c, l, "patch_product_error")
	if err != nil {
		return err
	}

	var req transport.PatchProductRequest
	if err := bindAndValidate(c, l, "patch_product_error", &req); err != nil {
		return err
	}

	prod, err := h.Svc.Update(ctx, id, req.Patch())
	if err != nil {
		return mapError(l, "patch_product_error", err)
	}

	l.Info("patch_product_success", "product_id", id)
	return c.JSON(http.StatusOK, prod)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, err := parseID(c, l, "delete_product_error")
	if err != nil {
		return err
	}

	prod, err := h.Svc.Remove(ctx, id)
	if err != nil {
		return mapError(l, "delete_product_error", err)
	}

	l.Info("delete_product_success", "product_id", id)
	return c.JSON(http.StatusOK, prod)
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	res, err := h.Svc.Search(ctx, c.QueryParam("q"), page, size)
	if err != nil {
		return mapError(l, "search_products_error", err)
	}
	return c.JSON(http.StatusOK, res)
}
