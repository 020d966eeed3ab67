package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/budget_api/internal/logging"
	"github.com/Skotchmaster/budget_api/internal/service"
	"github.com/Skotchmaster/budget_api/internal/transport"
)

type TransactionHTTP struct {
	Svc *service.TransactionService
}

func (h *TransactionHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "transaction.create")

	var req transport.CreateTransactionRequest
	if err := bindAndValidate(c, l, "create_transaction_error", &req); err != nil {
		return err
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "userId is not a uuid")
	}
	items, err := transport.ItemInputs(req.Items)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "productId is not a uuid")
	}

	trx, err := h.Svc.Create(ctx, userID, items)
	if err != nil {
		return mapError(l, "create_transaction_error", err)
	}

	l.Info("create_transaction_success", "transaction_id", trx.ID)
	return c.JSON(http.StatusCreated, trx)
}

func (h *TransactionHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "transaction.list")

	list, err := h.Svc.FindAll(ctx)
	if err != nil {
		return mapError(l, "list_transactions_error", err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *TransactionHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "transaction.get")

	id, err := parseID(c, l, "get_transaction_error")
	if err != nil {
		return err
	}

	trx, err := h.Svc.FindOne(ctx, id)
	if err != nil {
		return mapError(l, "get_transaction_error", err)
	}
	return c.JSON(http.StatusOK, trx)
}

func (h *TransactionHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "transaction.update")

	id, err := parseID(c, l, "update_transaction_error")
	if err != nil {
		return err
	}

	var req transport.UpdateTransactionRequest
	if err := bindAndValidate(c, l, "update_transaction_error", &req); err != nil {
		return err
	}

	var items *[]service.ItemInput
	if req.Items != nil {
		in, err := transport.ItemInputs(*req.Items)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "productId is not a uuid")
		}
		items = &in
	}

	trx, err := h.Svc.Update(ctx, id, items)
	if err != nil {
		return mapError(l, "update_transaction_error", err)
	}

	l.Info("update_transaction_success", "transaction_id", id)
	return c.JSON(http.StatusOK, trx)
}

func (h *TransactionHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "transaction.delete")

	id, err := parseID(c, l, "delete_transaction_error")
	if err != nil {
		return err
	}

	trx, err := h.Svc.Remove(ctx, id)
	if err != nil {
		return mapError(l, "delete_transaction_error", err)
	}

	l.Info("delete_transaction_success", "transaction_id", id)
	return c.JSON(http.StatusOK, trx)
}

func (h *TransactionHTTP) DeleteAll(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "transaction.delete_all")

	if err := h.Svc.DeleteAll(ctx); err != nil {
		return mapError(l, "delete_all_transactions_error", err)
	}

	l.Info("delete_all_transactions_success")
	return c.NoContent(http.StatusNoContent)
}
