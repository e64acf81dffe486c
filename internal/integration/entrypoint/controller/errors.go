package controller

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	domainerror "github.com/opsledger/backend/internal/domain/error"
	"github.com/opsledger/backend/internal/integration/entrypoint/dto"
)

// handleError renders err as {error, code} with the user-visible message.
func handleError(ctx *gin.Context, err error) {
	status, code := statusAndCode(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(ctx.Request.Context(), "request failed",
			"path", ctx.FullPath(),
			"error", err,
		)
	}
	ctx.JSON(status, dto.ErrorResponse{
		Error: domainerror.UserMessage(err),
		Code:  code,
	})
}

// statusAndCode maps an error to an HTTP status and error code.
func statusAndCode(err error) (int, string) {
	var remoteErr *domainerror.RemoteError
	if errors.As(err, &remoteErr) {
		// Remote failures wrapped by a domain error keep the domain code.
		code := string(remoteErr.Kind)
		if c := domainCode(err); c != "" {
			code = c
		}
		if remoteErr.Kind == domainerror.RemoteKindConflict {
			return http.StatusConflict, code
		}
		if remoteErr.Retryable() {
			return http.StatusServiceUnavailable, code
		}
		return http.StatusBadGateway, code
	}

	var txnErr *domainerror.TransactionError
	if errors.As(err, &txnErr) {
		switch txnErr.Code {
		case domainerror.ErrCodeTransactionNotFound:
			return http.StatusNotFound, string(txnErr.Code)
		case domainerror.ErrCodeWrongTenant:
			return http.StatusForbidden, string(txnErr.Code)
		case domainerror.ErrCodeTransactionSyncFailed:
			return http.StatusBadGateway, string(txnErr.Code)
		}
		return http.StatusBadRequest, string(txnErr.Code)
	}

	var setErr *domainerror.SettlementError
	if errors.As(err, &setErr) {
		switch setErr.Code {
		case domainerror.ErrCodeNotPending:
			return http.StatusConflict, string(setErr.Code)
		case domainerror.ErrCodeSettlementFailed:
			return http.StatusBadGateway, string(setErr.Code)
		}
		return http.StatusBadRequest, string(setErr.Code)
	}

	var stockErr *domainerror.StockError
	if errors.As(err, &stockErr) {
		switch stockErr.Code {
		case domainerror.ErrCodePoolNotFound, domainerror.ErrCodeConfigurationNotFound:
			return http.StatusNotFound, string(stockErr.Code)
		case domainerror.ErrCodeStockSaveFailed:
			return http.StatusBadGateway, string(stockErr.Code)
		}
		return http.StatusBadRequest, string(stockErr.Code)
	}

	var cpErr *domainerror.CounterpartyError
	if errors.As(err, &cpErr) {
		switch cpErr.Code {
		case domainerror.ErrCodeCounterpartyNotFound:
			return http.StatusNotFound, string(cpErr.Code)
		case domainerror.ErrCodeCounterpartyInternalError:
			return http.StatusInternalServerError, string(cpErr.Code)
		}
		return http.StatusBadRequest, string(cpErr.Code)
	}

	// Repositories report missing rows with bare sentinels.
	switch {
	case errors.Is(err, domainerror.ErrTransactionNotFound):
		return http.StatusNotFound, string(domainerror.ErrCodeTransactionNotFound)
	case errors.Is(err, domainerror.ErrCounterpartyNotFound):
		return http.StatusNotFound, string(domainerror.ErrCodeCounterpartyNotFound)
	}

	return http.StatusInternalServerError, ""
}

func domainCode(err error) string {
	var txnErr *domainerror.TransactionError
	if errors.As(err, &txnErr) {
		return string(txnErr.Code)
	}
	var setErr *domainerror.SettlementError
	if errors.As(err, &setErr) {
		return string(setErr.Code)
	}
	var stockErr *domainerror.StockError
	if errors.As(err, &stockErr) {
		return string(stockErr.Code)
	}
	return ""
}

func badRequest(ctx *gin.Context, message string, code string) {
	ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func unauthenticated(ctx *gin.Context) {
	ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{
		Error: "User not authenticated",
		Code:  string(domainerror.ErrCodeMissingToken),
	})
}
