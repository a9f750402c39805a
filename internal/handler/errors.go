package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"bistro-pos/internal/auth"
	"bistro-pos/internal/db"
	"bistro-pos/internal/logger"
	"bistro-pos/internal/menu"
	"bistro-pos/internal/money"
	"bistro-pos/internal/order"
	"bistro-pos/internal/payment"
	"bistro-pos/internal/report"
	"bistro-pos/internal/table"
	"bistro-pos/internal/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var (
	notFound = []error{
		order.ErrOrderNotFound,
		order.ErrLineItemNotFound,
		payment.ErrPaymentNotFound,
		table.ErrTableNotFound,
		menu.ErrMenuItemNotFound,
	}
	conflict = []error{
		order.ErrInvalidTransition,
		order.ErrOrderFrozen,
		table.ErrTableUnavailable,
		payment.ErrOrderAlreadyPaid,
		payment.ErrOrderEmpty,
		payment.ErrAlreadyCancelled,
		db.ErrConcurrentModification,
	}
	invalid = []error{
		order.ErrInvalidQuantity,
		order.ErrTotalOutOfRange,
		order.ErrInvalidStatus,
		order.ErrNoItems,
		payment.ErrInvalidTip,
		payment.ErrInvalidMethod,
		payment.ErrInsufficientAmount,
		report.ErrInvalidRange,
		money.ErrInvalidAmount,
	}
)

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrNoActor):
		return http.StatusUnauthorized
	case isAny(err, notFound):
		return http.StatusNotFound
	case isAny(err, conflict):
		return http.StatusConflict
	case isAny(err, invalid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError reports domain errors with their message. Anything unexpected
// is logged and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	switch code {
	case http.StatusInternalServerError:
		logger.FromCtx(r.Context()).Error("request failed",
			zap.String("layer", "handler"),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		utils.WriteJSONError(w, "internal server error", code)
	case http.StatusServiceUnavailable:
		utils.WriteJSONError(w, "request timed out", code)
	default:
		utils.WriteJSONError(w, err.Error(), code)
	}
}

func requireActor(w http.ResponseWriter, r *http.Request) (auth.Actor, bool) {
	a, ok := auth.ActorFrom(r.Context())
	if !ok {
		utils.WriteJSONError(w, "not authenticated", http.StatusUnauthorized)
		return auth.Actor{}, false
	}
	return a, true
}

func atoiDefault(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := utils.ParseID(chi.URLParam(r, name))
	if err != nil {
		utils.WriteJSONError(w, "invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
