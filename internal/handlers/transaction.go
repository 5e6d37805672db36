package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rechargehub/apiserver/internal/services"
	"github.com/rechargehub/apiserver/internal/store"
	"github.com/rechargehub/apiserver/types"
)

// TransactionHandler provides HTTP handlers for payments and history.
type TransactionHandler struct {
	txService *services.TransactionService
}

// NewTransactionHandler constructs a handler with the provided service.
func NewTransactionHandler(txService *services.TransactionService) *TransactionHandler {
	return &TransactionHandler{txService: txService}
}

// TransactionRouter registers transaction routes on the given router. All
// routes require authentication; users only ever see their own transactions.
func TransactionRouter(
	r chi.Router,
	txService *services.TransactionService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewTransactionHandler(txService)

	r.Use(authMiddleware)
	r.Post("/", handler.CreateTransaction)
	r.Get("/", handler.ListTransactions)
	r.Get("/{transactionID}/receipt", handler.DownloadReceipt)
}

func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	var req TransactionCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	tx, err := h.txService.Create(r.Context(), claims.UserID, services.CreateInput{
		PlanID: req.PlanID,
		Number: req.Number,
		Method: req.Method,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "plan not found")
		case errors.Is(err, services.ErrInvalidNumber),
			errors.Is(err, services.ErrMissingMethod):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to create transaction")
		}
		return
	}

	writeJSON(w, http.StatusCreated, tx)
}

func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	status := strings.TrimSpace(r.URL.Query().Get("status"))
	switch status {
	case "", types.TxStatusPending, types.TxStatusSuccess, types.TxStatusFailed:
	default:
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	items, total, err := h.txService.List(r.Context(), claims.UserID, status, offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	writeJSON(w, http.StatusOK, TransactionListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *TransactionHandler) DownloadReceipt(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	id, err := parseTransactionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reader, tx, err := h.txService.Receipt(r.Context(), claims.UserID, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "receipt not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch receipt")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+tx.Reference+`.json"`)
	_, _ = io.Copy(w, reader)
}

// TransactionCreateRequest is the JSON payload for a new payment.
type TransactionCreateRequest struct {
	PlanID int    `json:"plan_id"`
	Number string `json:"number"`
	Method string `json:"method"`
}

// TransactionListResponse is the paginated history payload.
type TransactionListResponse struct {
	Items []types.Transaction `json:"items"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
	Total int                 `json:"total"`
}

func parseTransactionID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "transactionID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, errors.New("invalid transaction id")
	}
	return id, nil
}
