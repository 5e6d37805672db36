package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rechargehub/apiserver/internal/services"
	"github.com/rechargehub/apiserver/internal/store"
	"github.com/rechargehub/apiserver/types"
)

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
	adminRole    = "admin"
)

// PlanHandler provides HTTP handlers for the plan catalog.
type PlanHandler struct {
	planService *services.PlanService
	authService *services.AuthService
}

// NewPlanHandler constructs a handler with the provided services.
func NewPlanHandler(planService *services.PlanService, authService *services.AuthService) *PlanHandler {
	return &PlanHandler{
		planService: planService,
		authService: authService,
	}
}

// PlanRouter registers plan routes on the given router. Reads are public;
// mutations require an authenticated admin.
func PlanRouter(
	r chi.Router,
	planService *services.PlanService,
	authService *services.AuthService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewPlanHandler(planService, authService)

	r.Get("/", handler.ListPlans)
	r.With(authMiddleware, handler.requireAdmin).Post("/", handler.CreatePlan)
	r.Route("/{planID}", func(r chi.Router) {
		r.Get("/", handler.GetPlan)
		r.With(authMiddleware, handler.requireAdmin).Put("/", handler.UpdatePlan)
		r.With(authMiddleware, handler.requireAdmin).Delete("/", handler.DeletePlan)
	})
}

func (h *PlanHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := store.PlanFilter{
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Operator: strings.TrimSpace(r.URL.Query().Get("operator")),
	}
	if filter.Category != "" && !types.ValidCategory(filter.Category) {
		writeError(w, http.StatusBadRequest, "invalid category")
		return
	}

	items, total, err := h.planService.List(r.Context(), filter, offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list plans")
		return
	}

	writeJSON(w, http.StatusOK, PlanListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *PlanHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	id, err := parsePlanID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := h.planService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "plan not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch plan")
		return
	}

	writeJSON(w, http.StatusOK, plan)
}

func (h *PlanHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	req, err := decodePlanRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.planService.Create(r.Context(), req.toPlan(0))
	if err != nil {
		if errors.Is(err, services.ErrInvalidPlan) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create plan")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *PlanHandler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	id, err := parsePlanID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req, err := decodePlanRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.planService.Update(r.Context(), req.toPlan(id))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidPlan):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "plan not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to update plan")
		}
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *PlanHandler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	id, err := parsePlanID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.planService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "plan not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete plan")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PlanUpsertRequest is the JSON payload for plan mutations.
type PlanUpsertRequest struct {
	Name         string   `json:"name"`
	Operator     string   `json:"operator"`
	Category     string   `json:"category"`
	Amount       int64    `json:"amount"`
	ValidityDays int      `json:"validity_days"`
	Description  string   `json:"description"`
	Benefits     []string `json:"benefits"`
}

func (req PlanUpsertRequest) toPlan(id int) types.Plan {
	return types.Plan{
		ID:           id,
		Name:         strings.TrimSpace(req.Name),
		Operator:     strings.TrimSpace(req.Operator),
		Category:     strings.TrimSpace(req.Category),
		Amount:       req.Amount,
		ValidityDays: req.ValidityDays,
		Description:  strings.TrimSpace(req.Description),
		Benefits:     req.Benefits,
	}
}

// PlanListResponse is the paginated list response payload.
type PlanListResponse struct {
	Items []types.Plan `json:"items"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
	Total int          `json:"total"`
}

func decodePlanRequest(r *http.Request) (PlanUpsertRequest, error) {
	var req PlanUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return PlanUpsertRequest{}, errors.New("invalid request")
	}
	return req, nil
}

func parsePagination(r *http.Request) (page, limit, offset int, err error) {
	page = defaultPage
	limit = defaultLimit

	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return 0, 0, 0, errors.New("invalid page")
		}
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return 0, 0, 0, errors.New("invalid limit")
		}
	}

	if limit > maxLimit {
		limit = maxLimit
	}

	offset = (page - 1) * limit
	return page, limit, offset, nil
}

func parsePlanID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "planID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid plan id")
	}
	return id, nil
}

// requireAdmin re-reads the caller's role from the store so a stale token
// cannot keep admin access after a role change.
func (h *PlanHandler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := claimsFromContext(r.Context())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		profile, err := h.authService.GetProfile(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to load user")
			return
		}

		if !strings.EqualFold(profile.Role, adminRole) {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
