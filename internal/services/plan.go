package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rechargehub/apiserver/internal/store"
	"github.com/rechargehub/apiserver/types"
)

// ErrInvalidPlan is returned when a plan payload fails validation.
var ErrInvalidPlan = errors.New("invalid plan")

// PlanRepository defines persistence operations for catalog plans.
type PlanRepository interface {
	List(ctx context.Context, filter store.PlanFilter, offset, limit int) ([]types.Plan, int, error)
	Get(ctx context.Context, id int) (types.Plan, error)
	Create(ctx context.Context, plan types.Plan) (types.Plan, error)
	Update(ctx context.Context, plan types.Plan) (types.Plan, error)
	Delete(ctx context.Context, id int) error
}

// PlanService encapsulates catalog use-cases.
type PlanService struct {
	repo PlanRepository
}

func NewPlanService(repo PlanRepository) *PlanService {
	return &PlanService{repo: repo}
}

func (s *PlanService) List(ctx context.Context, filter store.PlanFilter, offset, limit int) ([]types.Plan, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, filter, offset, limit)
}

func (s *PlanService) Get(ctx context.Context, id int) (types.Plan, error) {
	return s.repo.Get(ctx, id)
}

func (s *PlanService) Create(ctx context.Context, plan types.Plan) (types.Plan, error) {
	if err := validatePlan(plan); err != nil {
		return types.Plan{}, err
	}
	return s.repo.Create(ctx, plan)
}

func (s *PlanService) Update(ctx context.Context, plan types.Plan) (types.Plan, error) {
	if err := validatePlan(plan); err != nil {
		return types.Plan{}, err
	}
	return s.repo.Update(ctx, plan)
}

func (s *PlanService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

func validatePlan(plan types.Plan) error {
	if strings.TrimSpace(plan.Name) == "" || strings.TrimSpace(plan.Operator) == "" {
		return ErrInvalidPlan
	}
	if !types.ValidCategory(plan.Category) {
		return ErrInvalidPlan
	}
	if plan.Amount <= 0 || plan.ValidityDays < 0 {
		return ErrInvalidPlan
	}
	return nil
}
