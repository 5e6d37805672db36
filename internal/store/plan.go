package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rechargehub/apiserver/types"
)

// PlanRepository handles persistence for catalog plans.
type PlanRepository struct {
	db *sql.DB
}

func NewPlanRepository(db *sql.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// PlanFilter narrows List results. Empty fields match everything.
type PlanFilter struct {
	Category string
	Operator string
}

func (r *PlanRepository) List(ctx context.Context, filter PlanFilter, offset, limit int) ([]types.Plan, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	const countQuery = `
		SELECT COUNT(1)
		FROM plans
		WHERE ($1 = '' OR category = $1)
		  AND ($2 = '' OR operator = $2)`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, filter.Category, filter.Operator).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT id, name, operator, category, amount, validity_days, description, benefits, created_at, updated_at
		FROM plans
		WHERE ($1 = '' OR category = $1)
		  AND ($2 = '' OR operator = $2)
		ORDER BY id
		OFFSET $3 LIMIT $4`
	rows, err := r.db.QueryContext(ctx, listQuery, filter.Category, filter.Operator, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	plans := make([]types.Plan, 0, limit)
	for rows.Next() {
		var plan types.Plan
		var benefitsJSON []byte
		if err := rows.Scan(
			&plan.ID,
			&plan.Name,
			&plan.Operator,
			&plan.Category,
			&plan.Amount,
			&plan.ValidityDays,
			&plan.Description,
			&benefitsJSON,
			&plan.CreatedAt,
			&plan.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}

		_ = json.Unmarshal(benefitsJSON, &plan.Benefits)
		plans = append(plans, plan)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return plans, total, nil
}

func (r *PlanRepository) Get(ctx context.Context, id int) (types.Plan, error) {
	const query = `
		SELECT id, name, operator, category, amount, validity_days, description, benefits, created_at, updated_at
		FROM plans
		WHERE id = $1`
	var plan types.Plan
	var benefitsJSON []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&plan.ID,
		&plan.Name,
		&plan.Operator,
		&plan.Category,
		&plan.Amount,
		&plan.ValidityDays,
		&plan.Description,
		&benefitsJSON,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Plan{}, ErrNotFound
		}
		return types.Plan{}, err
	}

	_ = json.Unmarshal(benefitsJSON, &plan.Benefits)
	return plan, nil
}

func (r *PlanRepository) Create(ctx context.Context, plan types.Plan) (types.Plan, error) {
	now := time.Now()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	benefitsJSON, err := json.Marshal(plan.Benefits)
	if err != nil {
		return types.Plan{}, err
	}

	const query = `
		INSERT INTO plans (name, operator, category, amount, validity_days, description, benefits, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		plan.Name,
		plan.Operator,
		plan.Category,
		plan.Amount,
		plan.ValidityDays,
		plan.Description,
		benefitsJSON,
		plan.CreatedAt,
		plan.UpdatedAt,
	).Scan(&plan.ID); err != nil {
		return types.Plan{}, err
	}

	return plan, nil
}

func (r *PlanRepository) Update(ctx context.Context, plan types.Plan) (types.Plan, error) {
	plan.UpdatedAt = time.Now()

	benefitsJSON, err := json.Marshal(plan.Benefits)
	if err != nil {
		return types.Plan{}, err
	}

	const query = `
		UPDATE plans
		SET name = $1,
			operator = $2,
			category = $3,
			amount = $4,
			validity_days = $5,
			description = $6,
			benefits = $7,
			updated_at = $8
		WHERE id = $9`
	result, err := r.db.ExecContext(
		ctx,
		query,
		plan.Name,
		plan.Operator,
		plan.Category,
		plan.Amount,
		plan.ValidityDays,
		plan.Description,
		benefitsJSON,
		plan.UpdatedAt,
		plan.ID,
	)
	if err != nil {
		return types.Plan{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Plan{}, err
	}
	if affected == 0 {
		return types.Plan{}, ErrNotFound
	}

	return plan, nil
}

func (r *PlanRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM plans WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
