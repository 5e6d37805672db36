package types

import "time"

// Plan categories.
const (
	PlanCategoryMobile = "mobile"
	PlanCategoryDTH    = "dth"
	PlanCategoryBill   = "bill"
)

// Plan represents a recharge or bill-payment offer in the catalog.
type Plan struct {
	// ID is the unique identifier of the plan.
	ID int `json:"id" db:"id"`

	// Name is the display name of the plan.
	Name string `json:"name" db:"name"`

	// Operator is the telecom or utility provider the plan belongs to
	// (e.g., "Airtel", "Dish TV", "Indane Gas").
	Operator string `json:"operator" db:"operator"`

	// Category is one of "mobile", "dth", or "bill".
	Category string `json:"category" db:"category"`

	// Amount is the plan price in whole rupees.
	Amount int64 `json:"amount" db:"amount"`

	// ValidityDays is the plan validity period; zero for one-off bills.
	ValidityDays int `json:"validity_days" db:"validity_days"`

	// Description is a short human-readable summary.
	Description string `json:"description" db:"description"`

	// Benefits lists what the plan includes (data, talktime, channels).
	Benefits []string `json:"benefits" db:"benefits"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ValidCategory reports whether c is a known plan category.
func ValidCategory(c string) bool {
	switch c {
	case PlanCategoryMobile, PlanCategoryDTH, PlanCategoryBill:
		return true
	}
	return false
}
