package types

import "time"

// Transaction statuses.
const (
	TxStatusPending = "Pending"
	TxStatusSuccess = "Success"
	TxStatusFailed  = "Failed"
)

// Transaction types, derived from the plan category.
const (
	TxTypeMobile = "Mobile Recharge"
	TxTypeDTH    = "DTH Recharge"
	TxTypeBill   = "Bill Payment"
)

// Transaction represents a recharge or bill payment made by a user.
type Transaction struct {
	// ID is the unique identifier of the transaction.
	ID int64 `json:"id" db:"id"`

	// Reference is the human-facing transaction reference (TXN-...),
	// printed on receipts and shown in history.
	Reference string `json:"reference" db:"reference"`

	// UserID is the account that made the payment.
	UserID int `json:"user_id" db:"user_id"`

	// PlanID is the catalog plan the payment was made against.
	PlanID int `json:"plan_id" db:"plan_id"`

	// Type is "Mobile Recharge", "DTH Recharge", or "Bill Payment".
	Type string `json:"type" db:"type"`

	// Number is the subscriber number or consumer account being recharged.
	Number string `json:"number" db:"number"`

	// Operator is copied from the plan at creation time.
	Operator string `json:"operator" db:"operator"`

	// Amount is copied from the plan at creation time, in whole rupees.
	Amount int64 `json:"amount" db:"amount"`

	// Method is the payment method chosen by the user (e.g., "UPI").
	Method string `json:"method" db:"method"`

	// Status is "Pending", "Success", or "Failed".
	Status string `json:"status" db:"status"`

	// ReceiptKey is the object storage key of the archived receipt,
	// empty when no receipt was stored.
	ReceiptKey string `json:"-" db:"receipt_key"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TypeForCategory maps a plan category to its transaction type label.
func TypeForCategory(category string) string {
	switch category {
	case PlanCategoryMobile:
		return TxTypeMobile
	case PlanCategoryDTH:
		return TxTypeDTH
	default:
		return TxTypeBill
	}
}
