package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rechargehub/apiserver/internal/auth"
	"github.com/rechargehub/apiserver/internal/mq"
	"github.com/rechargehub/apiserver/internal/storage"
	"github.com/rechargehub/apiserver/internal/store"
	"github.com/rechargehub/apiserver/types"
)

// Transaction service errors surfaced to handlers.
var (
	// ErrInvalidNumber is returned when the subscriber number fails the
	// 10-digit rule for mobile and DTH plans.
	ErrInvalidNumber = errors.New("number must be 10 digits (numbers only)")

	// ErrMissingMethod is returned when no payment method is supplied.
	ErrMissingMethod = errors.New("payment method is required")
)

// EventTransactionCompleted is the queue channel for completed payments.
const EventTransactionCompleted = "transaction.completed"

// TransactionRepository defines persistence operations for transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx types.Transaction) (types.Transaction, error)
	Get(ctx context.Context, id int64) (types.Transaction, error)
	ListByUser(ctx context.Context, userID int, status string, offset, limit int) ([]types.Transaction, int, error)
	SetReceiptKey(ctx context.Context, id int64, key string) error
}

// TransactionService encapsulates payment use-cases. Receipt archiving and
// event publishing are best-effort: the persisted transaction is the source
// of truth and is never rolled back when a side channel fails.
type TransactionService struct {
	repo     TransactionRepository
	plans    PlanRepository
	receipts *storage.Storage
	queue    *mq.MQ
}

func NewTransactionService(repo TransactionRepository, plans PlanRepository, receipts *storage.Storage, queue *mq.MQ) *TransactionService {
	return &TransactionService{
		repo:     repo,
		plans:    plans,
		receipts: receipts,
		queue:    queue,
	}
}

// CreateInput is the payload for a new payment.
type CreateInput struct {
	PlanID int
	Number string
	Method string
}

// Create records a payment by the given user against a catalog plan. Amount,
// operator, and type are copied from the plan so later plan edits do not
// rewrite history. The demo has no payment gateway, so transactions complete
// immediately.
func (s *TransactionService) Create(ctx context.Context, userID int, in CreateInput) (types.Transaction, error) {
	plan, err := s.plans.Get(ctx, in.PlanID)
	if err != nil {
		return types.Transaction{}, err
	}

	number := strings.TrimSpace(in.Number)
	if number == "" {
		return types.Transaction{}, ErrInvalidNumber
	}
	if plan.Category != types.PlanCategoryBill && !auth.ValidPhone(number) {
		return types.Transaction{}, ErrInvalidNumber
	}
	if strings.TrimSpace(in.Method) == "" {
		return types.Transaction{}, ErrMissingMethod
	}

	tx, err := s.repo.Create(ctx, types.Transaction{
		Reference: newReference(),
		UserID:    userID,
		PlanID:    plan.ID,
		Type:      types.TypeForCategory(plan.Category),
		Number:    number,
		Operator:  plan.Operator,
		Amount:    plan.Amount,
		Method:    strings.TrimSpace(in.Method),
		Status:    types.TxStatusSuccess,
	})
	if err != nil {
		return types.Transaction{}, err
	}

	if key, err := s.archiveReceipt(ctx, tx); err != nil {
		log.Printf("receipt archive failed for %s: %v", tx.Reference, err)
	} else if key != "" {
		tx.ReceiptKey = key
	}

	s.publishCompleted(ctx, tx)

	return tx, nil
}

// List returns the user's own transaction history, newest first.
func (s *TransactionService) List(ctx context.Context, userID int, status string, offset, limit int) ([]types.Transaction, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.ListByUser(ctx, userID, status, offset, limit)
}

// Receipt streams the archived receipt for one of the user's transactions.
// A transaction belonging to another user is reported as not found.
func (s *TransactionService) Receipt(ctx context.Context, userID int, txID int64) (io.ReadCloser, types.Transaction, error) {
	tx, err := s.repo.Get(ctx, txID)
	if err != nil {
		return nil, types.Transaction{}, err
	}
	if tx.UserID != userID {
		return nil, types.Transaction{}, store.ErrNotFound
	}
	if s.receipts == nil || tx.ReceiptKey == "" {
		return nil, types.Transaction{}, store.ErrNotFound
	}

	reader, err := s.receipts.Get(ctx, tx.ReceiptKey)
	if err != nil {
		return nil, types.Transaction{}, err
	}
	return reader, tx, nil
}

// receiptDocument is the JSON body archived in object storage.
type receiptDocument struct {
	Reference string    `json:"reference"`
	Type      string    `json:"type"`
	Number    string    `json:"number"`
	Operator  string    `json:"operator"`
	Amount    int64     `json:"amount"`
	Method    string    `json:"method"`
	Status    string    `json:"status"`
	Date      time.Time `json:"date"`
}

func (s *TransactionService) archiveReceipt(ctx context.Context, tx types.Transaction) (string, error) {
	if s.receipts == nil {
		return "", nil
	}

	doc, err := json.Marshal(receiptDocument{
		Reference: tx.Reference,
		Type:      tx.Type,
		Number:    tx.Number,
		Operator:  tx.Operator,
		Amount:    tx.Amount,
		Method:    tx.Method,
		Status:    tx.Status,
		Date:      tx.CreatedAt,
	})
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("receipts/%s.json", tx.Reference)
	if err := s.receipts.Put(ctx, key, bytes.NewReader(doc), int64(len(doc)), "application/json"); err != nil {
		return "", err
	}
	if err := s.repo.SetReceiptKey(ctx, tx.ID, key); err != nil {
		return "", err
	}
	return key, nil
}

func (s *TransactionService) publishCompleted(ctx context.Context, tx types.Transaction) {
	if s.queue == nil {
		return
	}

	payload, err := json.Marshal(tx)
	if err != nil {
		log.Printf("event encode failed for %s: %v", tx.Reference, err)
		return
	}
	attrs := map[string]string{"reference": tx.Reference}
	if _, err := s.queue.Publish(ctx, EventTransactionCompleted, payload, attrs); err != nil {
		log.Printf("event publish failed for %s: %v", tx.Reference, err)
	}
}

func newReference() string {
	id := uuid.NewString()
	return "TXN-" + strings.ToUpper(strings.ReplaceAll(id, "-", "")[:12])
}
