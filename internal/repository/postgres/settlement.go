package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"cab/internal/domain"
	"cab/internal/repository"
)

// SettlementRecorder implements repository.SettlementRecorder using a
// PostgreSQL transaction.
type SettlementRecorder struct {
	db *sql.DB
}

// NewSettlementRecorder creates a new SettlementRecorder.
func NewSettlementRecorder(db *sql.DB) *SettlementRecorder {
	return &SettlementRecorder{db: db}
}

// RecordSettlement claims the booking's PENDING payment status and inserts
// the payment row. Both writes commit or neither does.
func (r *SettlementRecorder) RecordSettlement(ctx context.Context, payment *domain.Payment) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin settlement transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	txBookingRepo := NewBookingRepositoryWithTx(tx)
	txPaymentRepo := NewPaymentRepositoryWithTx(tx)

	if err = txBookingRepo.UpdatePaymentResult(ctx, payment.BookingID, payment.Status, payment.Message); err != nil {
		return err
	}

	if err = txPaymentRepo.Create(ctx, payment); err != nil {
		return err
	}

	return tx.Commit()
}

var _ repository.SettlementRecorder = (*SettlementRecorder)(nil)
