package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/rewearapp/rewear-server/internal/domain"
	"github.com/rewearapp/rewear-server/internal/id"
	"github.com/rewearapp/rewear-server/internal/store"
)

// SettleSwap commits every write of an accepted swap in one transaction:
// the PENDING -> ACCEPTED transition, both reservations, the differential
// ledger entries, both handovers, and the ACCEPTED -> COMPLETED transition.
// If anything fails, nothing is written.
//
// Typed failures:
//   - store.ErrStateConflict: an item was no longer AVAILABLE, or the swap
//     row was resolved concurrently.
//   - store.ErrInsufficientBalance: the debtor could not cover the
//     differential.
func (s *Store) SettleSwap(ctx context.Context, in store.SettlementInput) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// The acceptance itself is the first write: PENDING -> ACCEPTED. A swap
	// resolved concurrently fails here before any item is touched. If a
	// later step fails, the rollback returns the swap to PENDING.
	if err := acceptSwapTx(ctx, tx, in.Swap.ID); err != nil {
		return err
	}

	// Reserve both sides. Order is fixed (initiator first) so concurrent
	// settlements touching the same items fail fast instead of interleaving.
	if err := reserveItemTx(ctx, tx, in.InitiatorItem.ID); err != nil {
		return err
	}
	if err := reserveItemTx(ctx, tx, in.RecipientItem.ID); err != nil {
		return err
	}

	// Move the differential. A zero differential writes no entries.
	if err := s.recordDifferential(ctx, tx, in); err != nil {
		return err
	}

	// Hand each item to the other side.
	if err := finalizeItemTx(ctx, tx, in.InitiatorItem.ID, in.Swap.RecipientID); err != nil {
		return err
	}
	if err := finalizeItemTx(ctx, tx, in.RecipientItem.ID, in.Swap.InitiatorID); err != nil {
		return err
	}

	if err := resolveSwapTx(ctx, tx, in.Swap.ID, domain.SwapCompleted, ""); err != nil {
		return err
	}

	return tx.Commit()
}

// recordDifferential writes the debit before the credit so the balance guard
// sees the debtor's true balance.
func (s *Store) recordDifferential(ctx context.Context, tx *sql.Tx, in store.SettlementInput) error {
	diff := in.Swap.PointsDiff
	if diff == 0 {
		return nil
	}

	debtorID, creditorID := in.Swap.InitiatorID, in.Swap.RecipientID
	amount := diff
	if diff < 0 {
		debtorID, creditorID = in.Swap.RecipientID, in.Swap.InitiatorID
		amount = -diff
	}

	now := time.Now()

	debitID, err := id.Generate("led")
	if err != nil {
		return err
	}
	if err := recordEntryTx(ctx, tx, &domain.LedgerEntry{
		ID:            debitID,
		MemberID:      debtorID,
		Amount:        -amount,
		Kind:          domain.EntrySpent,
		Reason:        in.Reason,
		RelatedSwapID: in.Swap.ID,
		CreatedAt:     now,
	}); err != nil {
		return err
	}

	creditID, err := id.Generate("led")
	if err != nil {
		return err
	}
	return recordEntryTx(ctx, tx, &domain.LedgerEntry{
		ID:            creditID,
		MemberID:      creditorID,
		Amount:        amount,
		Kind:          domain.EntryEarned,
		Reason:        in.Reason,
		RelatedSwapID: in.Swap.ID,
		CreatedAt:     now,
	})
}

// RedeemItem commits a direct point redemption in one transaction: the
// redeemer pays the item's full point value and takes ownership.
func (s *Store) RedeemItem(ctx context.Context, in store.RedemptionInput) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := reserveItemTx(ctx, tx, in.Item.ID); err != nil {
		return err
	}

	entryID, err := id.Generate("led")
	if err != nil {
		return err
	}
	if err := recordEntryTx(ctx, tx, &domain.LedgerEntry{
		ID:        entryID,
		MemberID:  in.MemberID,
		Amount:    -in.Item.PointsValue,
		Kind:      domain.EntrySpent,
		Reason:    in.Reason,
		CreatedAt: time.Now(),
	}); err != nil {
		return err
	}

	// The points move to the item's owner; redemption conserves the total.
	creditID, err := id.Generate("led")
	if err != nil {
		return err
	}
	if err := recordEntryTx(ctx, tx, &domain.LedgerEntry{
		ID:        creditID,
		MemberID:  in.Item.OwnerID,
		Amount:    in.Item.PointsValue,
		Kind:      domain.EntryEarned,
		Reason:    in.Reason,
		CreatedAt: time.Now(),
	}); err != nil {
		return err
	}

	if err := finalizeItemTx(ctx, tx, in.Item.ID, in.MemberID); err != nil {
		return err
	}

	return tx.Commit()
}

// acceptSwapTx moves a swap PENDING -> ACCEPTED inside a transaction.
// Returns store.ErrStateConflict if the swap is no longer PENDING.
func acceptSwapTx(ctx context.Context, tx *sql.Tx, swapID string) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE swap_requests SET updated_at = ?, state = ?
		WHERE id = ? AND deleted_at IS NULL AND state = 'PENDING'`,
		formatTime(time.Now()), string(domain.SwapAccepted), swapID)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrStateConflict
	}
	return nil
}

// resolveSwapTx moves a swap to a terminal state inside a transaction, with
// the same already-resolved guard as UpdateSwap.
func resolveSwapTx(ctx context.Context, tx *sql.Tx, swapID string, state domain.SwapState, reason domain.CancelReason) error {
	now := formatTime(time.Now())

	result, err := tx.ExecContext(ctx, `
		UPDATE swap_requests SET
			updated_at = ?,
			state = ?,
			cancel_reason = ?,
			resolved_at = ?
		WHERE id = ? AND deleted_at IS NULL
		AND state NOT IN ('REJECTED', 'CANCELLED', 'COMPLETED')`,
		now, string(state), string(reason), now, swapID)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrStateConflict
	}
	return nil
}
