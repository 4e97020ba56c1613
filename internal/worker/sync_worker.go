// Package worker mirrors committed donations from SQLite into the spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fooddrive/internal/amqp"
	"fooddrive/internal/core"
	"fooddrive/internal/sheets"
	"fooddrive/internal/storage"
)

// DonationStore is the slice of the SQLite repository the worker needs.
type DonationStore interface {
	GetDonation(ctx context.Context, id int64) (core.Donation, error)
	GetPendingSyncDonations(ctx context.Context, limit int) ([]storage.PendingSyncDonation, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

// SyncWorker copies donations to the sheet, driven by AMQP messages with a
// periodic sweep of rows still marked pending.
type SyncWorker struct {
	store     DonationStore
	sheets    sheets.DonationWriter
	batchSize int
}

func NewSyncWorker(store DonationStore, writer sheets.DonationWriter, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{
		store:     store,
		sheets:    writer,
		batchSize: batchSize,
	}
}

// HandleDonationCreated processes one AMQP message. Returning an error requeues it.
func (w *SyncWorker) HandleDonationCreated(ctx context.Context, msg *amqp.DonationCreatedMessage) error {
	slog.InfoContext(ctx, "Processing donation message", "id", msg.ID)

	donation, err := w.store.GetDonation(ctx, msg.ID)
	if errors.Is(err, storage.ErrDonationNotFound) {
		slog.WarnContext(ctx, "Donation from message not found, dropping", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get donation from storage: %w", err)
	}

	return w.syncDonation(ctx, donation)
}

// ProcessPending mirrors up to batchSize pending donations. It covers
// messages lost while the broker or worker was down.
func (w *SyncWorker) ProcessPending(ctx context.Context) (synced, failed int, err error) {
	return w.processPending(ctx, w.batchSize)
}

// StartupSyncCheck runs a larger sweep when the worker starts.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	synced, failed, err := w.processPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync: %w", err)
	}
	slog.InfoContext(ctx, "Startup sync completed", "synced", synced, "errors", failed)
	return nil
}

// RunPeriodic sweeps pending donations every interval until ctx is done.
func (w *SyncWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, _, err := w.ProcessPending(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic sync failed", "error", err)
			}
		}
	}
}

func (w *SyncWorker) processPending(ctx context.Context, limit int) (int, int, error) {
	pending, err := w.store.GetPendingSyncDonations(ctx, limit)
	if err != nil {
		return 0, 0, fmt.Errorf("get pending donations: %w", err)
	}
	if len(pending) == 0 {
		return 0, 0, nil
	}

	slog.InfoContext(ctx, "Processing pending donations", "count", len(pending))

	synced, failed := 0, 0
	for _, p := range pending {
		donation, err := w.store.GetDonation(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get donation", "id", p.ID, "error", err)
			if err := w.store.MarkSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			failed++
			continue
		}
		if err := w.syncDonation(ctx, donation); err != nil {
			slog.ErrorContext(ctx, "Failed to sync donation", "id", p.ID, "error", err)
			failed++
			continue
		}
		synced++
	}
	return synced, failed, nil
}

func (w *SyncWorker) syncDonation(ctx context.Context, d core.Donation) error {
	ref, err := w.sheets.AppendDonation(ctx, d)
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, d.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", d.ID, "error", markErr)
		}
		return fmt.Errorf("append to sheets: %w", err)
	}

	// The row is written; a failed status update only means it may be re-checked later.
	if err := w.store.MarkSynced(ctx, d.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", d.ID, "error", err)
	}

	slog.InfoContext(ctx, "Donation mirrored to sheet", "id", d.ID, "sheets_ref", ref)
	return nil
}
