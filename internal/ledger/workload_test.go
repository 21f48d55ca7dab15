package ledger

import (
	"context"
	"testing"
)

func TestWorkloadIterationMovesMoney(t *testing.T) {
	sink := NewMemSink()
	w, err := NewWorkload(sink, WorkloadConfig{Ledger: 700, Accounts: 8, BatchSize: 5, Seed: 1})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Setup(); err != nil {
		t.Fatal(err)
	}

	for range 10 {
		if err := w.PerformIteration(context.Background()); err != nil {
			t.Fatal(err)
		}
	}

	// Double entry: total debits equal total credits across the ledger.
	var debits, credits uint64
	for id := uint64(1); id <= 8; id++ {
		a, err := sink.GetAccount(context.Background(), 700, id)
		if err != nil {
			t.Fatal(err)
		}
		debits += a.DebitsPosted
		credits += a.CreditsPosted
	}
	if debits == 0 {
		t.Fatal("no money moved")
	}
	if debits != credits {
		t.Errorf("ledger out of balance: debits %d != credits %d", debits, credits)
	}
}

func TestWorkloadItemsPerIteration(t *testing.T) {
	w, err := NewWorkload(NewMemSink(), WorkloadConfig{Accounts: 4, BatchSize: 7})
	if err != nil {
		t.Fatal(err)
	}
	if got := w.ItemsPerIteration(); got != 7 {
		t.Errorf("ItemsPerIteration() = %d, want 7", got)
	}
}

func TestWorkloadDefaults(t *testing.T) {
	w, err := NewWorkload(NewMemSink(), WorkloadConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if w.cfg.Accounts != 64 || w.cfg.BatchSize != MaxBatchTransfers {
		t.Errorf("defaults = %d accounts, batch %d", w.cfg.Accounts, w.cfg.BatchSize)
	}
}

func TestWorkloadRejectsOversizedBatch(t *testing.T) {
	if _, err := NewWorkload(NewMemSink(), WorkloadConfig{BatchSize: MaxBatchTransfers + 1}); err == nil {
		t.Error("batch size above the transactional limit should be rejected")
	}
}

func TestWorkloadTelemetryCountsRetries(t *testing.T) {
	sink := NewMemSink()
	sink.FailFirst = 1
	w, err := NewWorkload(sink, WorkloadConfig{Accounts: 4, BatchSize: 2, Seed: 7})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Setup(); err != nil {
		t.Fatal(err)
	}
	if err := w.PerformIteration(context.Background()); err != nil {
		t.Fatal(err)
	}

	data := w.TestRunData()
	if got := data["writeAttempts"].(int64); got != 2 {
		t.Errorf("writeAttempts = %d, want 2", got)
	}
	if got := data["retryDelayMillis"].(int64); got < 20 {
		t.Errorf("retryDelayMillis = %d, want >= 20", got)
	}
	if got := data["itemsWritten"].(int64); got == 0 {
		t.Error("itemsWritten should be recorded")
	}
}

func TestWorkloadTransfersStayInConfiguredRange(t *testing.T) {
	w, err := NewWorkload(NewMemSink(), WorkloadConfig{Accounts: 4, BatchSize: 33, MaxAmount: 9, Seed: 3})
	if err != nil {
		t.Fatal(err)
	}
	for range 50 {
		for _, tr := range w.makeTransfers() {
			if tr.DebitAccountID == tr.CreditAccountID {
				t.Fatal("transfer debits and credits the same account")
			}
			if tr.DebitAccountID < 1 || tr.DebitAccountID > 4 || tr.CreditAccountID < 1 || tr.CreditAccountID > 4 {
				t.Fatalf("account out of range: %d -> %d", tr.DebitAccountID, tr.CreditAccountID)
			}
			if tr.Amount < 1 || tr.Amount > 9 {
				t.Fatalf("amount out of range: %d", tr.Amount)
			}
		}
	}
}
