package ledger

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// WorkloadConfig parameterizes the ledger workload.
type WorkloadConfig struct {
	Ledger    uint32
	Accounts  int    // accounts created at setup, ids 1..Accounts
	BatchSize int    // transfers per iteration, <= MaxBatchTransfers
	MaxAmount uint64 // transfer amounts are uniform in [1, MaxAmount]
	Seed      int64  // 0 picks a time-based seed
}

// Workload drives a Sink with batches of random transfers. It implements
// the driver's Test interface; every sink write goes through the retry
// policy and contributes to the telemetry surfaced in TestRunData.
type Workload struct {
	sink   Sink
	cfg    WorkloadConfig
	tracer trace.Tracer

	rngMu sync.Mutex
	rng   *rand.Rand

	attempts         atomic.Int64
	retryDelayMicros atomic.Int64
	conflicts        atomic.Int64
	itemsWritten     atomic.Int64
	replays          atomic.Int64
}

// NewWorkload returns a Workload over the sink. Zero config fields fall
// back to 64 accounts, full batches, and amounts up to 1000.
func NewWorkload(sink Sink, cfg WorkloadConfig) (*Workload, error) {
	if cfg.Accounts <= 0 {
		cfg.Accounts = 64
	}
	if cfg.Accounts < 2 {
		return nil, fmt.Errorf("need at least 2 accounts, got %d", cfg.Accounts)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = MaxBatchTransfers
	}
	if cfg.BatchSize > MaxBatchTransfers {
		return nil, fmt.Errorf("batch size %d exceeds limit %d", cfg.BatchSize, MaxBatchTransfers)
	}
	if cfg.MaxAmount == 0 {
		cfg.MaxAmount = 1000
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Workload{
		sink:   sink,
		cfg:    cfg,
		tracer: otel.Tracer("drover/ledger"),
		rng:    rand.New(rand.NewSource(seed)),
	}, nil
}

// Setup seeds the account set.
func (w *Workload) Setup() error {
	accounts := make([]Account, w.cfg.Accounts)
	for i := range accounts {
		accounts[i] = Account{ID: uint64(i + 1), Ledger: w.cfg.Ledger}
	}
	if err := w.sink.CreateAccounts(context.Background(), accounts); err != nil {
		return fmt.Errorf("create accounts: %w", err)
	}
	return nil
}

func (w *Workload) Teardown() error { return nil }

// PerformIteration writes one batch of transfers. The client request token
// is minted once per iteration and shared across retry attempts, so a retry
// of a write that actually committed replays as a no-op.
func (w *Workload) PerformIteration(ctx context.Context) error {
	write, err := BuildWrite(w.makeTransfers(), NewClientRequestToken())
	if err != nil {
		return err
	}

	ctx, span := w.tracer.Start(ctx, "ledger.transact_write",
		trace.WithAttributes(attribute.Int("items", write.ItemCount())))
	defer span.End()

	stats, err := WithRetry(ctx, func(ctx context.Context) error {
		res, werr := w.sink.TransactWrite(ctx, write)
		if werr != nil {
			return werr
		}
		w.itemsWritten.Add(int64(res.ItemsWritten))
		if res.Replayed {
			w.replays.Add(1)
		}
		return nil
	})
	w.attempts.Add(int64(stats.Attempts))
	w.retryDelayMicros.Add(stats.Delay.Microseconds())

	if err != nil {
		if IsConflict(err) {
			w.conflicts.Add(1)
		}
		span.RecordError(err)
		return fmt.Errorf("transact write: %w", err)
	}
	return nil
}

// ItemsPerIteration is the transfer count per batch: the driver's target
// rate is in transfers, not iterations.
func (w *Workload) ItemsPerIteration() int {
	return w.cfg.BatchSize
}

// TestRunData reports the workload configuration and the retry telemetry
// accumulated so far.
func (w *Workload) TestRunData() map[string]any {
	return map[string]any{
		"workload":         "ledger",
		"ledger":           w.cfg.Ledger,
		"accounts":         w.cfg.Accounts,
		"batchSize":        w.cfg.BatchSize,
		"writeAttempts":    w.attempts.Load(),
		"retryDelayMillis": w.retryDelayMicros.Load() / 1000,
		"conflicts":        w.conflicts.Load(),
		"replays":          w.replays.Load(),
		"itemsWritten":     w.itemsWritten.Load(),
	}
}

// makeTransfers builds one batch over distinct random account pairs.
func (w *Workload) makeTransfers() []Transfer {
	w.rngMu.Lock()
	defer w.rngMu.Unlock()
	transfers := make([]Transfer, w.cfg.BatchSize)
	n := uint64(w.cfg.Accounts)
	for i := range transfers {
		debit := 1 + uint64(w.rng.Int63n(int64(n)))
		credit := 1 + uint64(w.rng.Int63n(int64(n-1)))
		if credit >= debit {
			credit++
		}
		transfers[i] = Transfer{
			ID:              NewTransferID(),
			DebitAccountID:  debit,
			CreditAccountID: credit,
			Amount:          1 + uint64(w.rng.Int63n(int64(w.cfg.MaxAmount))),
			Ledger:          w.cfg.Ledger,
			Timestamp:       time.Now().UnixNano(),
		}
	}
	return transfers
}
