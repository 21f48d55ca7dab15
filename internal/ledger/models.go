// Package ledger implements a double-entry transfer workload: an idempotent
// multi-item transactional write builder, pluggable sink backends, and a
// workload adapter the driver can pace.
package ledger

// Transfer is one immutable ledger movement. IDs are lexicographically
// sortable and monotonic, so a conditional put on the id doubles as
// deduplication when a client retries.
type Transfer struct {
	ID              string `json:"id"`
	DebitAccountID  uint64 `json:"debit_account_id"`
	CreditAccountID uint64 `json:"credit_account_id"`
	Amount          uint64 `json:"amount"`
	Ledger          uint32 `json:"ledger"`
	Code            uint16 `json:"code,omitempty"`
	Flags           uint16 `json:"flags,omitempty"`
	UserData        uint64 `json:"user_data,omitempty"`
	PendingID       string `json:"pending_id,omitempty"`
	Timeout         uint32 `json:"timeout,omitempty"`
	Timestamp       int64  `json:"timestamp,omitempty"`
}

// Account carries the four balance counters. Balances never go negative;
// the workload only posts debits and credits, it does not reserve.
type Account struct {
	ID             uint64 `json:"id"`
	Ledger         uint32 `json:"ledger"`
	DebitsPending  uint64 `json:"debits_pending"`
	DebitsPosted   uint64 `json:"debits_posted"`
	CreditsPending uint64 `json:"credits_pending"`
	CreditsPosted  uint64 `json:"credits_posted"`
	Code           uint16 `json:"code,omitempty"`
	Flags          uint16 `json:"flags,omitempty"`
	UserData       uint64 `json:"user_data,omitempty"`
	Timestamp      int64  `json:"timestamp,omitempty"`
}

// accountRef identifies an account within a sink.
type accountRef struct {
	Ledger uint32
	ID     uint64
}
