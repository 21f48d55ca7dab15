package ledger

import "fmt"

// MaxBatchTransfers is the sink's transactional item limit expressed in
// transfers per batch.
const MaxBatchTransfers = 33

// BalanceUpdate is one coalesced increment against an account: the summed
// debit and credit amounts of every transfer in the batch touching it.
type BalanceUpdate struct {
	AccountID    uint64
	Ledger       uint32
	DebitAmount  uint64
	CreditAmount uint64
}

// Write is one atomic multi-item sink write: a conditional put per transfer
// plus exactly one balance update per distinct account touched. Token is the
// client request token; the sink treats a re-submission with the same token
// as the same logical operation.
type Write struct {
	Token   string
	Puts    []Transfer
	Updates []*BalanceUpdate
}

// ItemCount is the number of items in the write: puts plus coalesced
// updates, at most 3x the transfer count and usually less.
func (w *Write) ItemCount() int {
	return len(w.Puts) + len(w.Updates)
}

// BuildWrite assembles the transactional write for a batch of transfers.
// Per-transfer puts keep their input order; each account's debit and credit
// contributions coalesce into a single update created when the account is
// first touched.
func BuildWrite(transfers []Transfer, token string) (*Write, error) {
	if len(transfers) == 0 {
		return nil, fmt.Errorf("empty transfer batch")
	}
	if len(transfers) > MaxBatchTransfers {
		return nil, fmt.Errorf("batch of %d transfers exceeds limit %d", len(transfers), MaxBatchTransfers)
	}
	if token == "" {
		return nil, fmt.Errorf("missing client request token")
	}

	w := &Write{
		Token: token,
		Puts:  make([]Transfer, 0, len(transfers)),
	}
	byAccount := make(map[accountRef]*BalanceUpdate)

	upsert := func(ledger uint32, id uint64) *BalanceUpdate {
		ref := accountRef{Ledger: ledger, ID: id}
		if u, ok := byAccount[ref]; ok {
			return u
		}
		u := &BalanceUpdate{AccountID: id, Ledger: ledger}
		byAccount[ref] = u
		w.Updates = append(w.Updates, u)
		return u
	}

	for _, t := range transfers {
		w.Puts = append(w.Puts, t)
		upsert(t.Ledger, t.DebitAccountID).DebitAmount += t.Amount
		upsert(t.Ledger, t.CreditAccountID).CreditAmount += t.Amount
	}
	return w, nil
}
