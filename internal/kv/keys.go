package kv

// Key prefixes. Each prefix ends with '|' as a separator. The same layout is
// used by the pebble and badger sink backends.
const (
	PrefixTransfer = "t|" // t|{transfer_id}
	PrefixAccount  = "a|" // a|{ledger:4BE}{account_id:8BE}
	PrefixToken    = "k|" // k|{client_request_token}
)

// TransferKey returns the sink key for a transfer record: t|{transfer_id}
func TransferKey(transferID string) []byte {
	return append([]byte(PrefixTransfer), transferID...)
}

// AccountKey returns the sink key for an account record:
// a|{ledger:4BE}{account_id:8BE}. Accounts of one ledger are contiguous and
// ordered by id, so a ledger scan is a prefix scan.
func AccountKey(ledger uint32, accountID uint64) []byte {
	k := []byte(PrefixAccount)
	k = PutUint32BE(k, ledger)
	return PutUint64BE(k, accountID)
}

// AccountPrefix returns the scan prefix for all accounts in a ledger.
func AccountPrefix(ledger uint32) []byte {
	return PutUint32BE([]byte(PrefixAccount), ledger)
}

// TokenKey returns the sink key for an idempotency token: k|{token}
func TokenKey(token string) []byte {
	return append([]byte(PrefixToken), token...)
}

// PrefixUpperBound returns the exclusive upper bound for a prefix scan:
// the prefix with trailing 0xFF bytes dropped and its last remaining byte
// incremented. A prefix made only of 0xFF bytes has no bound and yields nil.
func PrefixUpperBound(prefix []byte) []byte {
	upper := make([]byte, len(prefix))
	copy(upper, prefix)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] < 0xFF {
			upper[i]++
			return upper[:i+1]
		}
	}
	return nil
}
