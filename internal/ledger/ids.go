package ledger

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

func newULID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Now(), entropy).String()
}

// NewTransferID returns a fresh transfer id: a ULID, so ids generated by one
// process sort in creation order.
func NewTransferID() string {
	return newULID()
}

// NewClientRequestToken returns a fresh idempotency token for one
// transactional write.
func NewClientRequestToken() string {
	return newULID()
}
