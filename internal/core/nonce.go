package core

import (
	"fmt"
	"math"
)

// nonceTable maps each principal to the next nonce expected from it.
// Unseen principals expect 0. A single counter per principal serializes
// all of that principal's mutating calls across every operation kind,
// preventing cross-operation replay and giving clients one value to
// poll before constructing the next call.
type nonceTable map[Principal]uint64

// expected returns the next nonce the principal must supply.
func (t nonceTable) expected(principal Principal) uint64 {
	return t[principal]
}

// require fails with REPLAY_REJECTED when supplied does not match the
// expected nonce. It never advances state.
func (t nonceTable) require(op string, principal Principal, supplied uint64) error {
	expected := t.expected(principal)
	if supplied != expected {
		return &Error{
			Code:      ErrCodeReplayRejected,
			Message:   fmt.Sprintf("nonce mismatch: expected %d, got %d", expected, supplied),
			Op:        op,
			Principal: principal,
		}
	}
	return nil
}

// advance increments the principal's counter by one. Fails with
// NONCE_OVERFLOW if the counter is already at its maximum.
func (t nonceTable) advance(op string, principal Principal) error {
	current := t.expected(principal)
	if current == math.MaxUint64 {
		return &Error{
			Code:      ErrCodeNonceOverflow,
			Message:   "nonce counter exhausted",
			Op:        op,
			Principal: principal,
		}
	}
	t[principal] = current + 1
	return nil
}
