// Package core implements the owned, replay-protected state-mutation
// core shared by every remit ledger.
//
// A Ledger binds four collaborators together: a Store (atomic key/value
// persistence), an Authorizer (external authorization capability), a
// Clock, and an EventSink. On top of those it provides the fixed
// mutation protocol every domain operation follows:
//
//	authorize -> replay check -> domain validation -> state mutation
//	-> nonce advance -> audit append -> event emission
//
// The protocol is written once, generically over the domain record type.
// Domain packages (goals, bills, insurance, split) supply only their
// record shape and per-operation validation; replay protection, the
// bounded audit log, and checksummed snapshot export/import come from
// here.
//
// # Atomicity
//
// Each call executes to completion against the Store with no
// intra-operation interleaving: state is loaded, mutated in memory, and
// persisted only after every validation has passed. A failed call
// leaves the record store and nonce table untouched; the audit log may
// still record the failed attempt. Calls that fail authorization abort
// before any ledger code runs and are not audited.
package core
