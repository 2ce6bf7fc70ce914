package core

// Record is one managed domain entity (a bill, policy, goal, or split
// configuration). Implementations are plain data payloads; the core
// manages them generically.
//
// RecordID and RecordOwner are immutable once the record is created:
// ids are assigned by the orchestrator, never by the caller, and a
// record's owner never changes. ChecksumTerms returns the record's
// numeric fields in a fixed order for the snapshot checksum.
type Record interface {
	RecordID() uint32
	RecordOwner() Principal
	ChecksumTerms() []uint64
}

// State is the in-memory image of one ledger's record store: a mapping
// from numeric id to record plus the id counter. Ids are assigned
// sequentially starting at 1 and never reused; nextID is the count of
// records ever created.
type State[R Record] struct {
	records map[uint32]R
	nextID  uint32
}

// NewState returns an empty state.
func NewState[R Record]() *State[R] {
	return &State[R]{records: make(map[uint32]R)}
}

// NextID returns the id the next created record would receive, without
// mutating the counter.
func (s *State[R]) NextID() uint32 {
	return s.nextID + 1
}

// AllocateID increments the id counter and returns the new id. Called
// exactly once per creation.
func (s *State[R]) AllocateID() uint32 {
	s.nextID++
	return s.nextID
}

// Get returns the record stored under id.
func (s *State[R]) Get(id uint32) (R, bool) {
	r, ok := s.records[id]
	return r, ok
}

// Set upserts the record stored under id.
func (s *State[R]) Set(id uint32, r R) {
	s.records[id] = r
}

// Len returns the number of stored records.
func (s *State[R]) Len() int {
	return len(s.records)
}

// OwnedBy returns, in id order, every record whose owner equals
// principal and for which keep (if non-nil) returns true. The linear
// scan over 1..nextID is a deliberate tradeoff for bounded-size
// per-principal ledgers.
func (s *State[R]) OwnedBy(principal Principal, keep func(R) bool) []R {
	var out []R
	for id := uint32(1); id <= s.nextID; id++ {
		r, ok := s.records[id]
		if !ok || r.RecordOwner() != principal {
			continue
		}
		if keep != nil && !keep(r) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Export returns the full payload for a snapshot: the id counter plus
// every record in id order.
func (s *State[R]) Export() RecordSet[R] {
	rs := RecordSet[R]{NextID: s.nextID}
	for id := uint32(1); id <= s.nextID; id++ {
		if r, ok := s.records[id]; ok {
			rs.Records = append(rs.Records, r)
		}
	}
	return rs
}

// Replace discards the current contents and installs the payload's
// records and id counter. Used by snapshot import; the caller has
// already verified version, checksum, and ownership.
func (s *State[R]) Replace(rs RecordSet[R]) {
	s.records = make(map[uint32]R, len(rs.Records))
	for _, r := range rs.Records {
		s.records[r.RecordID()] = r
	}
	s.nextID = rs.NextID
}
