package core

// SnapshotVersion is the current snapshot format version. Import
// rejects any other version with UNSUPPORTED_VERSION.
const SnapshotVersion uint32 = 1

// Snapshot is a versioned, checksummed serialization of ledger state
// used for whole-state backup and restore.
type Snapshot[P Checksummer] struct {
	Version  uint32 `json:"version"`
	Checksum uint64 `json:"checksum"`
	Payload  P      `json:"payload"`
}

// Checksummer exposes a payload's numeric fields, in a fixed order, for
// checksum computation.
type Checksummer interface {
	ChecksumTerms() []uint64
}

// ChecksumOf computes the snapshot checksum: an order-sensitive,
// overflow-wrapping accumulation of the payload's numeric fields folded
// with a fixed multiplier. A fast non-cryptographic digest sufficient
// to catch accidental corruption or mismatched payloads; it is not an
// integrity guarantee against a malicious relayer.
func ChecksumOf(version uint32, payload Checksummer) uint64 {
	sum := uint64(version)
	for _, term := range payload.ChecksumTerms() {
		sum += term
	}
	return sum * 31
}

// RecordSet is the snapshot payload for a record ledger: the id counter
// plus every record in id order.
type RecordSet[R Record] struct {
	NextID  uint32 `json:"next_id"`
	Records []R    `json:"records"`
}

// ChecksumTerms folds the id counter and each record's numeric fields.
func (rs RecordSet[R]) ChecksumTerms() []uint64 {
	terms := []uint64{uint64(rs.NextID)}
	for _, r := range rs.Records {
		terms = append(terms, r.ChecksumTerms()...)
	}
	return terms
}

// Verify recomputes the checksum and checks the version. Returns nil
// when the snapshot is valid for import.
func (s Snapshot[P]) Verify(op string, caller Principal) error {
	if s.Version != SnapshotVersion {
		return &Error{
			Code:      ErrCodeUnsupportedVersion,
			Message:   "unsupported snapshot version",
			Op:        op,
			Principal: caller,
		}
	}
	if ChecksumOf(s.Version, s.Payload) != s.Checksum {
		return &Error{
			Code:      ErrCodeChecksumMismatch,
			Message:   "snapshot checksum mismatch",
			Op:        op,
			Principal: caller,
		}
	}
	return nil
}
