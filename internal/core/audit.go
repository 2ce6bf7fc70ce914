package core

// AuditCapacity bounds the audit log. Once full, the oldest entry is
// evicted to admit a new one (strict FIFO).
const AuditCapacity = 100

// AuditEntry records one attempted mutating call and its outcome.
// Entries are immutable once appended.
type AuditEntry struct {
	Operation string    `json:"operation"`
	Caller    Principal `json:"caller"`
	Timestamp int64     `json:"timestamp"`
	Success   bool      `json:"success"`
}

// appendAudit adds entry to log, evicting the oldest entry first when
// the log is at capacity. Insertion order is preserved among retained
// entries.
func appendAudit(log []AuditEntry, entry AuditEntry) []AuditEntry {
	if len(log) >= AuditCapacity {
		log = log[len(log)-AuditCapacity+1:]
	}
	return append(log, entry)
}

// readAudit returns entries in insertion order starting at from, for at
// most min(limit, AuditCapacity) entries. A from beyond the current
// length yields an empty result rather than an error.
func readAudit(log []AuditEntry, from, limit uint32) []AuditEntry {
	if limit > AuditCapacity {
		limit = AuditCapacity
	}
	if from >= uint32(len(log)) || limit == 0 {
		return nil
	}
	end := from + limit
	if end > uint32(len(log)) {
		end = uint32(len(log))
	}
	out := make([]AuditEntry, end-from)
	copy(out, log[from:end])
	return out
}
