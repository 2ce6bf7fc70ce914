package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAudit_EvictsOldestAtCapacity(t *testing.T) {
	var log []AuditEntry
	for i := 0; i < AuditCapacity+5; i++ {
		log = appendAudit(log, AuditEntry{
			Operation: fmt.Sprintf("op-%d", i),
			Caller:    "alice",
			Timestamp: int64(i),
			Success:   true,
		})
	}

	require.Len(t, log, AuditCapacity)

	// The retained entries are the 100 most recent, in insertion order.
	assert.Equal(t, "op-5", log[0].Operation)
	assert.Equal(t, fmt.Sprintf("op-%d", AuditCapacity+4), log[len(log)-1].Operation)
}

func TestReadAudit(t *testing.T) {
	var log []AuditEntry
	for i := 0; i < 10; i++ {
		log = appendAudit(log, AuditEntry{Operation: fmt.Sprintf("op-%d", i)})
	}

	tests := []struct {
		name  string
		from  uint32
		limit uint32
		want  int
		first string
	}{
		{name: "all", from: 0, limit: 200, want: 10, first: "op-0"},
		{name: "offset", from: 4, limit: 3, want: 3, first: "op-4"},
		{name: "tail overrun", from: 8, limit: 10, want: 2, first: "op-8"},
		{name: "beyond length", from: 10, limit: 5, want: 0},
		{name: "zero limit", from: 0, limit: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := readAudit(log, tt.from, tt.limit)
			require.Len(t, got, tt.want)
			if tt.want > 0 {
				assert.Equal(t, tt.first, got[0].Operation)
			}
		})
	}
}

func TestReadAudit_LimitClampedToCapacity(t *testing.T) {
	var log []AuditEntry
	for i := 0; i < AuditCapacity; i++ {
		log = appendAudit(log, AuditEntry{Timestamp: int64(i)})
	}

	got := readAudit(log, 0, 1000)
	assert.Len(t, got, AuditCapacity)
}
