package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindForAmount(t *testing.T) {
	assert.Equal(t, EntryEarned, KindForAmount(100))
	assert.Equal(t, EntryEarned, KindForAmount(0))
	assert.Equal(t, EntrySpent, KindForAmount(-1))
}

func TestLedgerEntryConsistent(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		kind   EntryKind
		want   bool
	}{
		{"earned positive", 50, EntryEarned, true},
		{"earned zero", 0, EntryEarned, true},
		{"earned negative", -50, EntryEarned, false},
		{"spent negative", -50, EntrySpent, true},
		{"spent zero", 0, EntrySpent, true},
		{"spent positive", 50, EntrySpent, false},
		{"unknown kind", 50, EntryKind("ADJUSTED"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &LedgerEntry{Amount: tt.amount, Kind: tt.kind}
			assert.Equal(t, tt.want, e.Consistent())
		})
	}
}

func TestEntryKindValid(t *testing.T) {
	assert.True(t, EntryEarned.Valid())
	assert.True(t, EntrySpent.Valid())
	assert.False(t, EntryKind("BONUS").Valid())
}
