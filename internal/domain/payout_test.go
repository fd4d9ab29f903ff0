package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSplitPool(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	early := &Vote{ID: "v2", UserID: "early", CreatedAt: t0}
	middle := &Vote{ID: "v1", UserID: "middle", CreatedAt: t0.Add(time.Minute)}
	late := &Vote{ID: "v0", UserID: "late", CreatedAt: t0.Add(2 * time.Minute)}

	tests := []struct {
		name     string
		pool     int
		winners  []*Vote
		expected []Share
	}{
		{"single winner takes all", 40, []*Vote{early}, []Share{{"early", 40}}},
		{"even split", 40, []*Vote{late, early}, []Share{{"early", 20}, {"late", 20}}},
		{"remainder to earliest", 10, []*Vote{late, middle, early}, []Share{{"early", 4}, {"middle", 3}, {"late", 3}}},
		{"zero shares omitted", 2, []*Vote{late, middle, early}, []Share{{"early", 1}, {"middle", 1}}},
		{"no winners", 40, nil, nil},
		{"empty pool", 0, []*Vote{early}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitPool(tt.pool, tt.winners))
		})
	}
}

func TestSplitPool_TieOnTimeUsesVoteID(t *testing.T) {
	t0 := time.Now()
	a := &Vote{ID: "vote-a", UserID: "ua", CreatedAt: t0}
	b := &Vote{ID: "vote-b", UserID: "ub", CreatedAt: t0}

	assert.Equal(t, []Share{{"ua", 2}, {"ub", 1}}, SplitPool(3, []*Vote{b, a}))
}
