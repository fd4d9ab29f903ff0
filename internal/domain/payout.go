package domain

import (
	"slices"
	"strings"
)

// Share is one winner's portion of a settled pool.
type Share struct {
	UserID string
	Amount int
}

// SplitPool divides pool evenly among the winning votes. The integer
// remainder goes one point each to the earliest voters (by CreatedAt, then
// vote ID), so the shares always sum to pool. Zero shares are omitted.
func SplitPool(pool int, winners []*Vote) []Share {
	if pool <= 0 || len(winners) == 0 {
		return nil
	}

	ordered := slices.Clone(winners)
	slices.SortFunc(ordered, func(a, b *Vote) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	base := pool / len(ordered)
	extra := pool % len(ordered)

	shares := make([]Share, 0, len(ordered))
	for i, v := range ordered {
		amount := base
		if i < extra {
			amount++
		}
		if amount > 0 {
			shares = append(shares, Share{UserID: v.UserID, Amount: amount})
		}
	}
	return shares
}
