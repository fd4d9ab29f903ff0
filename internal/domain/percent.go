package domain

import (
	"slices"
	"strings"
)

// VotePercents distributes 100 points across options in proportion to their
// vote counts using the largest remainder method. Each option first gets
// floor(100*count/total); the points lost to rounding go one each to the
// options with the largest remainders, ties going to the lower SortOrder.
//
// The result always sums to 100 when at least one vote names an option in
// the list, and is all zeros otherwise. Votes for unknown options are ignored.
func VotePercents(options []*Option, votes []*Vote) map[string]int {
	counts := make(map[string]int, len(options))
	for _, o := range options {
		counts[o.ID] = 0
	}
	total := 0
	for _, v := range votes {
		if _, ok := counts[v.OptionID]; ok {
			counts[v.OptionID]++
			total++
		}
	}

	percents := make(map[string]int, len(options))
	if total == 0 {
		for _, o := range options {
			percents[o.ID] = 0
		}
		return percents
	}

	type share struct {
		opt       *Option
		remainder int
	}
	shares := make([]share, 0, len(options))
	assigned := 0
	for _, o := range options {
		scaled := 100 * counts[o.ID]
		percents[o.ID] = scaled / total
		assigned += scaled / total
		shares = append(shares, share{opt: o, remainder: scaled % total})
	}

	slices.SortStableFunc(shares, func(a, b share) int {
		if a.remainder != b.remainder {
			return b.remainder - a.remainder
		}
		if a.opt.SortOrder != b.opt.SortOrder {
			return a.opt.SortOrder - b.opt.SortOrder
		}
		return strings.Compare(a.opt.ID, b.opt.ID)
	})
	for i := 0; i < 100-assigned; i++ {
		percents[shares[i].opt.ID]++
	}

	return percents
}
