package store

import (
	"github.com/workbets/workbets-server/internal/domain"
)

// Index names.
const (
	IndexEmail     = "email"
	IndexUsername  = "username"
	IndexUser      = "user"
	IndexWorkplace = "workplace"
	IndexStatus    = "status"
	IndexWager     = "wager"
	IndexLabel     = "label"
	IndexSlug      = "slug"
	IndexWagerUser = "wager_user"
)

// UnassignedWorkplace is the workplace index key of wagers that carry no
// WorkplaceID of their own.
const UnassignedWorkplace = ""

func one(v string) []string { return []string{v} }

// Collections.
var (
	Workplaces = NewCollection("workplaces", func(w *domain.Workplace) string { return w.ID })

	Users = NewCollection("users", func(u *domain.User) string { return u.ID }).
		WithUniqueIndex(IndexEmail, func(u *domain.User) []string { return one(u.Email) }, domain.NormalizeEmail).
		WithIndex(IndexWorkplace, func(u *domain.User) []string { return one(u.WorkplaceID) })

	// Username is deliberately not unique: a duplicate must be detectable so
	// authentication can refuse it instead of picking one.
	Credentials = NewCollection("credentials", func(c *domain.Credential) string { return c.ID }).
			WithIndexTransform(IndexUsername, func(c *domain.Credential) []string { return one(c.Username) }, domain.NormalizeEmail).
			WithIndex(IndexUser, func(c *domain.Credential) []string { return one(c.UserID) })

	Wagers = NewCollection("wagers", func(w *domain.Wager) string { return w.ID }).
		WithIndex(IndexStatus, func(w *domain.Wager) []string { return one(string(w.Status)) }).
		WithIndex(IndexWorkplace, func(w *domain.Wager) []string {
			if w.WorkplaceID == nil {
				return one(UnassignedWorkplace)
			}
			return one(*w.WorkplaceID)
		})

	Options = NewCollection("options", func(o *domain.Option) string { return o.ID }).
		WithIndex(IndexWager, func(o *domain.Option) []string { return one(o.WagerID) })

	WagerTags = NewCollection("wager_tags", func(t *domain.WagerTag) string { return t.ID }).
			WithIndex(IndexWager, func(t *domain.WagerTag) []string { return one(t.WagerID) }).
			WithIndex(IndexLabel, func(t *domain.WagerTag) []string { return one(t.Tag) })

	TagOptions = NewCollection("tag_options", func(t *domain.TagOption) string { return t.ID }).
			WithUniqueIndex(IndexSlug, func(t *domain.TagOption) []string { return one(t.Slug) }, nil).
			WithIndex(IndexLabel, func(t *domain.TagOption) []string { return one(t.Label) })

	Votes = NewCollection("votes", func(v *domain.Vote) string { return v.ID }).
		WithIndex(IndexWager, func(v *domain.Vote) []string { return one(v.WagerID) }).
		WithIndex(IndexUser, func(v *domain.Vote) []string { return one(v.UserID) }).
		WithUniqueIndex(IndexWagerUser, func(v *domain.Vote) []string { return one(domain.VoteKey(v.WagerID, v.UserID)) }, nil)

	Transactions = NewCollection("points_transactions", func(t *domain.PointsTransaction) string { return t.ID }).
			WithIndex(IndexUser, func(t *domain.PointsTransaction) []string { return one(t.UserID) }).
			WithIndex(IndexWager, func(t *domain.PointsTransaction) []string {
			if t.WagerID == nil {
				return nil
			}
			return one(*t.WagerID)
		})

	SeedMarkers = NewCollection("seed_markers", func(m *domain.SeedMarker) string { return m.Name })
)
