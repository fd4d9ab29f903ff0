package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Params configures a wager search.
type Params struct {
	Query       string
	WorkplaceID string   // Required; results never cross workplaces
	Statuses    []string // Empty means any status
	Limit       int
	Offset      int
}

// Hit is one matching wager.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
	Title string  `json:"title"`
}

// Result is a page of hits.
type Result struct {
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Search runs params against the index, best match first.
func (s *SearchIndex) Search(ctx context.Context, params Params) (*Result, error) {
	if params.WorkplaceID == "" {
		return nil, fmt.Errorf("search requires a workplace")
	}
	if params.Limit <= 0 {
		params.Limit = 20
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildQuery(params), params.Limit, params.Offset, false)
	req.SortBy([]string{"-_score", "-created_at"})
	req.Fields = []string{"title"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	out := &Result{
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
	}
	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		if title, ok := h.Fields["title"].(string); ok {
			hit.Title = title
		}
		out.Hits = append(out.Hits, hit)
	}
	return out, nil
}

// SearchWagers returns the IDs of wagers in workplaceID matching text.
func (s *SearchIndex) SearchWagers(ctx context.Context, workplaceID, text string, limit int) ([]string, error) {
	res, err := s.Search(ctx, Params{Query: text, WorkplaceID: workplaceID, Limit: limit})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

// buildQuery matches the text against any searchable field and filters by
// workplace and status.
func buildQuery(params Params) query.Query {
	workplace := bleve.NewTermQuery(params.WorkplaceID)
	workplace.SetField("workplace_id")
	queries := []query.Query{workplace}

	if text := strings.TrimSpace(params.Query); text != "" {
		title := bleve.NewMatchQuery(text)
		title.SetField("title")
		title.SetBoost(3.0)

		options := bleve.NewMatchQuery(text)
		options.SetField("options")
		options.SetBoost(1.5)

		tags := bleve.NewMatchQuery(text)
		tags.SetField("tags")
		tags.SetBoost(1.5)

		description := bleve.NewMatchQuery(text)
		description.SetField("description")

		// Typo tolerance on titles.
		fuzzy := bleve.NewFuzzyQuery(strings.ToLower(text))
		fuzzy.SetFuzziness(1)
		fuzzy.SetField("title")
		fuzzy.SetBoost(0.8)

		textQueries := []query.Query{title, options, tags, description, fuzzy}
		if len(text) >= 2 {
			prefix := bleve.NewPrefixQuery(strings.ToLower(text))
			prefix.SetField("title")
			prefix.SetBoost(0.5)
			textQueries = append(textQueries, prefix)
		}
		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if len(params.Statuses) > 0 {
		statuses := make([]query.Query, 0, len(params.Statuses))
		for _, st := range params.Statuses {
			tq := bleve.NewTermQuery(st)
			tq.SetField("status")
			statuses = append(statuses, tq)
		}
		queries = append(queries, bleve.NewDisjunctionQuery(statuses...))
	}

	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}
