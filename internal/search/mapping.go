package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve mapping for wager documents.
//
// Title, description and option labels use English stemming. Tags use the
// simple analyzer so "Low risk" matches "low" and "risk" without stemming.
// Status and workplace are exact keywords used as filters.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	doc := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = en.AnalyzerName
	title.Store = true
	title.IncludeTermVectors = true
	doc.AddFieldMappingsAt("title", title)

	// Not stored, it can be long.
	description := bleve.NewTextFieldMapping()
	description.Analyzer = en.AnalyzerName
	description.Store = false
	doc.AddFieldMappingsAt("description", description)

	options := bleve.NewTextFieldMapping()
	options.Analyzer = en.AnalyzerName
	options.Store = true
	doc.AddFieldMappingsAt("options", options)

	tags := bleve.NewTextFieldMapping()
	tags.Analyzer = simple.Name
	tags.Store = true
	doc.AddFieldMappingsAt("tags", tags)

	for _, field := range []string{"id", "status", "workplace_id"} {
		kw := bleve.NewTextFieldMapping()
		kw.Analyzer = keyword.Name
		kw.Store = field != "id"
		doc.AddFieldMappingsAt(field, kw)
	}

	createdAt := bleve.NewNumericFieldMapping()
	createdAt.Store = true
	doc.AddFieldMappingsAt("created_at", createdAt)

	indexMapping.AddDocumentMapping("_default", doc)
	return indexMapping
}
