package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve mapping for event documents. Title and
// description get English stemming for free-text queries; date, clock times
// and tags stay exact so they survive filtering and round-trip into results.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = en.AnalyzerName
	titleFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("title", titleFieldMapping)

	descFieldMapping := bleve.NewTextFieldMapping()
	descFieldMapping.Analyzer = en.AnalyzerName
	descFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("description", descFieldMapping)

	// Keyword fields, stored for result reconstruction.
	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	idFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	dateFieldMapping := bleve.NewTextFieldMapping()
	dateFieldMapping.Analyzer = keyword.Name
	dateFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("date", dateFieldMapping)

	startFieldMapping := bleve.NewTextFieldMapping()
	startFieldMapping.Analyzer = keyword.Name
	startFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("start", startFieldMapping)

	endFieldMapping := bleve.NewTextFieldMapping()
	endFieldMapping.Analyzer = keyword.Name
	endFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("end", endFieldMapping)

	tagsFieldMapping := bleve.NewTextFieldMapping()
	tagsFieldMapping.Analyzer = keyword.Name
	tagsFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("tags", tagsFieldMapping)

	urlFieldMapping := bleve.NewTextFieldMapping()
	urlFieldMapping.Analyzer = keyword.Name
	urlFieldMapping.Store = true
	urlFieldMapping.Index = false
	docMapping.AddFieldMappingsAt("source_url", urlFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
