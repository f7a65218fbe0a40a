package config

import (
	"os"

	"github.com/homescan/leaselens/internal/models"
)

// DatasetConfig defines, for one corpus, which table it comes from, which
// vector collection it feeds, which columns are concatenated into the
// document text (order matters), which columns become chunk metadata, and
// optional per-field character clipping applied before chunking.
type DatasetConfig struct {
	TableName      string
	CollectionName string
	TextFields     []string
	MetadataFields []string
	FieldMaxChars  map[string]int
}

// PrecedentVectorModeEnv selects which precedent collection the precedent
// dataset feeds: "headnote" (default, issue/summary fields) or "fulltext".
const PrecedentVectorModeEnv = "PRECEDENT_VECTOR_MODE"

func precedentDataset() DatasetConfig {
	headnote := DatasetConfig{
		TableName:      "precedents",
		CollectionName: "precedent_cases_headnote",
		TextFields: []string{
			"case_name",
			"case_number",
			"issues",
			"summary",
			"referenced_laws",
			"referenced_cases",
		},
		MetadataFields: []string{
			"precedent_id",
			"decision_date",
			"court_name",
			"judgment_type",
			"case_number",
			"case_name",
		},
	}
	if os.Getenv(PrecedentVectorModeEnv) != "fulltext" {
		return headnote
	}
	return DatasetConfig{
		TableName:      "precedents",
		CollectionName: "precedent_cases_fulltext",
		TextFields: []string{
			"case_name",
			"case_number",
			"full_text",
		},
		MetadataFields: headnote.MetadataFields,
		// Full judgments run very long; clip so one case cannot dominate
		// the collection.
		FieldMaxChars: map[string]int{"full_text": 30000},
	}
}

func defaultDatasets() map[models.DataKind]DatasetConfig {
	return map[models.DataKind]DatasetConfig{
		models.KindLaw: {
			TableName:      "law_text",
			CollectionName: "housing_lease_law",
			TextFields:     []string{"source_name", "title", "text"},
			MetadataFields: []string{
				"source_year", "source_name", "source_doc",
				"page_start", "page_end", "title",
			},
		},
		models.KindMediation: {
			TableName:      "mediation_cases",
			CollectionName: "mediation_cases",
			TextFields: []string{
				"title", "facts", "issues", "related_rules",
				"related_precedents", "result", "order_text",
			},
			MetadataFields: []string{
				"source_year", "source_name", "source_doc",
				"page_start", "page_end", "title",
			},
		},
		models.KindPrecedent: precedentDataset(),
	}
}
