package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/homescan/leaselens/internal/models"
	"github.com/homescan/leaselens/pkg/utils"
)

// Filters narrows an IterDocuments scan. Zero values mean "no filter".
// Which fields apply depends on the data kind: law uses source name/year and
// the id range, mediation uses source year and the id range (against case
// ids), precedent uses the decision date range, court name, and PrecedentIDs.
type Filters struct {
	SourceName   string
	SourceYear   int
	IDMin        int64
	IDMax        int64
	DecisionFrom string
	DecisionTo   string
	CourtName    string
	PrecedentIDs []string
	Limit        int
}

func pkColumn(kind models.DataKind) string {
	switch kind {
	case models.KindLaw:
		return "id"
	case models.KindMediation:
		return "case_id"
	default:
		return "precedent_id"
	}
}

// IterDocuments reads every row of the kind's table that matches the filters
// and renders each row as one DocumentRecord. Text fields are HTML-stripped,
// whitespace-normalized, clipped to the dataset's per-field limit, and
// rendered as "[field]\n<value>" sections joined by blank lines. Rows whose
// text fields are all empty are skipped.
func (s *Store) IterDocuments(ctx context.Context, kind models.DataKind, f Filters) ([]models.DocumentRecord, error) {
	ds, ok := s.datasets[kind]
	if !ok {
		return nil, fmt.Errorf("no dataset configured for kind %q", kind)
	}

	pk := pkColumn(kind)
	cols := selectColumns(pk, ds.TextFields, ds.MetadataFields)
	query, args := buildQuery(kind, ds.TableName, pk, cols, f)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", ds.TableName, err)
	}
	defer rows.Close()

	var records []models.DocumentRecord
	for rows.Next() {
		raw := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", ds.TableName, err)
		}

		row := make(map[string]string, len(cols))
		for i, c := range cols {
			if raw[i].Valid {
				row[c] = raw[i].String
			}
		}

		text := renderSections(ds.TextFields, ds.FieldMaxChars, row)
		if text == "" {
			continue
		}

		meta := map[string]any{
			"doc_id":    fmt.Sprintf("%s:%s", kind, row[pk]),
			"data_kind": string(kind),
		}
		for _, c := range ds.MetadataFields {
			if v := row[c]; v != "" {
				meta[c] = v
			}
		}
		records = append(records, models.DocumentRecord{Text: text, Metadata: meta})
	}
	return records, rows.Err()
}

func selectColumns(pk string, textFields, metaFields []string) []string {
	seen := map[string]bool{pk: true}
	cols := []string{pk}
	for _, c := range append(append([]string{}, textFields...), metaFields...) {
		if !seen[c] {
			seen[c] = true
			cols = append(cols, c)
		}
	}
	return cols
}

func buildQuery(kind models.DataKind, table, pk string, cols []string, f Filters) (string, []any) {
	var where []string
	var args []any

	switch kind {
	case models.KindLaw:
		if f.SourceName != "" {
			where = append(where, "source_name = ?")
			args = append(args, f.SourceName)
		}
		if f.SourceYear > 0 {
			where = append(where, "source_year = ?")
			args = append(args, f.SourceYear)
		}
	case models.KindMediation:
		if f.SourceYear > 0 {
			where = append(where, "source_year = ?")
			args = append(args, f.SourceYear)
		}
	case models.KindPrecedent:
		if f.DecisionFrom != "" {
			where = append(where, "decision_date >= ?")
			args = append(args, f.DecisionFrom)
		}
		if f.DecisionTo != "" {
			where = append(where, "decision_date <= ?")
			args = append(args, f.DecisionTo)
		}
		if f.CourtName != "" {
			where = append(where, "court_name = ?")
			args = append(args, f.CourtName)
		}
		if len(f.PrecedentIDs) > 0 {
			placeholders := strings.TrimSuffix(strings.Repeat("?,", len(f.PrecedentIDs)), ",")
			where = append(where, fmt.Sprintf("precedent_id IN (%s)", placeholders))
			for _, id := range f.PrecedentIDs {
				args = append(args, id)
			}
		}
	}

	if kind != models.KindPrecedent {
		if f.IDMin > 0 {
			where = append(where, pk+" >= ?")
			args = append(args, f.IDMin)
		}
		if f.IDMax > 0 {
			where = append(where, pk+" <= ?")
			args = append(args, f.IDMax)
		}
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), table)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + pk
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	return query, args
}

func renderSections(fields []string, maxChars map[string]int, row map[string]string) string {
	var sections []string
	for _, field := range fields {
		v := utils.NormalizeText(utils.StripHTML(row[field]))
		if v == "" {
			continue
		}
		if limit, ok := maxChars[field]; ok && limit > 0 {
			v = utils.Clip(v, limit)
		}
		sections = append(sections, "["+field+"]\n"+v)
	}
	return strings.Join(sections, "\n\n")
}
