package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/homescan/leaselens/internal/models"
)

// FetchPrecedentsByIDs loads precedent rows keyed by precedent id. Blank ids
// are dropped and duplicates collapsed, preserving first occurrence order for
// the query. Ids with no matching row are simply absent from the result.
// When includeFullText is false the full_text column is not read, keeping the
// records lightweight.
func (s *Store) FetchPrecedentsByIDs(ctx context.Context, ids []string, includeFullText bool) (map[string]*models.PrecedentRecord, error) {
	seen := make(map[string]bool, len(ids))
	var clean []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		clean = append(clean, id)
	}
	if len(clean) == 0 {
		return map[string]*models.PrecedentRecord{}, nil
	}

	cols := `precedent_id, case_name, case_number, decision_date, court_name,
		judgment_type, issues, summary, referenced_laws, referenced_cases`
	if includeFullText {
		cols += ", full_text"
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(clean)), ",")
	query := fmt.Sprintf("SELECT %s FROM precedents WHERE precedent_id IN (%s)", cols, placeholders)

	args := make([]any, len(clean))
	for i, id := range clean {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch precedents: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*models.PrecedentRecord, len(clean))
	for rows.Next() {
		var p models.PrecedentRecord
		dest := []any{
			&p.PrecedentID, &p.CaseName, &p.CaseNumber, &p.DecisionDate, &p.CourtName,
			&p.JudgmentType, &p.Issues, &p.Summary, &p.ReferencedLaws, &p.ReferencedCases,
		}
		if includeFullText {
			dest = append(dest, &p.FullText)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan precedent row: %w", err)
		}
		out[p.PrecedentID] = &p
	}
	return out, rows.Err()
}
