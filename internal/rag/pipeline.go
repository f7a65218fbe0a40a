// Package rag sequences the three evidence layers for one clause: statute
// retrieval, the precedent chain (headnotes, full text, lexical evidence),
// and mediation-case retrieval.
package rag

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/homescan/leaselens/internal/config"
	"github.com/homescan/leaselens/internal/evidence"
	"github.com/homescan/leaselens/internal/models"
	"github.com/homescan/leaselens/internal/retrieval"
	"github.com/homescan/leaselens/internal/store"
)

// Pipeline wires retrieval, full-text fetch, and evidence extraction into
// one layered run per clause. Handles are initialized once and shared
// across requests.
type Pipeline struct {
	cfg       *config.Config
	retriever *retrieval.DenseRetriever
	headnotes *retrieval.HeadnoteResolver
	store     *store.Store
	logger    *zap.Logger
}

// New creates a pipeline over the given components.
func New(cfg *config.Config, retriever *retrieval.DenseRetriever, headnotes *retrieval.HeadnoteResolver, st *store.Store, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		retriever: retriever,
		headnotes: headnotes,
		store:     st,
		logger:    logger,
	}
}

// Run validates the query and executes all three layers. Statute and
// mediation retrieval are independent of the precedent chain, so the three
// run concurrently; the final result does not depend on execution order.
// Precedents that resolve from headnote search but have no stored full text
// stay in the headnote hits and are simply absent from the full-text map
// and the evidence map.
func (p *Pipeline) Run(ctx context.Context, query *models.AnalyzeQuery) (*models.LayeredResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	clause := query.ClauseText

	result := &models.LayeredResult{
		ClauseText:        clause,
		PrecedentFullText: map[string]*models.PrecedentRecord{},
		PrecedentEvidence: map[string][]models.ScoredEvidence{},
	}

	var (
		errChan = make(chan error, 3)
		wg      sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		hits, err := p.retriever.Search(ctx, p.collection(models.KindLaw), clause, query.TopKLaw)
		if err != nil {
			errChan <- fmt.Errorf("law retrieval failed: %w", err)
			return
		}
		result.LawHits = hits
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		hits, err := p.retriever.Search(ctx, p.collection(models.KindMediation), clause, query.TopKMediation)
		if err != nil {
			errChan <- fmt.Errorf("mediation retrieval failed: %w", err)
			return
		}
		result.MediationHits = hits
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := p.runPrecedentChain(ctx, clause, query, result); err != nil {
			errChan <- err
		}
	}()

	wg.Wait()
	close(errChan)
	for err := range errChan {
		if err != nil {
			return nil, err
		}
	}

	p.logger.Debug("layered retrieval complete",
		zap.Int("law_hits", len(result.LawHits)),
		zap.Int("mediation_hits", len(result.MediationHits)),
		zap.Int("precedent_hits", len(result.PrecedentHeadnoteHits)),
		zap.Int("precedents_with_evidence", len(result.PrecedentEvidence)))
	return result, nil
}

// runPrecedentChain is the only strictly ordered part of the pipeline:
// headnote resolution, then full-text fetch, then per-precedent evidence
// extraction and re-ranking.
func (p *Pipeline) runPrecedentChain(ctx context.Context, clause string, query *models.AnalyzeQuery, result *models.LayeredResult) error {
	hits, err := p.headnotes.Retrieve(ctx, clause, query.TopKPrecedent)
	if err != nil {
		return fmt.Errorf("precedent headnote retrieval failed: %w", err)
	}
	result.PrecedentHeadnoteHits = hits
	if len(hits) == 0 {
		return nil
	}

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.PrecedentID
	}
	records, err := p.store.FetchPrecedentsByIDs(ctx, ids, true)
	if err != nil {
		return fmt.Errorf("precedent full-text fetch failed: %w", err)
	}
	result.PrecedentFullText = records

	// Keep headnote hit order for extraction input.
	ordered := make([]*models.PrecedentRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := records[id]; ok {
			ordered = append(ordered, rec)
		}
	}

	ev := p.cfg.Evidence
	raw := evidence.Extract(clause, ordered, evidence.ExtractOptions{
		TopNPerCase:       query.TopNEvidenceRaw,
		MinParagraphChars: ev.MinParagraphChars,
		MinOverlap:        ev.MinOverlap,
		ShortQueryTokens:  ev.ShortQueryTokens,
		ShortQueryOverlap: ev.ShortQueryOverlap,
	})

	opts := evidence.RerankOptions{
		DropFormal:       ev.DropFormalOrDefault(),
		MinAdjustedScore: ev.MinAdjustedScore,
		KeepTopIfEmpty:   ev.KeepTopIfEmpty,
	}
	for pid, spans := range raw {
		scored := evidence.Rerank(spans, opts)
		if len(scored) == 0 {
			continue
		}
		if len(scored) > query.TopNEvidenceFinal {
			scored = scored[:query.TopNEvidenceFinal]
		}
		result.PrecedentEvidence[pid] = scored
	}
	return nil
}

func (p *Pipeline) collection(kind models.DataKind) string {
	return p.cfg.Datasets[kind].CollectionName
}
