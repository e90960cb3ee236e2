package pagemem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/agentmem/pagesense/chunk"
	"github.com/agentmem/pagesense/extract"
	"github.com/agentmem/pagesense/vecstore"
)

const defaultTopK = 5

// FindRelevantContext embeds the task description (augmented with the
// element-type hint when given) and returns the k nearest chunks with their
// reconstructed page context. Results keep the index's descending
// similarity order.
func (s *Session) FindRelevantContext(ctx context.Context, task, elementType string, topK int) *ContextResult {
	if topK <= 0 {
		topK = defaultTopK
	}

	query := task
	if elementType != "" {
		query = fmt.Sprintf("%s - looking for %s element", task, elementType)
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.logger.Error("retrieve: embed query failed", "error", err)
		return &ContextResult{Status: "error", Message: fmt.Sprintf("embed query: %v", err)}
	}

	hits, err := s.store.Search(ctx, s.collection, vector, topK)
	if err != nil {
		if errors.Is(err, vecstore.ErrCollectionNotFound) {
			// Nothing analyzed yet: an empty result, not a failure.
			return &ContextResult{
				Status:            "success",
				RelevantSections:  []Section{},
				Query:             query,
				ElementTypeFilter: elementType,
			}
		}
		s.logger.Error("retrieve: index query failed", "error", err)
		return &ContextResult{Status: "error", Message: fmt.Sprintf("query index: %v", err)}
	}

	sections := make([]Section, 0, len(hits))
	for _, hit := range hits {
		chunkType := hit.Payload[metaChunkType]

		var elements []extract.Interactive
		if chunkType == string(chunk.TypeInteractive) {
			if snap := decodeSnapshot(hit.Payload[metaSnapshot]); snap != nil && snap.Page != nil {
				for _, elem := range snap.Page.Interactive {
					if elementType == "" || elem.Type == elementType {
						elements = append(elements, elem)
					}
				}
			}
		}

		sections = append(sections, Section{
			ChunkID:          hit.ID,
			SectionType:      chunkType,
			RelevanceScore:   hit.Score,
			ContentPreview:   truncatePreview(hit.Text, 200),
			RelevantElements: elements,
			URL:              hit.Payload[metaURL],
			Timestamp:        hit.Payload[metaTimestamp],
		})
	}

	s.logger.Info("relevant context found", "task", task, "sections", len(sections))

	return &ContextResult{
		Status:            "success",
		RelevantSections:  sections,
		SectionCount:      len(sections),
		Query:             query,
		ElementTypeFilter: elementType,
	}
}

// GetElementWithContext runs a type-filtered context query, flattens every
// matched element across sections, and re-ranks the flat list by section
// confidence. The two-stage rank exists because one interactive chunk holds
// several candidate elements whose individual relevance the chunk-level
// score cannot separate.
func (s *Session) GetElementWithContext(ctx context.Context, elementType, taskContext string, topK int) *ElementsResult {
	if topK <= 0 {
		topK = defaultTopK
	}

	found := s.FindRelevantContext(ctx, taskContext, elementType, topK)
	if found.Status != "success" {
		return &ElementsResult{Status: found.Status, Message: found.Message}
	}

	var matches []ElementMatch
	for _, section := range found.RelevantSections {
		for _, elem := range section.RelevantElements {
			matches = append(matches, ElementMatch{
				Selector:           elem.Selector,
				Label:              elem.Label,
				Type:               elem.Type,
				Href:               elem.Href,
				SectionRelevance:   section.RelevanceScore,
				SectionType:        section.SectionType,
				SurroundingContext: section.ContentPreview,
				Confidence:         section.RelevanceScore,
			})
		}
	}

	// Stable sort: ties keep flatten order.
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Confidence > matches[j].Confidence })

	total := len(matches)
	if len(matches) > topK {
		matches = matches[:topK]
	}

	s.logger.Info("elements ranked", "element_type", elementType, "total", total)

	return &ElementsResult{
		Status:      "success",
		ElementType: elementType,
		Elements:    matches,
		TotalFound:  total,
		TaskContext: taskContext,
	}
}

// GetDetectedPopups reads back the current page's full chunk set by
// identity (no similarity query), aggregates popups and popup action
// buttons across chunks, and deduplicates popups by (type, class).
func (s *Session) GetDetectedPopups(ctx context.Context) *PopupsResult {
	s.mu.Lock()
	ids := make([]string, len(s.currentChunks))
	copy(ids, s.currentChunks)
	s.mu.Unlock()

	if len(ids) == 0 {
		return &PopupsResult{
			Status:  "no_page_analyzed",
			Message: "No page has been analyzed yet",
			Popups:  []extract.PopupInfo{},
		}
	}

	points, err := s.store.Get(ctx, s.collection, ids)
	if err != nil {
		s.logger.Error("popups: index read failed", "error", err)
		return &PopupsResult{
			Status:  "error",
			Message: fmt.Sprintf("read chunks: %v", err),
			Popups:  []extract.PopupInfo{},
		}
	}

	var popups []extract.PopupInfo
	var buttons []extract.PopupActionButton
	for _, p := range points {
		snap := decodeSnapshot(p.Payload[metaSnapshot])
		if snap == nil || snap.Page == nil {
			continue
		}
		popups = append(popups, snap.Page.Popups...)
		buttons = append(buttons, snap.Page.PopupButtons...)
	}

	unique := make([]extract.PopupInfo, 0, len(popups))
	seen := make(map[string]struct{}, len(popups))
	for _, p := range popups {
		key := p.Type + "_" + p.Class
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, p)
	}

	if len(buttons) > 20 {
		buttons = buttons[:20]
	}

	s.logger.Info("popups retrieved", "popups", len(unique), "buttons", len(buttons))

	return &PopupsResult{
		Status:       "success",
		Popups:       unique,
		PopupButtons: buttons,
		TotalPopups:  len(unique),
		HasPopups:    len(unique) > 0,
	}
}

func decodeSnapshot(raw string) *chunk.Snapshot {
	if raw == "" {
		return nil
	}
	var snap chunk.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil
	}
	return &snap
}
