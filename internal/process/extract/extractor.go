// Package extract mines pain-point statements from raw source records with a
// single batched LLM call per source.
package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/oppradar/oppradar/internal/core/domain"
	"github.com/oppradar/oppradar/internal/core/llm"
	"github.com/oppradar/oppradar/internal/platform/observability"
)

const (
	// defaultMaxRecordsPerCall bounds prompt size per extraction call.
	defaultMaxRecordsPerCall = 120

	// maxPainPointsPerCall is advisory: enforced through the prompt, not
	// on the parsed side.
	maxPainPointsPerCall = 25

	recordTextLimit = 400
)

// sourceInstructions tunes the extraction prompt to each platform's
// conventions.
var sourceInstructions = map[domain.SourceKind]string{
	domain.SourceReddit:      "These are forum posts. Look for frustrations in the post body, recurring workarounds, and requests for tools that do not exist.",
	domain.SourceTwitter:     "These are short social posts. Look for direct complaints, \"wish there was\" phrasing, and sarcastic venting about products.",
	domain.SourceYouTube:     "These are video comments. Look for viewers describing problems the video did not solve and tools they tried and abandoned.",
	domain.SourceProductHunt: "These are product launch listings. Look for the gap each product claims to fill, and infer the underlying unmet need.",
}

// Extractor turns a batch of raw records into typed pain points.
type Extractor struct {
	llm        llm.Client
	maxRecords int
	logger     *zerolog.Logger
}

func New(client llm.Client, maxRecords int, logger *zerolog.Logger) *Extractor {
	if maxRecords <= 0 {
		maxRecords = defaultMaxRecordsPerCall
	}

	return &Extractor{
		llm:        client,
		maxRecords: maxRecords,
		logger:     logger,
	}
}

// Extract formats the records into one prompt, invokes the LLM once, and
// parses the response. On call failure it returns the error so the owning
// branch can record a note; it never panics and never returns partial garbage.
func (e *Extractor) Extract(ctx context.Context, source domain.SourceKind, records []domain.NormalizedRecord) ([]*domain.PainPoint, error) {
	if len(records) == 0 {
		return nil, nil
	}

	if len(records) > e.maxRecords {
		records = records[:e.maxRecords]
	}

	prompt := e.buildPrompt(source, records)

	raw, err := e.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", source, err)
	}

	points := e.parse(source, records, raw)

	observability.PainPointsExtracted.Add(float64(len(points)))
	e.logger.Debug().Str("source", string(source)).Int("records", len(records)).Int("pain_points", len(points)).Msg("extracted pain points")

	return points, nil
}

func (e *Extractor) buildPrompt(source domain.SourceKind, records []domain.NormalizedRecord) string {
	var sb strings.Builder

	sb.WriteString("You are mining user complaints and unmet needs.\n")
	sb.WriteString(sourceInstructions[source])
	sb.WriteString("\n\nFor each distinct pain point you find, output a block:\n")
	sb.WriteString("INDEX: <number of the item it came from>\nQUOTE: <short quote or close paraphrase>\nPROBLEM: <one-sentence normalized problem statement>\n")
	sb.WriteString(fmt.Sprintf("Separate blocks with a line containing only %q. Output at most %d blocks. Skip items with no real complaint.\n\nItems:\n", blockDelimiter, maxPainPointsPerCall))

	for i, record := range records {
		text := record.Text
		if len(text) > recordTextLimit {
			text = text[:recordTextLimit]
		}

		sb.WriteString(fmt.Sprintf("%d. (engagement %d) %s\n", i+1, record.Engagement, text))
	}

	return sb.String()
}

// parse runs the primary block parser and falls back to the loose numbered
// list parser when the primary yields nothing from a non-trivial response.
func (e *Extractor) parse(source domain.SourceKind, records []domain.NormalizedRecord, raw string) []*domain.PainPoint {
	rows := parseBlocks(raw)

	if len(rows) == 0 && len(strings.TrimSpace(raw)) >= minFallbackResponseLength {
		rows = parseLooseList(raw)

		if len(rows) > 0 {
			e.logger.Debug().Str("source", string(source)).Int("lines", len(rows)).Msg("primary extract format missing, used loose list fallback")
		}
	}

	now := time.Now().UTC()
	points := make([]*domain.PainPoint, 0, len(rows))

	for _, row := range rows {
		point := &domain.PainPoint{
			ID:          uuid.NewString(),
			Quote:       row.Quote,
			Problem:     row.Problem,
			Source:      source,
			ExtractedAt: now,
		}

		if row.Index >= 1 && row.Index <= len(records) {
			record := records[row.Index-1]
			point.SourceID = record.ID
			point.Engagement = record.Engagement
			point.Metadata = record.Metadata
		}

		points = append(points, point)
	}

	return points
}
