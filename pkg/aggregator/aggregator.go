package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/xhad/brief/internal/models"
	"github.com/xhad/brief/internal/types"
	"github.com/xhad/brief/pkg/llm"
)

// ErrNoOutput is returned when no chunk produced anything usable.
var ErrNoOutput = errors.New("no output produced")

// targetChars approximates the desired final summary length per mode.
var targetChars = map[models.Mode]int{
	models.ModeSummaryShort:    400,
	models.ModeSummaryMedium:   1200,
	models.ModeSummaryDetailed: 3000,
}

// recombineFactor sets how far past the target band the joined chunk
// summaries may grow before a second summarization pass runs over them.
const recombineFactor = 4

type AggregatorConfig struct {
	MaxFAQChars int
}

// Aggregator merges per-chunk model outputs into one FinalOutput. The
// client is only used for the hierarchical re-summarization pass and may
// be nil when that pass is not wanted.
type Aggregator struct {
	config AggregatorConfig
	client types.GenerationClient
}

func NewWithConfig(client types.GenerationClient, config AggregatorConfig) Aggregator {
	if config.MaxFAQChars == 0 {
		config.MaxFAQChars = 10000
	}

	return Aggregator{
		config: config,
		client: client,
	}
}

// Aggregate combines results in chunk-index order. Partial is set when
// any chunk failed; if every chunk failed the error is ErrNoOutput.
func (a *Aggregator) Aggregate(ctx context.Context, results []models.InferenceResult, mode models.Mode) (models.FinalOutput, error) {
	if len(results) == 0 {
		return models.FinalOutput{}, fmt.Errorf("empty result set: %w", ErrNoOutput)
	}

	var omitted []int
	succeeded := 0
	for _, r := range results {
		if r.Status == models.StatusOK {
			succeeded++
		} else {
			omitted = append(omitted, r.ChunkIndex)
		}
	}

	if succeeded == 0 {
		return models.FinalOutput{Partial: true, Omitted: omitted},
			fmt.Errorf("all %d chunks failed: %w", len(results), ErrNoOutput)
	}

	if mode == models.ModeFAQ {
		return a.aggregateFAQ(results, omitted), nil
	}
	return a.aggregateSummary(ctx, results, mode, omitted), nil
}

func (a *Aggregator) aggregateSummary(ctx context.Context, results []models.InferenceResult, mode models.Mode, omitted []int) models.FinalOutput {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		if r.Status == models.StatusOK {
			parts = append(parts, r.Text)
			continue
		}
		parts = append(parts, fmt.Sprintf("[section %d omitted: %s]", r.ChunkIndex+1, r.Status))
	}

	summary := strings.Join(parts, "\n\n")

	// Hierarchical pass: many chunk summaries can still add up to more
	// text than the caller asked for, so summarize the concatenation
	// once more. Only worth it when several chunks contributed.
	if len(results) > 1 && a.client != nil && len(summary) > recombineFactor*targetChars[mode] {
		condensed, err := a.client.Generate(ctx, llm.SummaryPrompt(summary, mode))
		if err != nil {
			log.Printf("aggregator: recombine pass failed, keeping joined summaries: %v", err)
		} else if s := strings.TrimSpace(condensed); s != "" {
			summary = s
		}
	}

	return models.FinalOutput{
		Summary: summary,
		Partial: len(omitted) > 0,
		Omitted: omitted,
	}
}

func (a *Aggregator) aggregateFAQ(results []models.InferenceResult, omitted []int) models.FinalOutput {
	var items []models.FAQItem
	seen := make(map[string]bool)
	total := 0

	for _, r := range results {
		if r.Status != models.StatusOK {
			continue
		}
		for _, item := range ParseFAQ(r.Text) {
			key := normalizeQuestion(item.Question)
			if key == "" || seen[key] {
				continue
			}

			total += len(item.Question) + len(item.Answer)
			if total > a.config.MaxFAQChars {
				log.Printf("aggregator: FAQ output capped at %d chars", a.config.MaxFAQChars)
				return models.FinalOutput{
					FAQItems: items,
					Partial:  len(omitted) > 0,
					Omitted:  omitted,
				}
			}

			seen[key] = true
			items = append(items, item)
		}
	}

	return models.FinalOutput{
		FAQItems: items,
		Partial:  len(omitted) > 0,
		Omitted:  omitted,
	}
}

// normalizeQuestion builds the dedup key: case-folded, trimmed, trailing
// punctuation stripped. The first occurrence keeps its phrasing.
func normalizeQuestion(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	return strings.TrimRight(q, ".?! ")
}
