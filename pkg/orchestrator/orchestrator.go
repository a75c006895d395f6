package orchestrator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/xhad/brief/internal/models"
	"github.com/xhad/brief/internal/types"
	"github.com/xhad/brief/pkg/llm"
	"golang.org/x/time/rate"
)

type OrchestratorConfig struct {
	Workers      int
	RetryCount   int
	RetryBackoff time.Duration
	RateLimit    float64 // calls per second against the local server
	Questions    int     // total FAQ questions requested for the document
	OnProgress   func(chunkIndex int, status models.Status)
}

// Orchestrator fans chunks out to the generation client and collects one
// result per chunk in original order.
type Orchestrator struct {
	config  OrchestratorConfig
	client  types.GenerationClient
	limiter *rate.Limiter
}

func NewWithConfig(client types.GenerationClient, config OrchestratorConfig) *Orchestrator {
	if config.Workers == 0 {
		// Serialized by default; a single local inference server rarely
		// benefits from concurrent generations.
		config.Workers = 1
	}
	if config.RetryCount == 0 {
		config.RetryCount = 2
	}
	if config.RetryBackoff == 0 {
		config.RetryBackoff = 500 * time.Millisecond
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2
	}
	if config.Questions == 0 {
		config.Questions = 5
	}

	return &Orchestrator{
		config:  config,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

// Process issues one model call per chunk with bounded parallelism.
// Every chunk gets a result regardless of sibling failures; the indexed
// slice is written once per chunk index, so no locking is needed.
func (o *Orchestrator) Process(ctx context.Context, chunks []models.Chunk, mode models.Mode) []models.InferenceResult {
	results := make([]models.InferenceResult, len(chunks))
	if len(chunks) == 0 {
		return results
	}

	perChunk := llm.QuestionsPerChunk(o.config.Questions, len(chunks))

	sem := make(chan struct{}, o.config.Workers)
	var wg sync.WaitGroup

	for _, chunk := range chunks {
		wg.Add(1)
		sem <- struct{}{}
		go func(chunk models.Chunk) {
			defer wg.Done()
			defer func() { <-sem }()

			results[chunk.Index] = o.processChunk(ctx, chunk, mode, perChunk)
			if o.config.OnProgress != nil {
				o.config.OnProgress(chunk.Index, results[chunk.Index].Status)
			}
		}(chunk)
	}

	wg.Wait()
	return results
}

func (o *Orchestrator) processChunk(ctx context.Context, chunk models.Chunk, mode models.Mode, questions int) models.InferenceResult {
	prompt := llm.BuildPrompt(chunk, mode, questions)

	var lastErr error
	for attempt := 0; attempt <= o.config.RetryCount; attempt++ {
		if attempt > 0 {
			if err := o.sleep(ctx, o.config.RetryBackoff<<(attempt-1)); err != nil {
				lastErr = err
				break
			}
		}

		if err := o.limiter.Wait(ctx); err != nil {
			lastErr = err
			break
		}

		text, err := o.client.Generate(ctx, prompt)
		if err == nil {
			return models.InferenceResult{
				ChunkIndex: chunk.Index,
				Text:       strings.TrimSpace(text),
				Status:     models.StatusOK,
			}
		}

		// A timeout already spent its full budget on a possibly valid
		// generation; retrying would double the wait for nothing.
		if llm.IsTimeout(err) {
			return models.InferenceResult{
				ChunkIndex: chunk.Index,
				Status:     models.StatusTimeout,
				Err:        err,
			}
		}

		lastErr = err
		if !llm.IsNetwork(err) {
			break
		}
	}

	return models.InferenceResult{
		ChunkIndex: chunk.Index,
		Status:     models.StatusError,
		Err:        lastErr,
	}
}

func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
