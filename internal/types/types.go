package types

import (
	"context"

	"github.com/xhad/brief/internal/models"
)

// Core interfaces
type GenerationClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Chunker interface {
	Split(doc models.Document) ([]models.Chunk, error)
}

type Orchestrator interface {
	Process(ctx context.Context, chunks []models.Chunk, mode models.Mode) []models.InferenceResult
}

type Aggregator interface {
	Aggregate(ctx context.Context, results []models.InferenceResult, mode models.Mode) (models.FinalOutput, error)
}

type TextFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}
