package llm

import (
	"fmt"

	"github.com/xhad/brief/internal/models"
)

var lengthInstructions = map[models.Mode]string{
	models.ModeSummaryShort:    "in 2-3 sentences",
	models.ModeSummaryMedium:   "in 1 paragraph (4-6 sentences)",
	models.ModeSummaryDetailed: "in 2-3 paragraphs with key details",
}

// SummaryPrompt builds the summarization prompt for one piece of text.
func SummaryPrompt(text string, mode models.Mode) string {
	instruction, ok := lengthInstructions[mode]
	if !ok {
		instruction = lengthInstructions[models.ModeSummaryMedium]
	}

	return fmt.Sprintf(`Please provide a clear and concise summary of the following text %s:

Text: %s

Summary:`, instruction, text)
}

// FAQPrompt asks the model for n question/answer pairs in a parseable
// Q:/A: layout.
func FAQPrompt(text string, n int) string {
	return fmt.Sprintf(`Based on the following text section, generate %d frequently asked questions (FAQ) with their answers. Format each FAQ as:

Q: [Question]
A: [Answer]

Text: %s

FAQ:`, n, text)
}

// BuildPrompt maps a chunk and mode to the prompt for its model call.
// questions only applies in FAQ mode.
func BuildPrompt(chunk models.Chunk, mode models.Mode, questions int) string {
	if mode == models.ModeFAQ {
		return FAQPrompt(chunk.Text, questions)
	}
	return SummaryPrompt(chunk.Text, mode)
}

// QuestionsPerChunk spreads the requested FAQ count over the chunks,
// never asking a chunk for fewer than two.
func QuestionsPerChunk(requested, chunks int) int {
	if chunks <= 0 {
		return requested
	}
	n := requested / chunks
	if n < 2 {
		n = 2
	}
	return n
}
