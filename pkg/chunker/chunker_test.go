package chunker_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/brief/internal/models"
	"github.com/xhad/brief/pkg/chunker"
)

// normalize drops all whitespace: chunk boundaries may fall inside a
// word when a hard split was needed, so only the characters count.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func TestSplit_SmallDocumentSingleChunk(t *testing.T) {
	c := chunker.NewWithConfig(chunker.ChunkerConfig{MaxChunkChars: 1000})

	text := "This is a single short sentence of fifty characters."
	chunks, err := c.Split(models.Document{Text: text})

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, len(text), chunks[0].End)
}

func TestSplit_EmptyDocument(t *testing.T) {
	c := chunker.NewWithConfig(chunker.ChunkerConfig{MaxChunkChars: 100})

	for _, text := range []string{"", "   ", "\n\n\t\n"} {
		chunks, err := c.Split(models.Document{Text: text})
		require.NoError(t, err)
		assert.Empty(t, chunks)
	}
}

func TestSplit_ParagraphBoundaries(t *testing.T) {
	p1 := strings.TrimSpace(strings.Repeat("alpha ", 70))
	p2 := strings.TrimSpace(strings.Repeat("bravo ", 70))
	p3 := strings.TrimSpace(strings.Repeat("delta ", 70))
	text := p1 + "\n\n" + p2 + "\n\n" + p3

	c := chunker.NewWithConfig(chunker.ChunkerConfig{MaxChunkChars: 500})
	chunks, err := c.Split(models.Document{Text: text})

	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, p1, chunks[0].Text)
	assert.Equal(t, p2, chunks[1].Text)
	assert.Equal(t, p3, chunks[2].Text)
}

func TestSplit_PacksSmallParagraphs(t *testing.T) {
	text := "First paragraph here.\n\nSecond paragraph here.\n\n" +
		strings.TrimSpace(strings.Repeat("filler ", 7))

	c := chunker.NewWithConfig(chunker.ChunkerConfig{MaxChunkChars: 60})
	chunks, err := c.Split(models.Document{Text: text})

	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Contains(t, chunks[0].Text, "First paragraph")
	assert.Contains(t, chunks[0].Text, "Second paragraph")
	assert.Contains(t, chunks[1].Text, "filler")
}

func TestSplit_SentenceFallback(t *testing.T) {
	// One paragraph over the limit made of sentences under it
	text := "The first sentence is right here. The second one follows it. And a third closes out."

	c := chunker.NewWithConfig(chunker.ChunkerConfig{MaxChunkChars: 40})
	chunks, err := c.Split(models.Document{Text: text})

	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "The first sentence is right here.", chunks[0].Text)
	assert.Equal(t, "The second one follows it.", chunks[1].Text)
	assert.Equal(t, "And a third closes out.", chunks[2].Text)
}

func TestSplit_HardSplitOversizedSentence(t *testing.T) {
	var hardSplits int
	c := chunker.NewWithConfig(chunker.ChunkerConfig{
		MaxChunkChars: 100,
		OnHardSplit:   func(offset int) { hardSplits++ },
	})

	text := strings.Repeat("x", 250) // no sentence boundaries at all
	chunks, err := c.Split(models.Document{Text: text})

	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, 1, hardSplits)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Text), 100)
		assert.NotEmpty(t, chunk.Text)
	}
}

func TestSplit_HardSplitKeepsRunesIntact(t *testing.T) {
	// 60 two-byte runes; the 25-byte limit never lands on a rune boundary
	text := strings.Repeat("é", 60)

	c := chunker.NewWithConfig(chunker.ChunkerConfig{MaxChunkChars: 25})
	chunks, err := c.Split(models.Document{Text: text})

	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	var joined strings.Builder
	for _, chunk := range chunks {
		assert.True(t, utf8.ValidString(chunk.Text), "chunk %d cuts a rune in half", chunk.Index)
		assert.LessOrEqual(t, len(chunk.Text), 25)
		assert.Equal(t, text[chunk.Start:chunk.End], chunk.Text)
		joined.WriteString(chunk.Text)
	}
	assert.Equal(t, text, joined.String())
}

func TestSplit_OrderAndOffsets(t *testing.T) {
	text := "One sentence here. Another sentence there.\n\n" +
		"A new paragraph starts. It keeps going for a while longer. Then it stops.\n\n" +
		"The final paragraph is short."

	c := chunker.NewWithConfig(chunker.ChunkerConfig{MaxChunkChars: 50})
	chunks, err := c.Split(models.Document{Text: text})
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	prevEnd := 0
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		assert.NotEmpty(t, chunk.Text)
		assert.Equal(t, text[chunk.Start:chunk.End], chunk.Text)
		assert.GreaterOrEqual(t, chunk.Start, prevEnd)
		prevEnd = chunk.End
	}
}

func TestSplit_Reconstruction(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
	}{
		{
			name: "paragraphs",
			text: "First block of text.\n\nSecond block of text.\n\nThird block of text.",
			max:  25,
		},
		{
			name: "sentences",
			text: "Alpha is the first word. Bravo comes in second place. Charlie takes the third slot.",
			max:  30,
		},
		{
			name: "hard split",
			text: strings.Repeat("y", 120),
			max:  50,
		},
		{
			name: "mixed",
			text: "Short intro.\n\n" + strings.TrimSpace(strings.Repeat("lorem ipsum ", 20)) + "\n\nShort outro.",
			max:  80,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := chunker.NewWithConfig(chunker.ChunkerConfig{MaxChunkChars: tt.max})
			chunks, err := c.Split(models.Document{Text: tt.text})
			require.NoError(t, err)

			parts := make([]string, len(chunks))
			for i, chunk := range chunks {
				parts[i] = chunk.Text
			}
			assert.Equal(t, normalize(tt.text), normalize(strings.Join(parts, " ")))
		})
	}
}
