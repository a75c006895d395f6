package chunker

import (
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/xhad/brief/internal/models"
)

type ChunkerConfig struct {
	MaxChunkChars int
	// OnHardSplit is called when a single sentence exceeds the chunk
	// limit and has to be cut at a character boundary.
	OnHardSplit func(offset int)
}

type Chunker struct {
	config ChunkerConfig
}

func NewWithConfig(config ChunkerConfig) Chunker {
	if config.MaxChunkChars == 0 {
		config.MaxChunkChars = 2500
	}

	return Chunker{
		config: config,
	}
}

// span is a half-open byte range into the document text.
type span struct {
	start, end int
}

// Split cuts a document into ordered chunks no longer than MaxChunkChars.
// Paragraphs are packed greedily; a paragraph over the limit falls back to
// sentence boundaries, and a single oversized sentence is cut at the
// character limit. An empty document yields no chunks and no error.
func (c *Chunker) Split(doc models.Document) ([]models.Chunk, error) {
	if c.config.MaxChunkChars < 0 {
		return nil, fmt.Errorf("max chunk chars must be positive, got %d", c.config.MaxChunkChars)
	}

	text := doc.Text
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	if len(text) <= c.config.MaxChunkChars {
		return []models.Chunk{{Index: 0, Text: text, Start: 0, End: len(text)}}, nil
	}

	units := c.splitUnits(text)
	return c.pack(text, units), nil
}

// splitUnits produces packable spans: whole paragraphs where they fit,
// sentences or hard cuts where they do not.
func (c *Chunker) splitUnits(text string) []span {
	var units []span

	for _, p := range paragraphSpans(text) {
		if p.end-p.start <= c.config.MaxChunkChars {
			units = append(units, p)
			continue
		}

		for _, s := range sentenceSpans(text, p) {
			if s.end-s.start <= c.config.MaxChunkChars {
				units = append(units, s)
				continue
			}

			log.Printf("chunker: sentence at offset %d exceeds %d chars, hard splitting (quality degraded)",
				s.start, c.config.MaxChunkChars)
			if c.config.OnHardSplit != nil {
				c.config.OnHardSplit(s.start)
			}
			units = append(units, hardSplit(text, s, c.config.MaxChunkChars)...)
		}
	}

	return units
}

// pack greedily merges consecutive units while a chunk stays within the
// limit. Chunk length is measured from the first unit's start so the
// whitespace between units counts against the budget.
func (c *Chunker) pack(text string, units []span) []models.Chunk {
	var chunks []models.Chunk

	cur := units[0]
	for _, u := range units[1:] {
		if u.end-cur.start <= c.config.MaxChunkChars {
			cur.end = u.end
			continue
		}
		chunks = append(chunks, chunkAt(text, len(chunks), cur))
		cur = u
	}
	chunks = append(chunks, chunkAt(text, len(chunks), cur))

	return chunks
}

func chunkAt(text string, index int, s span) models.Chunk {
	return models.Chunk{
		Index: index,
		Text:  text[s.start:s.end],
		Start: s.start,
		End:   s.end,
	}
}

// paragraphSpans finds blank-line separated paragraphs, trimmed of
// surrounding whitespace.
func paragraphSpans(text string) []span {
	var spans []span

	start := -1
	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		if strings.TrimSpace(line) == "" {
			if start >= 0 {
				spans = appendTrimmed(spans, text, span{start, offset})
				start = -1
			}
		} else if start < 0 {
			start = offset
		}
		offset += len(line)
	}
	if start >= 0 {
		spans = appendTrimmed(spans, text, span{start, len(text)})
	}

	return spans
}

// sentenceSpans splits one paragraph at sentence-ending punctuation
// followed by whitespace.
func sentenceSpans(text string, p span) []span {
	var spans []span

	start := p.start
	for i := p.start; i < p.end; i++ {
		if !isSentenceEnd(text[i]) {
			continue
		}
		if i+1 < p.end && !isSpace(text[i+1]) {
			continue
		}
		spans = appendTrimmed(spans, text, span{start, i + 1})
		start = i + 1
	}
	if start < p.end {
		spans = appendTrimmed(spans, text, span{start, p.end})
	}

	return spans
}

// hardSplit is the last resort for a sentence longer than the limit. Cut
// points back up to the nearest rune start so no chunk ends mid-character.
func hardSplit(text string, s span, max int) []span {
	var spans []span
	start := s.start
	for start < s.end {
		end := start + max
		if end >= s.end {
			end = s.end
		} else {
			for end > start && !utf8.RuneStart(text[end]) {
				end--
			}
			if end == start {
				// nothing but continuation bytes; cut at the limit
				end = start + max
			}
		}
		spans = append(spans, span{start, end})
		start = end
	}
	return spans
}

// appendTrimmed shrinks the span past surrounding whitespace and drops it
// if nothing remains.
func appendTrimmed(spans []span, text string, s span) []span {
	for s.start < s.end && isSpace(text[s.start]) {
		s.start++
	}
	for s.end > s.start && isSpace(text[s.end-1]) {
		s.end--
	}
	if s.start == s.end {
		return spans
	}
	return append(spans, s)
}

func isSentenceEnd(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
