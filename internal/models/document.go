package models

// Mode selects what the pipeline asks the model to produce.
type Mode string

const (
	ModeSummaryShort    Mode = "short"
	ModeSummaryMedium   Mode = "medium"
	ModeSummaryDetailed Mode = "detailed"
	ModeFAQ             Mode = "faq"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeSummaryShort, ModeSummaryMedium, ModeSummaryDetailed, ModeFAQ:
		return true
	}
	return false
}

func (m Mode) IsSummary() bool {
	return m.Valid() && m != ModeFAQ
}

// Status reports the outcome of a single chunk's model call.
type Status string

const (
	StatusOK      Status = "ok"
	StatusTimeout Status = "timeout"
	StatusError   Status = "error"
)

type Document struct {
	Text string
	Mode Mode
}

// Chunk is a contiguous slice of a Document. Start and End are byte
// offsets into the original text, so Text == document[Start:End].
type Chunk struct {
	Index int
	Text  string
	Start int
	End   int
}

type InferenceResult struct {
	ChunkIndex int
	Text       string
	Status     Status
	Err        error
}

type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// FinalOutput is what the aggregator hands back to the caller. Omitted
// lists the chunk indexes whose calls failed or timed out.
type FinalOutput struct {
	Summary  string    `json:"summary,omitempty"`
	FAQItems []FAQItem `json:"faq_items,omitempty"`
	Partial  bool      `json:"partial"`
	Omitted  []int     `json:"omitted,omitempty"`
}
