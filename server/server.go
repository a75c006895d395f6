package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/xhad/brief/internal/models"
	"github.com/xhad/brief/internal/types"
	"github.com/xhad/brief/pkg/aggregator"
	"github.com/xhad/brief/pkg/chunker"
	"github.com/xhad/brief/pkg/llm"
	"github.com/xhad/brief/pkg/orchestrator"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

// Message is the WebSocket frame in both directions.
type Message struct {
	Type    string      `json:"type"`
	Content string      `json:"content"`
	Data    interface{} `json:"data,omitempty"`
}

type Config struct {
	BaseURL        string
	Model          string
	MaxTokens      int
	Temperature    float64
	TimeoutSeconds int
	ChunkChars     int
	ChunkThreshold int
	Workers        int
	RetryCount     int
	RetryBackoffMS int
	RateLimit      float64
	Questions      int
	MaxFAQChars    int
}

// Server exposes the summarization pipeline over HTTP and WebSocket.
type Server struct {
	config Config
	client types.GenerationClient
	models func(ctx context.Context) ([]string, error)
}

func NewServer(config Config) (*Server, error) {
	client, err := llm.NewWithConfig(llm.ClientConfig{
		Model:       config.Model,
		MaxTokens:   config.MaxTokens,
		Temperature: config.Temperature,
		BaseURL:     config.BaseURL,
		Timeout:     time.Duration(config.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize model client: %v", err)
	}

	s := newServerWithClient(client, config)
	s.models = client.ListModels
	return s, nil
}

// newServerWithClient wires the pipeline around an injected client;
// tests use it to substitute a mock.
func newServerWithClient(client types.GenerationClient, config Config) *Server {
	if config.ChunkChars == 0 {
		config.ChunkChars = 2500
	}
	if config.ChunkThreshold == 0 {
		config.ChunkThreshold = 3000
	}
	if config.Questions == 0 {
		config.Questions = 5
	}

	return &Server{
		config: config,
		client: client,
	}
}

type processRequest struct {
	Text      string `json:"text"`
	Mode      string `json:"mode"`
	Questions int    `json:"questions,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// process runs the full chunk -> generate -> aggregate pipeline for one
// request. Each request is independent; there is no cross-request state.
func (s *Server) process(ctx context.Context, text string, mode models.Mode, questions int, onProgress func(index int, status models.Status)) (models.FinalOutput, error) {
	maxChars := s.config.ChunkChars
	if len(text) <= s.config.ChunkThreshold {
		maxChars = len(text)
	}

	ch := chunker.NewWithConfig(chunker.ChunkerConfig{MaxChunkChars: maxChars})
	chunks, err := ch.Split(models.Document{Text: text, Mode: mode})
	if err != nil {
		return models.FinalOutput{}, err
	}
	if len(chunks) == 0 {
		return models.FinalOutput{}, errors.New("input is empty")
	}

	if questions == 0 {
		questions = s.config.Questions
	}

	orch := orchestrator.NewWithConfig(s.client, orchestrator.OrchestratorConfig{
		Workers:      s.config.Workers,
		RetryCount:   s.config.RetryCount,
		RetryBackoff: time.Duration(s.config.RetryBackoffMS) * time.Millisecond,
		RateLimit:    s.config.RateLimit,
		Questions:    questions,
		OnProgress:   onProgress,
	})
	results := orch.Process(ctx, chunks, mode)

	agg := aggregator.NewWithConfig(s.client, aggregator.AggregatorConfig{MaxFAQChars: s.config.MaxFAQChars})
	return agg.Aggregate(ctx, results, mode)
}

func (s *Server) handleProcess(defaultMode models.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "POST required"})
			return
		}

		var req processRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
			return
		}

		mode := defaultMode
		if req.Mode != "" {
			mode = models.Mode(req.Mode)
		}
		if !mode.Valid() {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("unknown mode %q", req.Mode)})
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "text is required"})
			return
		}

		output, err := s.process(r.Context(), req.Text, mode, req.Questions, nil)
		if err != nil {
			if errors.Is(err, aggregator.ErrNoOutput) {
				writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
				return
			}
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, output)
	}
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	if s.models == nil {
		writeJSON(w, http.StatusOK, map[string][]string{"models": {}})
		return
	}

	names, err := s.models(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: fmt.Sprintf("model server unreachable: %v", err)})
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"models": names})
}

// wsConn serializes writes; progress callbacks may fire from worker
// goroutines and gorilla connections allow one writer at a time.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) send(msgType, content string, data interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := Message{
		Type:    msgType,
		Content: content,
		Data:    data,
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	raw, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer raw.Close()

	conn := &wsConn{conn: raw}

	for {
		_, message, err := raw.ReadMessage()
		if err != nil {
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Error unmarshaling message: %v", err)
			continue
		}

		s.handleMessage(r.Context(), conn, msg)
	}
}

func (s *Server) handleMessage(ctx context.Context, conn *wsConn, msg Message) {
	var mode models.Mode
	switch msg.Type {
	case "summarize":
		mode = models.ModeSummaryMedium
	case "faq":
		mode = models.ModeFAQ
	default:
		if m := models.Mode(msg.Type); m.Valid() {
			mode = m
		} else {
			conn.send("error", fmt.Sprintf("unknown request type %q", msg.Type), nil)
			return
		}
	}

	if strings.TrimSpace(msg.Content) == "" {
		conn.send("error", "text is required", nil)
		return
	}

	output, err := s.process(ctx, msg.Content, mode, 0, func(index int, status models.Status) {
		conn.send("progress", fmt.Sprintf("section %d: %s", index+1, status), nil)
	})
	if err != nil {
		conn.send("error", err.Error(), nil)
		return
	}

	conn.send("result", "", output)
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/summarize", s.handleProcess(models.ModeSummaryMedium))
	mux.HandleFunc("/api/faq", s.handleProcess(models.ModeFAQ))
	mux.HandleFunc("/api/models", s.handleModels)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

func (s *Server) ListenAndServe(port string) error {
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting server on port %s", port)
	return http.ListenAndServe(":"+port, s.routes())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
