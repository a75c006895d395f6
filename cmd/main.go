package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/xhad/brief/internal/models"
	"github.com/xhad/brief/pkg/aggregator"
	"github.com/xhad/brief/pkg/chunker"
	cfgPkg "github.com/xhad/brief/pkg/config"
	"github.com/xhad/brief/pkg/fetch"
	"github.com/xhad/brief/pkg/llm"
	"github.com/xhad/brief/pkg/orchestrator"
	"github.com/xhad/brief/server"
)

type Config struct {
	BaseURL             string
	Model               string
	Mode                string
	Questions           int
	ChunkChars          int
	ChunkThreshold      int
	Workers             int
	TimeoutSeconds      int
	RetryCount          int
	RetryBackoffMS      int
	RateLimit           float64
	MaxTokens           int
	Temperature         float64
	MaxFAQChars         int
	FetchRateLimit      float64
	FetchTimeoutSeconds int
	InputFile           string
	URL                 string
	Output              string
	Serve               bool
	Port                string
}

func main() {
	config, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	if err := run(config); err != nil {
		log.Fatal(err)
	}
}

func parseFlags(args []string) (Config, error) {
	var config Config
	var configPath string

	fs := flag.NewFlagSet("brief", flag.ExitOnError)
	fs.StringVar(&configPath, "config", "", "Path to config file")
	fs.StringVar(&config.BaseURL, "ollama-url", os.Getenv("OLLAMA_BASE_URL"), "Ollama server URL")
	fs.StringVar(&config.Model, "model", "", "Model to use (defaults to first available)")
	fs.StringVar(&config.Mode, "mode", "medium", "Output mode: short, medium, detailed or faq")
	fs.IntVar(&config.Questions, "questions", 5, "Number of FAQ questions (faq mode)")
	fs.IntVar(&config.ChunkChars, "chunk-chars", 2500, "Maximum characters per chunk")
	fs.IntVar(&config.Workers, "workers", 1, "Concurrent model calls")
	fs.IntVar(&config.TimeoutSeconds, "timeout", 1000, "Per-call timeout in seconds")
	fs.StringVar(&config.InputFile, "f", "", "Read input text from file")
	fs.StringVar(&config.URL, "url", "", "Fetch input text from a web page")
	fs.StringVar(&config.Output, "o", "", "Write the result to a file")
	fs.BoolVar(&config.Serve, "serve", false, "Run the HTTP/WebSocket server instead of one-shot processing")
	fs.StringVar(&config.Port, "port", "", "Server port (with -serve)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg, err := cfgPkg.LoadConfig(configPath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to load config: %v", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config: %v", e)
		}
		return Config{}, fmt.Errorf("invalid configuration (%d problem(s))", len(errs))
	}

	// Flags that were given win; the config file fills everything else.
	if config.BaseURL == "" {
		config.BaseURL = cfg.LLM.BaseURL
	}
	if config.Model == "" {
		config.Model = cfg.LLM.Model
	}
	config.MaxTokens = cfg.LLM.MaxTokens
	config.Temperature = cfg.LLM.Temperature
	if !set["timeout"] {
		config.TimeoutSeconds = cfg.LLM.TimeoutSeconds
	}
	if !set["chunk-chars"] {
		config.ChunkChars = cfg.Chunker.MaxChunkChars
	}
	config.ChunkThreshold = cfg.Chunker.ChunkThreshold
	if !set["workers"] {
		config.Workers = cfg.Orchestrator.Workers
	}
	config.RetryCount = cfg.Orchestrator.RetryCount
	config.RetryBackoffMS = cfg.Orchestrator.RetryBackoffMS
	config.RateLimit = cfg.Orchestrator.RateLimit
	if !set["questions"] {
		config.Questions = cfg.FAQ.Questions
	}
	config.MaxFAQChars = cfg.FAQ.MaxChars
	config.FetchRateLimit = cfg.Fetch.RateLimit
	config.FetchTimeoutSeconds = cfg.Fetch.TimeoutSeconds
	if config.Port == "" {
		config.Port = cfg.Server.Port
	}

	return config, nil
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("chunks"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func run(config Config) error {
	if config.Serve {
		srv, err := server.NewServer(server.Config{
			BaseURL:        config.BaseURL,
			Model:          config.Model,
			MaxTokens:      config.MaxTokens,
			Temperature:    config.Temperature,
			TimeoutSeconds: config.TimeoutSeconds,
			ChunkChars:     config.ChunkChars,
			ChunkThreshold: config.ChunkThreshold,
			Workers:        config.Workers,
			RetryCount:     config.RetryCount,
			RetryBackoffMS: config.RetryBackoffMS,
			RateLimit:      config.RateLimit,
			Questions:      config.Questions,
			MaxFAQChars:    config.MaxFAQChars,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize server: %v", err)
		}
		return srv.ListenAndServe(config.Port)
	}

	mode := models.Mode(config.Mode)
	if !mode.Valid() {
		return fmt.Errorf("unknown mode %q (want short, medium, detailed or faq)", config.Mode)
	}

	client, err := llm.NewWithConfig(llm.ClientConfig{
		Model:       config.Model,
		MaxTokens:   config.MaxTokens,
		Temperature: config.Temperature,
		BaseURL:     config.BaseURL,
		Timeout:     time.Duration(config.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize model client: %v", err)
	}

	ctx := context.Background()

	// Preflight: make sure the model server is up before reading input
	available, err := client.ListModels(ctx)
	if err != nil {
		color.Red("Model server is not running at %s", orDefault(config.BaseURL, "http://localhost:11434"))
		fmt.Println("\nStart the model server and try again, e.g.:")
		fmt.Println("  ollama serve")
		return fmt.Errorf("model server unreachable: %v", err)
	}
	if config.Model == "" && len(available) > 0 {
		config.Model = available[0]
		client, err = llm.NewWithConfig(llm.ClientConfig{
			Model:       config.Model,
			MaxTokens:   config.MaxTokens,
			Temperature: config.Temperature,
			BaseURL:     config.BaseURL,
			Timeout:     time.Duration(config.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize model client: %v", err)
		}
	}
	color.Green("✓ Model server online (%d models, using %s)", len(available), config.Model)

	text, err := readInput(ctx, config)
	if err != nil {
		return err
	}
	printStats(text)

	if strings.TrimSpace(text) == "" {
		color.Yellow("Nothing to do: input is empty")
		return nil
	}

	// Small inputs skip chunking and go to the model in one call
	maxChars := config.ChunkChars
	if threshold := config.ChunkThreshold; threshold > 0 && len(text) <= threshold {
		maxChars = len(text)
	}

	ch := chunker.NewWithConfig(chunker.ChunkerConfig{
		MaxChunkChars: maxChars,
		OnHardSplit: func(offset int) {
			color.Yellow("⚠ oversized sentence near offset %d was hard-split; summary quality may degrade", offset)
		},
	})
	chunks, err := ch.Split(models.Document{Text: text, Mode: mode})
	if err != nil {
		return fmt.Errorf("failed to chunk input: %v", err)
	}
	if len(chunks) == 0 {
		color.Yellow("Nothing to do: input is empty")
		return nil
	}
	color.Blue("\nProcessing %d chunk(s) with %s", len(chunks), config.Model)

	bar := getProgressBar(len(chunks), " Generating...")
	orch := orchestrator.NewWithConfig(client, orchestrator.OrchestratorConfig{
		Workers:      config.Workers,
		RetryCount:   config.RetryCount,
		RetryBackoff: time.Duration(config.RetryBackoffMS) * time.Millisecond,
		RateLimit:    config.RateLimit,
		Questions:    config.Questions,
		OnProgress: func(index int, status models.Status) {
			bar.Add(1)
		},
	})
	results := orch.Process(ctx, chunks, mode)
	bar.Finish()

	agg := aggregator.NewWithConfig(client, aggregator.AggregatorConfig{MaxFAQChars: config.MaxFAQChars})
	output, err := agg.Aggregate(ctx, results, mode)
	if err != nil {
		return fmt.Errorf("no output produced: %v", err)
	}

	if output.Partial {
		color.Yellow("\n⚠ Partial result: %d of %d sections failed", len(output.Omitted), len(chunks))
	}

	rendered := render(output, mode)
	fmt.Println()
	fmt.Println(rendered)

	if config.Output != "" {
		if err := os.WriteFile(config.Output, []byte(rendered+"\n"), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %v", err)
		}
		color.Green("✓ Saved to %s", config.Output)
	}

	return nil
}

func readInput(ctx context.Context, config Config) (string, error) {
	switch {
	case config.URL != "":
		spinner := getSpinner(" Fetching page...")
		f := fetch.NewWithConfig(fetch.FetcherConfig{
			RateLimit: config.FetchRateLimit,
			Timeout:   time.Duration(config.FetchTimeoutSeconds) * time.Second,
		})
		text, err := f.FetchText(ctx, config.URL)
		spinner.Finish()
		if err != nil {
			return "", fmt.Errorf("failed to fetch %s: %v", config.URL, err)
		}
		return text, nil
	case config.InputFile != "":
		data, err := os.ReadFile(config.InputFile)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %v", err)
		}
		return string(data), nil
	default:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %v", err)
		}
		return string(data), nil
	}
}

func printStats(text string) {
	chars := len(text)
	words := len(strings.Fields(text))

	hint := "short input, fast processing"
	switch {
	case chars > 8000:
		hint = "very long input, this may take several minutes"
	case chars > 5000:
		hint = "long input, will be chunked"
	case chars > 3000:
		hint = "medium input"
	}

	fmt.Printf("Input: %d characters, %d words (%s)\n", chars, words, hint)
}

func render(output models.FinalOutput, mode models.Mode) string {
	if mode != models.ModeFAQ {
		return output.Summary
	}

	var b strings.Builder
	for i, item := range output.FAQItems {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("Q: ")
		b.WriteString(item.Question)
		b.WriteString("\nA: ")
		b.WriteString(item.Answer)
	}
	for _, index := range output.Omitted {
		b.WriteString(fmt.Sprintf("\n\n[section %d omitted]", index+1))
	}
	return b.String()
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
