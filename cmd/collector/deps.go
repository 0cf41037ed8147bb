package main

import (
	"context"
	"fmt"
	"log"

	"github.com/brokerops/statement-collector/internal/admin"
	"github.com/brokerops/statement-collector/internal/browser"
	"github.com/brokerops/statement-collector/internal/config"
	"github.com/brokerops/statement-collector/internal/db"
	"github.com/brokerops/statement-collector/internal/llm"
	"github.com/brokerops/statement-collector/internal/observability"
	"github.com/brokerops/statement-collector/internal/orchestrator"
	"github.com/brokerops/statement-collector/internal/statement"
	"github.com/brokerops/statement-collector/internal/storage"
	"github.com/brokerops/statement-collector/internal/workflow"
	"github.com/brokerops/statement-collector/internal/workflow/carriers"
)

// runtime holds everything a command needs to execute jobs.
type runtime struct {
	orchestrator *orchestrator.Orchestrator
	store        *db.Store // nil when DATABASE_URL is unset
	llmClient    llm.Client
}

// buildRuntime wires the collector from configuration. The caller owns
// shutdown via close.
func buildRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	llmClient, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	provider := browser.NewChromeProvider(llmClient, browser.Config{
		Headless: cfg.Headless,
		Verbose:  cfg.Verbose,
	})

	uploader, err := storage.NewCloudinary(cfg.CloudinaryURL)
	if err != nil {
		llmClient.Close()
		return nil, fmt.Errorf("failed to create uploader: %w", err)
	}

	sink := observability.NewLogSink()
	dispatcher := workflow.NewDispatcher(provider, carriers.Registry(), sink)
	pipeline := statement.NewPipeline(uploader, &statement.HTTPFetcher{}, 0)
	adminClient := admin.NewClient(cfg.AdminAPIURL, cfg.AdminAPIKey)

	// Job history is optional; the collector runs without a database.
	var store *db.Store
	if cfg.DatabaseURL != "" {
		store, err = db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Printf("Warning: job history disabled: %v", err)
			store = nil
		}
	}

	var history orchestrator.History
	if store != nil {
		history = store
	}

	return &runtime{
		orchestrator: orchestrator.New(dispatcher, pipeline, adminClient, history, sink, cfg.JobTimeout),
		store:        store,
		llmClient:    llmClient,
	}, nil
}

// close releases runtime resources.
func (r *runtime) close() {
	if r.llmClient != nil {
		if err := r.llmClient.Close(); err != nil {
			log.Printf("Error closing LLM client: %v", err)
		}
	}
	if r.store != nil {
		r.store.Close()
	}
}
