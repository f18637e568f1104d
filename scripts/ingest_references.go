//go:build ignore

// Command ingest_references loads pricing rate-card PDFs into Qdrant for
// prompt grounding.
//
//	go run scripts/ingest_references.go ./reference_docs/*.pdf
package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"igvalue/ig-value-estimator/internal/config"
	"igvalue/ig-value-estimator/internal/logger"
	"igvalue/ig-value-estimator/internal/services"
)

const (
	chunkSize    = 1000
	chunkOverlap = 200
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Logging.Level, "")
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	paths := os.Args[1:]
	if len(paths) == 0 {
		paths, _ = filepath.Glob("./reference_docs/*.pdf")
	}
	if len(paths) == 0 {
		log.Fatal("No rate-card PDFs given and none found in ./reference_docs")
	}
	if cfg.Qdrant.URL == "" || cfg.AI.GeminiAPIKey == "" {
		log.Fatal("QDRANT_URL and GEMINI_API_KEY are required for ingestion")
	}

	gemini, err := services.NewGeminiService(cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel, log)
	if err != nil {
		log.Fatal("Failed to initialize Gemini", zap.Error(err))
	}

	store, err := services.NewReferenceStore(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, log)
	if err != nil {
		log.Fatal("Failed to initialize Qdrant", zap.Error(err))
	}

	ctx := context.Background()
	if err := store.InitCollection(ctx); err != nil {
		log.Fatal("Failed to initialize collection", zap.Error(err))
	}

	parser := services.NewRateCardParser()
	chunker := services.NewTextChunker()

	successCount := 0
	failCount := 0

	for _, path := range paths {
		source := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		docLog := log.With(zap.String("source", source), zap.String("path", path))

		doc, err := parser.Parse(path)
		if err != nil {
			docLog.Error("Failed to extract text", zap.Error(err))
			failCount++
			continue
		}
		text := doc.Text()
		docLog.Info("Extracted text",
			zap.Int("pages", doc.PageCount),
			zap.Int("skipped", doc.Skipped),
			zap.Int("chars", len(text)),
		)

		// Re-ingesting a shorter version must not leave stale tail chunks.
		if err := store.DeleteSource(ctx, source); err != nil {
			docLog.Warn("Failed to clear previous chunks", zap.Error(err))
		}

		chunks := chunker.ChunkText(text, chunkSize, chunkOverlap)
		stored := 0
		for i, chunkText := range chunks {
			embedding, err := gemini.GenerateEmbedding(ctx, chunkText)
			if err != nil {
				docLog.Warn("Failed to generate embedding", zap.Int("chunk", i), zap.Error(err))
				continue
			}

			chunk := services.ReferenceChunk{
				Source: source,
				Kind:   services.ReferenceKindRateCard,
				Index:  i,
				Text:   chunkText,
			}
			if err := store.UpsertChunk(ctx, chunk, embedding); err != nil {
				docLog.Warn("Failed to store chunk", zap.Int("chunk", i), zap.Error(err))
				continue
			}
			stored++
		}

		docLog.Info("Ingested document", zap.Int("chunks", len(chunks)), zap.Int("stored", stored))
		if stored == 0 {
			failCount++
			continue
		}
		successCount++
	}

	log.Info("Ingestion finished", zap.Int("successful", successCount), zap.Int("failed", failCount))
	if failCount > 0 {
		os.Exit(1)
	}
}
