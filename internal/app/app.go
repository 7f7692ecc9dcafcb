package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/config"
	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/core"
	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/core/answer"
	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/core/cache"
	db "github.com/Jaks-Tech/thexposiguide-app-sub000/internal/core/database"
	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/core/extract"
	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/core/extract/ocrpdf"
	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/core/ingest"
	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/core/llm"
	objectclient "github.com/Jaks-Tech/thexposiguide-app-sub000/internal/core/object-client"
	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/core/ocr"
)

// App owns the long-lived collaborators and tears them down in Close.
type App struct {
	DBClient     core.DbClient
	ObjectClient core.ObjectClient
	Embedder     *llm.GeminiEmbedder
	LLM          *llm.GeminiLLM
	Answers      cache.Cache
	Server       *Server
	logger       *slog.Logger
}

func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	logger.Info("database initialized and ready")

	objClient, err := objectclient.NewS3Client(appCtx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("object storage: %w", err)
	}

	embedder, err := llm.NewGeminiEmbedder(appCtx, cfg.AIAPIKey, cfg.EmbedModel)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	llmProvider, err := llm.NewGeminiLLM(appCtx, cfg.AIAPIKey, cfg.GenModel)
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}

	// OCR is local tesseract; the pdf path first tries the digital text
	// layer and only rasterizes pages when that comes up empty.
	ocrClient := ocr.NewTesseractClient()
	pdfOCR := ocrpdf.NewEngine(ocrClient, cfg.OCRLanguage, cfg.OCRScale)

	strategies := map[extract.Format]extract.Extractor{
		extract.FormatPlaintext: extract.NewPlainTextExtractor(),
		extract.FormatMarkdown:  extract.NewPlainTextExtractor(),
		extract.FormatOffice:    extract.NewDocconvExtractor(),
		extract.FormatImage:     extract.NewImageExtractor(ocrClient, cfg.OCRLanguage),
		extract.FormatPDF:       extract.NewPDFExtractor(extract.NewDigitalPDFReader(), pdfOCR, cfg.MinViableTextLen),
	}
	cascade := extract.NewCascade(strategies, cfg.MinViableTextLen)

	indexer := ingest.NewIndexer(dbClient, embedder, ingest.IndexerConfig{
		ChunkSize:   cfg.ChunkSize,
		BatchSize:   cfg.EmbedBatchSize,
		Concurrency: cfg.EmbedConcurrency,
	})
	preparer := ingest.NewPreparer(dbClient, objClient, cascade, indexer, cfg.IngestTimeout)
	tasks := ingest.NewTaskRunner(preparer)
	retriever := ingest.NewRetriever(dbClient, embedder)
	synthesizer := answer.NewSynthesizer(llmProvider, cfg.FullAnswerCharCap)

	var answers cache.Cache
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisCache(appCtx, cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		answers = rc
		logger.Info("answer cache backed by redis", "addr", cfg.RedisAddr)
	} else {
		answers = cache.NewMemoryCache()
		logger.Info("answer cache is in-process")
	}

	server := NewServer(cfg, dbClient, objClient, preparer, tasks, retriever, synthesizer, answers, logger)

	return &App{
		DBClient:     dbClient,
		ObjectClient: objClient,
		Embedder:     embedder,
		LLM:          llmProvider,
		Answers:      answers,
		Server:       server,
		logger:       logger,
	}, nil
}

func (a *App) Close() {
	if a.Embedder != nil {
		_ = a.Embedder.Close()
	}
	if a.LLM != nil {
		_ = a.LLM.Close()
	}
	if rc, ok := a.Answers.(*cache.RedisCache); ok {
		_ = rc.Close()
	}
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
