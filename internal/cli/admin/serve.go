package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloo-solutions/docvault/internal/api/handlers"
	"github.com/cloo-solutions/docvault/internal/config"
	"github.com/cloo-solutions/docvault/internal/database"
	"github.com/cloo-solutions/docvault/internal/jobs"
	"github.com/cloo-solutions/docvault/internal/loader"
	"github.com/cloo-solutions/docvault/internal/openai"
	"github.com/cloo-solutions/docvault/internal/repository"
	"github.com/cloo-solutions/docvault/internal/server"
	"github.com/cloo-solutions/docvault/internal/service"
	"github.com/cloo-solutions/docvault/internal/storage"
	"github.com/cloo-solutions/docvault/internal/telemetry"
	"github.com/cloo-solutions/docvault/internal/vectorstore"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the docvault API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.SentryDSN != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	if !cfg.HasOpenAI() {
		return fmt.Errorf("DOCVAULT_OPENAI_API_KEY is required: documents cannot be embedded without it")
	}

	registryPool, err := database.NewPool(ctx, cfg.DatabaseURL, database.PoolConfig{})
	if err != nil {
		return fmt.Errorf("failed to connect to registry database: %w", err)
	}
	defer registryPool.Close()
	log.Println("connected to registry database")

	// The chunk store gets its own pool so the two stores fail
	// independently even when they share an instance.
	vectorPool, err := database.NewPool(ctx, cfg.VectorURL(), database.PoolConfig{})
	if err != nil {
		return fmt.Errorf("failed to connect to vector database: %w", err)
	}
	defer vectorPool.Close()
	log.Println("connected to vector database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		if cfg.VectorURL() != cfg.DatabaseURL {
			if err := runMigrations(cfg.VectorURL()); err != nil {
				return fmt.Errorf("failed to run vector database migrations: %w", err)
			}
		}
	}

	documentRepo := repository.NewDocumentRepository(registryPool)
	reindexJobRepo := repository.NewReindexJobRepository(registryPool)
	chunkStore := vectorstore.NewPgVectorStore(vectorPool)

	var archive service.ArchiveStorageInterface
	if cfg.HasS3() {
		s3Config := storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		}
		s3Client, err := storage.NewS3Client(ctx, s3Config)
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		archive = s3Client
	} else {
		log.Println("no S3 configured: originals are not archived, reindexing disabled")
	}

	embedder := openai.NewClient(cfg.OpenAIAPIKey)

	var docLoader service.DocumentLoaderInterface
	if cfg.HasParser() {
		docLoader = loader.NewHTTPLoader(cfg.ParserURL)
		log.Printf("document parser at %s", cfg.ParserURL)
	} else {
		log.Println("no parser configured: only plain-text uploads accepted")
	}

	ingestSvc := service.NewIngestService(documentRepo, chunkStore, embedder, docLoader, archive)
	retrievalSvc := service.NewRetrievalService(chunkStore, embedder)
	docSvc := service.NewDocumentService(documentRepo, chunkStore, archive)
	reindexSvc := service.NewReindexService(documentRepo, chunkStore, archive, reindexJobRepo, ingestSvc)

	var reindexWorker *jobs.Worker
	if archive != nil {
		processor := jobs.NewReindexWorker(reindexJobRepo, reindexSvc)
		reindexWorker = jobs.NewWorker(processor, time.Duration(cfg.ReindexPollIntervalSeconds)*time.Second)
		go reindexWorker.Start(ctx)
		log.Println("reindex worker started")
	}

	routerCfg := server.RouterConfig{
		DocumentHandler: handlers.NewDocumentHandler(ingestSvc, docSvc, reindexSvc),
		RetrieveHandler: handlers.NewRetrieveHandler(retrievalSvc),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if reindexWorker != nil {
		reindexWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	// Create postgres driver instance
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Create migrate instance with file source
	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	// Run migrations
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	// Get migration version and status
	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
