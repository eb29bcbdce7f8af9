package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"kuma/internal/api"
	"kuma/internal/config"
	"kuma/internal/generation"
	"kuma/internal/grading"
	"kuma/internal/llm"
	"kuma/internal/logging"
	"kuma/internal/models"
	"kuma/internal/services"
	"kuma/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "kuma",
	Short: "Assessment, lesson plan and grading backend for teachers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate content once and print it as JSON",
}

var generateAssessmentCmd = &cobra.Command{
	Use:   "assessment",
	Short: "Generate a test or descriptor assessment",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, false)
	},
}

var generateLessonPlanCmd = &cobra.Command{
	Use:   "lesson-plan",
	Short: "Generate a lesson plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, true)
	},
}

func init() {
	for _, c := range []*cobra.Command{generateAssessmentCmd, generateLessonPlanCmd} {
		c.Flags().String("subject", "", "Subject name")
		c.Flags().String("grade", "", "Grade level, e.g. 5-сынып")
		c.Flags().String("topic", "", "Lesson topic")
		c.Flags().StringSlice("objective", nil, "Learning objective (repeatable)")
	}
	generateAssessmentCmd.Flags().String("type", string(models.ContentTest), "Assessment type: test or descriptor")
	generateAssessmentCmd.Flags().Int("count", generation.DefaultItemCount, "Number of test items")
	generateLessonPlanCmd.Flags().Int("duration", generation.DefaultDuration, "Lesson duration in minutes")

	generateCmd.AddCommand(generateAssessmentCmd)
	generateCmd.AddCommand(generateLessonPlanCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	cfg         *config.Config
	logger      *zap.Logger
	store       store.Store
	generator   *generation.Generator
	auth        *services.AuthService
	assessments *services.AssessmentService
	lessonPlans *services.LessonPlanService
	grading     *services.GradingService
	ingestion   *services.IngestionService
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if cfg.InsecureJWTSecret() {
		logger.Warn("JWT_SECRET is not set, tokens are signed with the default development secret")
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	provider, err := llm.NewProvider(ctx, llm.Config{
		Provider: cfg.LLMProvider,
		Gemini:   llm.GeminiConfig{APIKey: cfg.GeminiKey, Model: cfg.GeminiModel},
		OpenAI: llm.OpenAIConfig{
			APIKey:  cfg.OpenAIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIEndpoint,
		},
		Anthropic: llm.AnthropicConfig{APIKey: cfg.AnthropicKey, Model: cfg.AnthropicModel},
	}, st, logger)
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		logger.Warn("no language model configured, serving demo content", zap.String("provider", cfg.LLMProvider))
		provider = nil
	case err != nil:
		_ = st.Close(ctx)
		return nil, fmt.Errorf("init llm provider: %w", err)
	}

	gen := generation.NewGenerator(provider, cfg.LLMTimeout, logger)
	assessments := services.NewAssessmentService(st, gen, logger)
	gradingSvc := services.NewGradingService(st, assessments, grading.NewEngine(gen, logger), logger)
	documents := services.NewDocumentService(cfg.UploadDir, cfg.MaxUploadBytes, services.NewPDFService())

	return &app{
		cfg:         cfg,
		logger:      logger,
		store:       st,
		generator:   gen,
		auth:        services.NewAuthService(st, cfg.JWTSecret, cfg.JWTTTL, logger),
		assessments: assessments,
		lessonPlans: services.NewLessonPlanService(st, gen, logger),
		grading:     gradingSvc,
		ingestion:   services.NewIngestionService(documents, gradingSvc, logger),
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StorageDriver {
	case "sqlite":
		st, err := store.OpenSQLite(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		return st, nil
	case "mongo":
		st, err := store.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.store.Close(ctx); err != nil {
		a.logger.Warn("close store", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func runServe(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	server := api.NewServer(api.Services{
		Auth:        a.auth,
		Assessments: a.assessments,
		LessonPlans: a.lessonPlans,
		Grading:     a.grading,
		Ingestion:   a.ingestion,
	}, a.logger)

	srv := &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: a.cfg.LLMTimeout + 30*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", zap.String("addr", srv.Addr), zap.String("storage", a.cfg.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http shutdown", zap.Error(err))
	}
	if err := server.WaitForJobs(shutdownCtx); err != nil {
		a.logger.Warn("grading jobs still running at shutdown", zap.Error(err))
	}
	return nil
}

func runGenerate(cmd *cobra.Command, lessonPlan bool) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	flags := cmd.Flags()
	subject, _ := flags.GetString("subject")
	grade, _ := flags.GetString("grade")
	topic, _ := flags.GetString("topic")
	objectives, _ := flags.GetStringSlice("objective")
	req := models.GenerationRequest{
		Subject:    subject,
		GradeLevel: grade,
		Topic:      topic,
		Objectives: objectives,
	}

	var out any
	if lessonPlan {
		req.ContentKind = models.ContentLessonPlan
		req.DurationMinutes, _ = flags.GetInt("duration")
		res := a.generator.GenerateLessonPlan(ctx, generation.NormalizeRequest(req))
		out = res.LessonPlan
	} else {
		kind, _ := flags.GetString("type")
		req.ContentKind = models.ContentKind(kind)
		req.ItemCount, _ = flags.GetInt("count")
		if req.ContentKind != models.ContentTest && req.ContentKind != models.ContentDescriptor {
			return fmt.Errorf("unsupported assessment type %q", kind)
		}
		res := a.generator.GenerateAssessment(ctx, generation.NormalizeRequest(req))
		out = res.Assessment
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
