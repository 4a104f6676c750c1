package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"resume-feedback/internal/extract"
	"resume-feedback/internal/extraction"
	"resume-feedback/internal/feedback"
	"resume-feedback/internal/llm"
	"resume-feedback/internal/llm/gemini"
	"resume-feedback/internal/llm/openai"
	"resume-feedback/internal/notify"
	"resume-feedback/internal/orchestrator"
	"resume-feedback/internal/prompts"
	"resume-feedback/internal/rendering"
	"resume-feedback/internal/resumes"
	"resume-feedback/internal/shared/config"
	"resume-feedback/internal/shared/server"
	"resume-feedback/internal/shared/storage/db"
	"resume-feedback/internal/shared/storage/object"
	localstore "resume-feedback/internal/shared/storage/object/local"
	s3store "resume-feedback/internal/shared/storage/object/s3"
	"resume-feedback/internal/shared/telemetry"
	"resume-feedback/internal/users"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore

	Prompts   *prompts.Registry
	Invoker   *llm.Invoker
	Extractor *extraction.Extractor
	Feedback  *feedback.Generator
	Renderer  rendering.Renderer

	UsersService   *users.Service
	ResumesService *resumes.Service
	Orchestrator   *orchestrator.Orchestrator

	UsersHandler    *users.Handler
	ResumesHandler  *resumes.Handler
	PipelineHandler *orchestrator.Handler
}

// Build prepares every dependency and the HTTP router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
	}
	if err := buildServices(ctx, app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		UserHandler:     app.UsersHandler,
		ResumeHandler:   app.ResumesHandler,
		PipelineHandler: app.PipelineHandler,
	})
	return app, nil
}

// Close releases the database pool.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap: DATABASE_URL empty; using in-memory repositories", nil)
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap: database connect failed; using in-memory repositories", map[string]any{"error": err})
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

// BuildGenerator returns the raw LLM provider selected by cfg.
func BuildGenerator(ctx context.Context, cfg config.Config) (llm.Generator, map[string]any, error) {
	switch cfg.LLMProvider {
	case "openai":
		client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel)
		if err != nil {
			return nil, nil, err
		}
		return client, map[string]any{"provider": "openai", "model": cfg.LLMModel}, nil
	case "gemini":
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" && isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap: GEMINI_API_KEY empty; llm calls will fail", nil)
			return llm.PlaceholderGenerator{}, map[string]any{"provider": "none"}, nil
		}
		gen, err := gemini.NewGenerator(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
		if err != nil {
			return nil, nil, err
		}
		return gen, map[string]any{"provider": "gemini", "model": gen.Model()}, nil
	default:
		return llm.PlaceholderGenerator{}, map[string]any{"provider": "none"}, nil
	}
}

// BuildRenderer returns the Google Docs renderer when a service account is configured.
func BuildRenderer(ctx context.Context, cfg config.Config) (rendering.Renderer, error) {
	if strings.TrimSpace(cfg.GoogleServiceAccountFile) == "" {
		return rendering.Noop{}, nil
	}
	creds, err := os.ReadFile(cfg.GoogleServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("read google service account: %w", err)
	}
	return rendering.NewGoogleDocs(ctx, creds, cfg.GoogleDriveFolderID)
}

func buildServices(ctx context.Context, app *App) error {
	var userRepo users.Repo
	var resumeRepo resumes.Repo
	if app.DB != nil {
		userRepo = &users.PGRepo{DB: app.DB}
		resumeRepo = &resumes.PGRepo{DB: app.DB, NewID: uuid.NewString}
	} else {
		userRepo = users.NewMemoryRepo()
		resumeRepo = resumes.NewMemoryRepo(uuid.NewString)
	}

	reg, err := prompts.Load(app.Config.PromptDir)
	if err != nil {
		return err
	}
	gen, modelInfo, err := BuildGenerator(ctx, app.Config)
	if err != nil {
		return err
	}
	invoker := llm.NewInvoker(gen, llm.WithLogger(telemetry.L()))
	sections, err := extraction.NewExtractor(reg, invoker)
	if err != nil {
		return err
	}
	renderer, err := BuildRenderer(ctx, app.Config)
	if err != nil {
		return err
	}

	userSvc := users.NewService(userRepo)
	resumeSvc := resumes.NewService(resumeRepo)
	fb := feedback.NewGenerator(reg, invoker)
	orch := &orchestrator.Orchestrator{
		Text:      extract.Extractor{Store: app.Store},
		Sections:  sections,
		Resumes:   resumeSvc,
		Feedback:  fb,
		Renderer:  renderer,
		Drafter:   notify.NewDrafter(app.Store, app.Config.EmailFrom, app.Config.EmailCC),
		Users:     userSvc,
		Store:     app.Store,
		Runs:      orchestrator.NewRuns(app.Config.RunTTL),
		ModelInfo: modelInfo,
	}

	app.Prompts = reg
	app.Invoker = invoker
	app.Extractor = sections
	app.Feedback = fb
	app.Renderer = renderer
	app.UsersService = userSvc
	app.ResumesService = resumeSvc
	app.Orchestrator = orch
	app.UsersHandler = users.NewHandler(userSvc)
	app.UsersHandler.TokenSecret = []byte(app.Config.JWTSecret)
	app.ResumesHandler = resumes.NewHandler(resumeSvc)
	app.PipelineHandler = orchestrator.NewHandler(orch)
	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
