package commands

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/teranos/roomq/ai/embeddings"
	"github.com/teranos/roomq/ai/provider"
	"github.com/teranos/roomq/am"
	"github.com/teranos/roomq/db"
	"github.com/teranos/roomq/errors"
	"github.com/teranos/roomq/forecast"
	"github.com/teranos/roomq/intent"
	"github.com/teranos/roomq/knowledge"
	"github.com/teranos/roomq/logger"
	"github.com/teranos/roomq/resolve"
	"github.com/teranos/roomq/semantic"
	"github.com/teranos/roomq/timeseries"
)

// StrategyOverride is set by the global --strategy flag
var StrategyOverride string

// app is every collaborator a command may need, built once per invocation.
// Collaborators that cannot be built are left nil and their stage reports
// empty; only configuration errors are fatal.
type app struct {
	cfg *am.Config
	log *zap.SugaredLogger

	db        *sql.DB
	store     *timeseries.Store
	storeErr  error
	graph     *knowledge.Neo4jClient
	executor  *knowledge.Executor
	translate *knowledge.Translator
	factory   *provider.Factory
	embedder  *embeddings.Client
	index     *semantic.Index
	engine    *forecast.Engine
	resolver  *resolve.Orchestrator
	aiEnabled bool
}

func loadConfig() (*am.Config, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}
	if StrategyOverride != "" {
		cfg.Classifier.Strategy = StrategyOverride
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// newApp wires the collaborators. Failing ones are logged and skipped.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: logger.ComponentLogger("roomq")}

	if a.db, err = openDatabase(cfg.Database.Path); err != nil {
		a.log.Warnw("Local database unavailable, vector index and usage tracking disabled", logger.FieldError, err.Error())
	}

	a.store, a.storeErr = timeseries.Open(cfg.Timeseries.Dir,
		timeseries.WithLogger(logger.ComponentLogger("timeseries")),
		timeseries.WithLocation(cfg.Forecast.Location()))
	if a.storeErr != nil {
		a.log.Warnw("Time-series tables unavailable", logger.FieldDir, cfg.Timeseries.Dir, logger.FieldError, a.storeErr.Error())
	}

	if a.graph, err = knowledge.NewNeo4jClient(knowledge.Neo4jConfig{
		URI:      cfg.Graph.URI,
		Username: cfg.Graph.Username,
		Password: cfg.Graph.Password,
		Database: cfg.Graph.Database,
		Logger:   logger.ComponentLogger("graph"),
	}); err != nil {
		a.log.Warnw("Graph store unavailable", logger.FieldError, err.Error())
	} else {
		a.executor = knowledge.NewExecutor(a.graph, cfg.Timeouts.Graph(), logger.ComponentLogger("graph"))
	}

	a.factory = provider.NewFactory(cfg, a.db, logger.ComponentLogger("ai"))
	a.aiEnabled = a.factory.Provider() == provider.ProviderTypeLocal || cfg.OpenRouter.APIKey != ""

	if cfg.Embeddings.APIKey != "" || cfg.LocalInference.Enabled {
		a.embedder = embeddings.NewClient(embeddings.Config{
			BaseURL:      cfg.Embeddings.BaseURL,
			APIKey:       cfg.Embeddings.APIKey,
			Model:        cfg.Embeddings.Model,
			Dimensions:   cfg.Embeddings.Dimensions,
			Timeout:      cfg.Timeouts.Vector(),
			AllowPrivate: cfg.LocalInference.Enabled,
			Logger:       logger.ComponentLogger("embeddings"),
		})
		if a.db != nil {
			a.index = semantic.NewIndex(a.db, a.embedder.Model(), logger.ComponentLogger("semantic"))
		}
	}

	a.engine = forecast.New(cfg.Forecast.Threshold, cfg.Forecast.Location())

	if err := a.buildResolver(); err != nil {
		a.close(ctx)
		return nil, err
	}
	return a, nil
}

func (a *app) buildResolver() error {
	llm := a.cfg.Timeouts.LLM()

	var chat func(op string) provider.AIClient
	if a.aiEnabled {
		chat = a.factory.Client
	} else {
		chat = func(string) provider.AIClient { return nil }
	}

	classifier, err := intent.New(intent.Strategy(a.cfg.Classifier.Strategy), chat("classify"), llm, logger.ComponentLogger("intent"))
	if err != nil {
		return err
	}

	deps := resolve.Deps{
		Classifier: classifier,
		Forecaster: a.engine,
	}
	if a.executor != nil {
		deps.Executor = a.executor
	}
	if a.store != nil {
		deps.Tables = a.store
	}
	if a.aiEnabled {
		a.translate = knowledge.NewTranslator(chat("translate"), llm, logger.ComponentLogger("translate"))
		deps.Translator = a.translate
		deps.Responder = resolve.NewLLMResponder(chat("respond"), llm)
	}
	if a.index != nil {
		deps.Retriever = semantic.NewRetriever(a.embedder, a.index, chat("answer"), semantic.RetrieverConfig{
			TopK:      a.cfg.Embeddings.TopK,
			Threshold: a.cfg.Embeddings.Threshold,
			Timeout:   a.cfg.Timeouts.Vector(),
			Logger:    logger.ComponentLogger("semantic"),
		})
	}

	a.resolver = resolve.New(deps, resolve.WithLogger(logger.ComponentLogger("resolve")))
	return nil
}

func (a *app) close(ctx context.Context) {
	if a.graph != nil {
		if err := a.graph.Close(ctx); err != nil {
			a.log.Debugw("Failed to close graph driver", logger.FieldError, err.Error())
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil && !db.IsDatabaseClosed(err) {
			a.log.Debugw("Failed to close database", logger.FieldError, err.Error())
		}
	}
}

// openDatabase opens and migrates the local database, creating its
// directory when needed
func openDatabase(path string) (*sql.DB, error) {
	if path == "" {
		path = "roomq.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, am.DefaultDirPermissions); err != nil {
			return nil, errors.Wrapf(err, "failed to create %s", dir)
		}
	}
	return db.OpenWithMigrations(path, logger.ComponentLogger("db"))
}
