package cli

import (
	"context"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/quill/pkg/adapter"
	"github.com/m-mizutani/quill/pkg/model"
	"github.com/m-mizutani/quill/pkg/repository"
	"github.com/m-mizutani/quill/pkg/service/mcp"
	"github.com/m-mizutani/quill/pkg/tool"
	"github.com/m-mizutani/quill/pkg/tool/article"
	articleUC "github.com/m-mizutani/quill/pkg/usecase/article"
	"github.com/m-mizutani/quill/pkg/usecase/chat"
	"github.com/m-mizutani/quill/pkg/utils/logging"
	"github.com/m-mizutani/quill/pkg/vecindex"
	"github.com/urfave/cli/v3"
)

// config holds configuration values shared across commands
type config struct {
	logLevel string

	// Stores
	repoBackend  string // "firestore" or "memory"
	indexBackend string
	project      string
	database     string

	// LLM
	geminiProject   string
	geminiLocation  string
	geminiModel     string
	embeddingModel  string
	anthropicAPIKey string

	// Optional services
	bucket       string
	auditDataset string
	auditTable   string
	policyDir    string
	mcpConfig    string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("QUILL_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "repository",
			Usage:       "Content store backend (firestore or memory)",
			Value:       "firestore",
			Sources:     cli.EnvVars("QUILL_REPOSITORY"),
			Destination: &cfg.repoBackend,
		},
		&cli.StringFlag{
			Name:        "index",
			Usage:       "Semantic index backend (firestore or memory)",
			Value:       "firestore",
			Sources:     cli.EnvVars("QUILL_INDEX"),
			Destination: &cfg.indexBackend,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
	}
}

// llmFlags returns flags for LLM-related configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Generative model name",
			Sources:     cli.EnvVars("QUILL_GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
		&cli.StringFlag{
			Name:        "embedding-model",
			Usage:       "Embedding model name",
			Sources:     cli.EnvVars("QUILL_EMBEDDING_MODEL"),
			Destination: &cfg.embeddingModel,
		},
		&cli.StringFlag{
			Name:        "anthropic-api-key",
			Usage:       "Anthropic API key. When set, Claude folds conversation summaries.",
			Sources:     cli.EnvVars("ANTHROPIC_API_KEY"),
			Destination: &cfg.anthropicAPIKey,
		},
	}
}

// serviceFlags returns flags for the optional chat services
func serviceFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "bucket",
			Usage:       "Cloud Storage bucket for transcript archives",
			Sources:     cli.EnvVars("QUILL_BUCKET"),
			Destination: &cfg.bucket,
		},
		&cli.StringFlag{
			Name:        "audit-dataset",
			Usage:       "BigQuery dataset for tool dispatch audit records",
			Sources:     cli.EnvVars("QUILL_AUDIT_DATASET"),
			Destination: &cfg.auditDataset,
		},
		&cli.StringFlag{
			Name:        "audit-table",
			Usage:       "BigQuery table for tool dispatch audit records",
			Value:       "tool_dispatches",
			Sources:     cli.EnvVars("QUILL_AUDIT_TABLE"),
			Destination: &cfg.auditTable,
		},
		&cli.StringFlag{
			Name:        "policy-dir",
			Usage:       "Directory of Rego policies gating tool dispatch",
			Sources:     cli.EnvVars("QUILL_POLICY_DIR"),
			Destination: &cfg.policyDir,
		},
		&cli.StringFlag{
			Name:        "mcp-config",
			Usage:       "Path to MCP server configuration file",
			Sources:     cli.EnvVars("QUILL_MCP_CONFIG"),
			Destination: &cfg.mcpConfig,
		},
	}
}

// setupLogger installs the process logger and returns a context carrying it
func (cfg *config) setupLogger(ctx context.Context) context.Context {
	logger := logging.New(cfg.logLevel, os.Stderr)
	logging.SetDefault(logger)
	return logging.With(ctx, logger)
}

// newRepository creates the content store for the configured backend
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, error) {
	switch cfg.repoBackend {
	case "memory":
		return repository.NewMemory(), nil
	case "firestore":
		if cfg.project == "" {
			return nil, goerr.New("project is required for firestore repository")
		}
		repo, err := repository.NewFirestore(ctx, cfg.project, cfg.database)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create repository")
		}
		return repo, nil
	default:
		return nil, goerr.New("unsupported repository backend", goerr.V("backend", cfg.repoBackend))
	}
}

// newIndex creates the semantic index for the configured backend
func (cfg *config) newIndex(ctx context.Context) (vecindex.Index, error) {
	switch cfg.indexBackend {
	case "memory":
		return vecindex.NewMemory(), nil
	case "firestore":
		if cfg.project == "" {
			return nil, goerr.New("project is required for firestore index")
		}
		index, err := vecindex.NewFirestore(ctx, cfg.project, cfg.database)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create index")
		}
		return index, nil
	default:
		return nil, goerr.New("unsupported index backend", goerr.V("backend", cfg.indexBackend))
	}
}

// newGemini creates the Gemini adapter
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if cfg.geminiProject == "" {
		return nil, goerr.New("gemini-project is required")
	}
	if cfg.geminiLocation == "" {
		return nil, goerr.New("gemini-location is required")
	}

	var opts []adapter.GeminiOption
	if cfg.geminiModel != "" {
		opts = append(opts, adapter.WithGenerativeModel(cfg.geminiModel))
	}
	if cfg.embeddingModel != "" {
		opts = append(opts, adapter.WithEmbeddingModel(cfg.embeddingModel))
	}

	gemini, err := adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Gemini adapter")
	}
	return gemini, nil
}

// newArticleUseCase wires the dual store behind the article operations
func (cfg *config) newArticleUseCase(ctx context.Context) (*articleUC.UseCase, error) {
	repo, err := cfg.newRepository(ctx)
	if err != nil {
		return nil, err
	}

	index, err := cfg.newIndex(ctx)
	if err != nil {
		return nil, err
	}

	if err := index.EnsureCollection(ctx, adapter.EmbeddingDimension); err != nil {
		return nil, goerr.Wrap(err, "failed to ensure index collection")
	}

	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, err
	}

	return articleUC.New(repo, index, gemini), nil
}

// chatConfig holds the per-session knobs of the chat and send commands
type chatConfig struct {
	session     string
	owner       string
	tokenBudget int
	window      int
	timeout     time.Duration
}

func chatFlags(ccfg *chatConfig) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "session",
			Aliases:     []string{"s"},
			Usage:       "Session ID. A new session starts on first use of an ID.",
			Sources:     cli.EnvVars("QUILL_SESSION"),
			Destination: &ccfg.session,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "owner",
			Aliases:     []string{"o"},
			Usage:       "Owner ID the tools act as",
			Sources:     cli.EnvVars("QUILL_OWNER"),
			Destination: &ccfg.owner,
			Required:    true,
		},
		&cli.IntFlag{
			Name:        "token-budget",
			Usage:       "Working-set token budget before old turns fold into the summary",
			Value:       chat.DefaultTokenBudget,
			Sources:     cli.EnvVars("QUILL_TOKEN_BUDGET"),
			Destination: &ccfg.tokenBudget,
		},
		&cli.IntFlag{
			Name:        "window",
			Usage:       "Number of recent messages shown to the model verbatim",
			Value:       chat.DefaultWindow,
			Sources:     cli.EnvVars("QUILL_WINDOW"),
			Destination: &ccfg.window,
		},
		&cli.DurationFlag{
			Name:        "timeout",
			Usage:       "Per-turn deadline. Zero disables it.",
			Sources:     cli.EnvVars("QUILL_TIMEOUT"),
			Destination: &ccfg.timeout,
		},
	}
}

// newChatUseCase builds the full orchestrator: dual store, tools, policy
// gate and the optional archive and audit services
func (cfg *config) newChatUseCase(ctx context.Context, ccfg *chatConfig) (*chat.UseCase, error) {
	repo, err := cfg.newRepository(ctx)
	if err != nil {
		return nil, err
	}

	index, err := cfg.newIndex(ctx)
	if err != nil {
		return nil, err
	}

	if err := index.EnsureCollection(ctx, adapter.EmbeddingDimension); err != nil {
		return nil, goerr.Wrap(err, "failed to ensure index collection")
	}

	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, err
	}

	owner := model.OwnerID(ccfg.owner)
	articles := articleUC.New(repo, index, gemini)

	registry, err := tool.New(article.New(articles, owner))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build tool registry")
	}

	if mcpTool, err := mcp.LoadAndConnect(ctx, cfg.mcpConfig); err != nil {
		return nil, goerr.Wrap(err, "failed to set up MCP tools")
	} else if mcpTool != nil {
		if err := registry.Register(mcpTool); err != nil {
			return nil, goerr.Wrap(err, "failed to register MCP tools")
		}
	}

	var summarizer chat.Summarizer
	if cfg.anthropicAPIKey != "" {
		summarizer = chat.NewClaudeSummarizer(adapter.NewClaude(cfg.anthropicAPIKey))
	} else {
		summarizer = chat.NewGeminiSummarizer(gemini)
	}

	opts := []chat.Option{
		chat.WithTokenBudget(ccfg.tokenBudget),
		chat.WithWindow(ccfg.window),
	}

	if ccfg.timeout > 0 {
		opts = append(opts, chat.WithTimeout(ccfg.timeout))
	}

	if cfg.policyDir != "" {
		policy, err := tool.LoadPolicy(ctx, cfg.policyDir)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to load dispatch policy")
		}
		if policy != nil {
			opts = append(opts, chat.WithPolicy(policy))
		}
	}

	if cfg.bucket != "" {
		storage, err := adapter.NewStorage(ctx, cfg.bucket)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create storage")
		}
		opts = append(opts, chat.WithStorage(storage))
	}

	if cfg.auditDataset != "" {
		if cfg.project == "" {
			return nil, goerr.New("project is required for BigQuery audit")
		}
		audit, err := adapter.NewAudit(ctx, cfg.project, cfg.auditDataset, cfg.auditTable)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create audit sink")
		}
		opts = append(opts, chat.WithAudit(audit))
	}

	return chat.New(repo, gemini, registry, summarizer, owner, opts...), nil
}
