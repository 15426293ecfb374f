package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tanpawarit/agentic-services/agent/agents/orchestrator"
	"github.com/tanpawarit/agentic-services/agent/agents/specialist"
	contractx "github.com/tanpawarit/agentic-services/agent/contract"
	llmx "github.com/tanpawarit/agentic-services/agent/llm"
	promptx "github.com/tanpawarit/agentic-services/agent/prompt"
	"github.com/tanpawarit/agentic-services/agent/resolver"
	storex "github.com/tanpawarit/agentic-services/agent/store"
	toolx "github.com/tanpawarit/agentic-services/agent/tool"
	"github.com/tanpawarit/agentic-services/api"
	configx "github.com/tanpawarit/agentic-services/pkg/config"
	logx "github.com/tanpawarit/agentic-services/pkg/logger"
	mailerx "github.com/tanpawarit/agentic-services/pkg/mailer"
	openrouterx "github.com/tanpawarit/agentic-services/pkg/openrouter"
	supabasex "github.com/tanpawarit/agentic-services/pkg/supabase"
)

type AgentConfig struct {
	specialist.Config
	ToolTimeout  time.Duration `split_words:"true" default:"20s"`
	StoreTimeout time.Duration `split_words:"true" default:"5s"`
	VerifyModels bool          `split_words:"true" default:"false"`
}

func buildRootCommand() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:   "agentic-services",
		Short: "Multi-agent chat backend with sales, support, navigator and assistant specialists",
		Long: strings.TrimSpace(`agentic-services routes chat turns to LLM specialists that act on the
shop catalog, carts, invoices, support tickets, site navigation and personal tasks.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if envFile != "" {
				configx.SetEnvFile(envFile)
			}
			logx.Init(*configx.MustNew[logx.Config]("LOG"))
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVar(&envFile, "env", "", "Path to an env file (defaults to .env when present)")

	root.AddCommand(newServeCommand())
	root.AddCommand(newMigrateCommand())
	root.AddCommand(newSeedCommand())
	return root
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Short:   "Run the HTTP chat API",
		Example: "  agentic-services serve --env .env.local",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Migrate(cmd.Context()); err != nil {
				return err
			}
			log.Info().Msg("migration complete")
			return nil
		},
	}
}

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo catalog, knowledge base and navigation pages",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Migrate(cmd.Context()); err != nil {
				return err
			}
			if err := st.Seed(cmd.Context()); err != nil {
				return err
			}
			log.Info().Msg("seed complete")
			return nil
		},
	}
}

func openStore() (*storex.BunStore, error) {
	cfg, err := configx.New[storex.Config]("DB")
	if err != nil {
		return nil, err
	}
	st, err := storex.Open(*cfg)
	if err != nil {
		return nil, err
	}
	log.Info().Str("driver", cfg.Driver).Msg("database opened")
	return st, nil
}

func serve(ctx context.Context) error {
	dbCfg := configx.MustNew[storex.Config]("DB")
	llmCfg := configx.MustNew[llmx.Config]("LLM")
	agentCfg := configx.MustNew[AgentConfig]("AGENT")
	appCfg := configx.MustNew[api.Config]("APP")
	supabaseCfg := configx.MustNew[supabasex.Config]("SUPABASE")
	mailCfg := configx.MustNew[mailerx.Config]("MAIL")

	if err := llmCfg.Validate(); err != nil {
		return err
	}

	st, err := storex.Open(*dbCfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	if dbCfg.AutoMigrate {
		if err := st.Migrate(ctx); err != nil {
			return err
		}
	}
	if dbCfg.AutoSeed {
		if err := st.SeedIfEmpty(ctx); err != nil {
			return err
		}
	}

	if agentCfg.VerifyModels {
		verifyModels(ctx, *llmCfg)
	}

	mailer := mailerx.New(*mailCfg)
	if !mailer.Configured() {
		log.Warn().Msg("smtp credentials missing, send_email will report email as not configured")
	}

	tools, err := toolx.NewCatalog(toolx.Deps{Store: st, Mailer: mailer}, toolx.WithTimeout(agentCfg.ToolTimeout))
	if err != nil {
		return err
	}

	registry, err := specialist.NewRegistry(ctx, specialist.OpenRouterModels(*llmCfg), promptx.LoadPromptSet(), tools, agentCfg.Config)
	if err != nil {
		return err
	}

	var identity contractx.IdentityProvider
	if client, err := supabasex.NewClient(*supabaseCfg); err != nil {
		log.Warn().Err(err).Msg("identity provider disabled, every caller is anonymous")
	} else {
		identity = client
	}

	res, err := resolver.New(identity, st)
	if err != nil {
		return err
	}

	orch, err := orchestrator.New(registry, res, st, orchestrator.Config{StoreTimeout: agentCfg.StoreTimeout})
	if err != nil {
		return err
	}

	handler, err := api.NewHandler(orch, res, st)
	if err != nil {
		return err
	}

	return api.Serve(ctx, api.NewRouter(handler, *appCfg), *appCfg)
}

// verifyModels logs unknown model ids as a warning.
func verifyModels(ctx context.Context, cfg llmx.Config) {
	client := openrouterx.NewClient(cfg.OpenRouterFor(contractx.AgentTypeOrchestrator))
	if client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	models := cfg.Models()
	if err := openrouterx.ProbeModels(ctx, client, models...); err != nil {
		log.Warn().Err(err).Strs("models", models).Msg("model verification failed")
		return
	}
	log.Info().Strs("models", models).Msg("models verified")
}
