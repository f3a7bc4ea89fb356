package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/adaptive-reasoning/internal/adapter"
	"github.com/danielpatrickdp/adaptive-reasoning/internal/codec"
	"github.com/danielpatrickdp/adaptive-reasoning/internal/config"
	"github.com/danielpatrickdp/adaptive-reasoning/internal/logging"
	"github.com/danielpatrickdp/adaptive-reasoning/internal/orchestrator"
	"github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"
	"github.com/danielpatrickdp/adaptive-reasoning/internal/state"
)

// #region main
func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:          "reasoner",
		Short:        "Adaptive chain-of-thought reasoning sessions",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "YAML or TOML config file")
	root.AddCommand(newRunCmd(&cfgPath), newConfigCmd(&cfgPath))
	return root
}

// #endregion main

// #region run
type runOptions struct {
	problem     string
	domain      string
	constraints []string
	metadata    map[string]string
	db          string
	provider    string
	model       string
	pretty      bool
}

func newRunCmd(cfgPath *string) *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run [problem]",
		Short: "Reason through a problem and print the chain of thought as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.problem = args[0]
			}
			if strings.TrimSpace(opts.problem) == "" {
				return fmt.Errorf("a problem is required (argument or --problem)")
			}
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if opts.provider != "" {
				cfg.Generator.Provider = opts.provider
			}
			if opts.model != "" {
				cfg.Generator.Model = opts.model
			}
			if opts.db != "" {
				cfg.Store.Path = opts.db
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return run(ctx, cfg, opts, cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.problem, "problem", "p", "", "problem statement")
	f.StringVarP(&opts.domain, "domain", "d", "", "problem domain (default general)")
	f.StringSliceVarP(&opts.constraints, "constraint", "c", nil, "constraint, repeatable")
	f.StringToStringVar(&opts.metadata, "meta", nil, "input metadata key=value pairs")
	f.StringVar(&opts.db, "db", "", "SQLite history database")
	f.StringVar(&opts.provider, "generator", "", "echo | grpc | anthropic | openai | google")
	f.StringVar(&opts.model, "model", "", "model id for LLM generators")
	f.BoolVar(&opts.pretty, "pretty", true, "indent JSON output")
	return cmd
}

func run(ctx context.Context, cfg config.Config, opts runOptions, out io.Writer) error {
	exec, closeExec, err := newExecutor(cfg.Generator)
	if err != nil {
		return err
	}
	defer closeExec()

	chainOpts := []orchestrator.Option{orchestrator.WithExecutor(exec)}

	var store *state.Store
	if cfg.Store.Path != "" {
		store, err = state.NewStore(cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer store.Close()
		chainOpts = append(chainOpts,
			orchestrator.WithRecorder(store),
			orchestrator.WithDecisionLogger(logging.NewLogger(store.DB())),
		)
		domain := opts.domain
		if domain == "" {
			domain = reasoning.DomainGeneral
		}
		if b, ok, err := store.DomainBaseline(domain); err != nil {
			log.Printf("[STORE] baseline %s: %v", domain, err)
		} else if ok {
			log.Printf("[STORE] %s baseline complexity %.2f over %d sessions", b.Domain, b.Complexity, b.Samples)
		}
	}

	chain, err := orchestrator.NewChain(cfg, chainOpts...)
	if err != nil {
		return err
	}
	cot, runErr := chain.Reason(ctx, opts.problem, orchestrator.Input{
		Domain:      opts.domain,
		Constraints: opts.constraints,
		Metadata:    opts.metadata,
	})
	if runErr != nil {
		return runErr
	}

	var body []byte
	if opts.pretty {
		body, err = json.MarshalIndent(cot, "", "  ")
	} else {
		body, err = json.Marshal(cot)
	}
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	if store != nil {
		if err := store.SaveOutput(cot.SessionID, string(body)); err != nil {
			log.Printf("[STORE] save output: %v", err)
		}
	}
	_, err = fmt.Fprintln(out, string(body))
	return err
}

// newExecutor builds the step executor named by the generator config. LLM
// and gRPC generators are wrapped in the failure-aware retry executor.
func newExecutor(g config.GeneratorConfig) (orchestrator.StepExecutor, func(), error) {
	noop := func() {}
	switch g.Provider {
	case "", "echo":
		return orchestrator.EchoExecutor{}, noop, nil
	case "grpc":
		addr := g.Addr
		if addr == "" {
			addr = "localhost:50051"
		}
		client, err := codec.NewCodecClient(addr)
		if err != nil {
			return nil, noop, err
		}
		return orchestrator.NewRetryExecutor(client, -1), func() { client.Close() }, nil
	default:
		a, err := adapter.New(g.Provider, g.APIKey)
		if err != nil {
			return nil, noop, err
		}
		return orchestrator.NewRetryExecutor(adapter.NewExecutor(a, g.Model), -1), noop, nil
	}
}

// #endregion run

// #region config
func newConfigCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

// #endregion config
