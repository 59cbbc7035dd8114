package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"guardian/internal/batch"
	"guardian/internal/collect"
	"guardian/internal/config"
	guarderrors "guardian/internal/errors"
	"guardian/internal/generate"
	"guardian/internal/harness"
	"guardian/internal/llm"
	"guardian/internal/logging"
	"guardian/internal/record"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <tasks.yaml>",
		Short: "Run the repair loop over a task manifest",
		Long: "Runs every task in the manifest through generate-evaluate-repair and\n" +
			"writes one JSONL record per round. Exits non-zero when any task is vetoed.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args[0])
		},
	}

	cmd.Flags().Int("tau-max", -1, "Maximum repair iterations per task")
	cmd.Flags().Float64("threshold", -1, "Default CRI acceptance threshold")
	cmd.Flags().Int("workers", 0, "Parallel task workers")
	cmd.Flags().String("record", "", "Run record JSONL path")
	cmd.Flags().StringP("model", "m", "", "Model name")
	cmd.Flags().String("base-url", "", "OpenAI-compatible endpoint base URL")
	cmd.Flags().Bool("mock", false, "Use the scripted mock client instead of a provider")
	_ = viper.BindPFlag("tau-max", cmd.Flags().Lookup("tau-max"))
	_ = viper.BindPFlag("threshold", cmd.Flags().Lookup("threshold"))
	_ = viper.BindPFlag("workers", cmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("record", cmd.Flags().Lookup("record"))
	_ = viper.BindPFlag("model", cmd.Flags().Lookup("model"))
	_ = viper.BindPFlag("base-url", cmd.Flags().Lookup("base-url"))
	_ = viper.BindPFlag("mock", cmd.Flags().Lookup("mock"))
	return cmd
}

func runBatch(cmd *cobra.Command, manifestPath string) error {
	logger := logging.NewComponentLogger("guardian")

	cfg, err := loadEffectiveConfig()
	if err != nil {
		return err
	}

	scorer := harness.NewWeightedScorer(harness.DefaultScoreConfig())
	tasks, err := loadTasks(manifestPath, scorer.MaxScore(), logger)
	if err != nil {
		return err
	}

	client, err := buildClient(cfg, logger)
	if err != nil {
		return err
	}

	sink, err := record.NewJSONLSink(cfg.RecordPath, logging.NewComponentLogger("record"))
	if err != nil {
		return err
	}

	gen := generate.NewLLMGenerator(client, nil, logging.NewComponentLogger("generate"))
	metrics := batch.NewMetrics()

	factory := func(task *harness.Task) *harness.Controller {
		collectors := []harness.Collector{
			collect.NewTestRunner(logging.NewComponentLogger("tests")),
			collect.NewSecurityScanner(nil, logging.NewComponentLogger("security")),
		}
		if len(cfg.LintCommand) > 0 {
			collectors = append(collectors, collect.NewLinter(cfg.LintCommand, logging.NewComponentLogger("linter")))
		}
		opts := []harness.ControllerOption{
			harness.WithRoundTimeout(cfg.RoundTimeout()),
			harness.WithDefaultThreshold(cfg.Threshold),
			harness.WithSink(sink),
			harness.WithLogger(logging.NewComponentLogger("loop")),
		}
		if cfg.PlateauEnabled {
			opts = append(opts, harness.WithPlateauStop(cfg.PlateauEpsilon))
		}
		return harness.NewController(gen, collectors, scorer, harness.Policy{TauMax: cfg.TauMax}, opts...)
	}

	runner := batch.NewRunner(factory, cfg.Workers, logger, batch.WithMetrics(metrics))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report := runner.Run(ctx, tasks)
	batch.WriteSummary(os.Stdout, report)

	_, _, veto, failed := report.Counts()
	if failed > 0 {
		return fmt.Errorf("%d task run(s) failed", failed)
	}
	if veto > 0 {
		return fmt.Errorf("%d task(s) vetoed", veto)
	}
	return nil
}

// loadEffectiveConfig layers flag values over file and environment config.
func loadEffectiveConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return nil, err
	}

	if v := viper.GetInt("tau-max"); v >= 0 {
		cfg.TauMax = v
	}
	if v := viper.GetFloat64("threshold"); v >= 0 {
		cfg.Threshold = v
	}
	if v := viper.GetInt("workers"); v > 0 {
		cfg.Workers = v
	}
	if v := viper.GetString("record"); v != "" {
		cfg.RecordPath = v
	}
	if v := viper.GetString("model"); v != "" {
		cfg.Model.Name = v
	}
	if v := viper.GetString("base-url"); v != "" {
		cfg.Model.BaseURL = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildClient(cfg *config.Config, logger logging.Logger) (llm.Client, error) {
	if viper.GetBool("mock") || cfg.Model.Provider == "mock" {
		return llm.NewMockClient(""), nil
	}

	base, err := llm.NewOpenAIClient(llm.OpenAIConfig{
		Model:       cfg.Model.Name,
		BaseURL:     cfg.Model.BaseURL,
		APIKeyEnv:   cfg.Model.APIKeyEnv,
		Temperature: cfg.Model.Temperature,
		MaxTokens:   cfg.Model.MaxTokens,
	}, logging.NewComponentLogger("llm"))
	if err != nil {
		return nil, err
	}

	breaker := guarderrors.NewCircuitBreaker("llm", guarderrors.DefaultCircuitBreakerConfig())
	return llm.NewRetryClient(base, guarderrors.DefaultRetryConfig(), breaker, logging.NewComponentLogger("llm-retry")), nil
}
