package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"guardian/internal/config"
	"guardian/internal/harness"
	"guardian/internal/logging"
	"guardian/internal/taskset"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <tasks.yaml>",
		Short: "Validate a config and task manifest without running anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetString("config"))
			if err != nil {
				return err
			}

			scorer := harness.NewWeightedScorer(harness.DefaultScoreConfig())
			tasks, err := loadTasks(args[0], scorer.MaxScore(), logging.NewComponentLogger("guardian"))
			if err != nil {
				return err
			}

			green := color.New(color.FgGreen).SprintFunc()
			fmt.Printf("%s %d tasks, tau_max=%d, threshold=%.0f, %d workers\n",
				green("valid:"), len(tasks), cfg.TauMax, cfg.Threshold, cfg.Workers)
			for _, task := range tasks {
				vetoes := 0
				for _, rule := range task.Rules {
					if rule.Veto {
						vetoes++
					}
				}
				fmt.Printf("  %-24s rules=%d veto=%d\n", task.ID, len(task.Rules), vetoes)
			}
			return nil
		},
	}
}

func loadTasks(path string, maxScore float64, logger logging.Logger) ([]*harness.Task, error) {
	tasks, err := taskset.Load(path, maxScore, logger)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	return tasks, nil
}
