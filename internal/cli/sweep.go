package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lao-tseu-is-alive/go-swarm-informed/pkg/results"
	"github.com/lao-tseu-is-alive/go-swarm-informed/pkg/sweep"
)

const defaultSweepConfig = "config/experiment.json"

func newSweepCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep [config]",
		Short: "Run every parameter combination of a sweep file and append the results to a CSV",
		Long: "sweep reads a JSON, YAML or TOML sweep file (default " + defaultSweepConfig + "),\n" +
			"runs every combination on a pool of workers and appends one row per run\n" +
			"to <output-dir>/<output_csv>.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.close()

			configFile := defaultSweepConfig
			if len(args) == 1 {
				configFile = args[0]
			}
			cfg, err := sweep.LoadConfig(configFile, a.v.GetString("schema"))
			if err != nil {
				return err
			}

			master := cfg.MasterSeed()
			if a.v.IsSet("seed") {
				master = a.v.GetInt64("seed")
			}
			jobs, err := sweep.Jobs(cfg, master)
			if err != nil {
				return err
			}

			outPath := filepath.Join(a.v.GetString("output-dir"), cfg.OutputCSV)
			w, err := results.Open(outPath)
			if err != nil {
				return fmt.Errorf("%w: %v", sweep.ErrSink, err)
			}

			driver := sweep.NewDriver(w,
				sweep.WithWorkers(a.v.GetInt("workers")),
				sweep.WithLogger(a.logger))
			a.logger.Infof("Loaded %s: %d runs, master seed %d", configFile, len(jobs), master)

			summary, runErr := driver.Run(cmd.Context(), jobs)
			closeErr := w.Close()
			if runErr != nil {
				return runErr
			}
			if closeErr != nil {
				return fmt.Errorf("%w: %v", sweep.ErrSink, closeErr)
			}

			if summary.Failed > 0 {
				a.logger.Warnf("Sweep %s: %d of %d runs failed, see the log above", summary.ID, summary.Failed, summary.Dispatched)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "All simulations done. Results saved to %s using %d workers (%d completed, %d failed).\n",
				w.Path(), driver.Workers(), summary.Completed, summary.Failed)
			return nil
		},
	}

	cmd.Flags().IntP("workers", "w", 0, "number of parallel runs (default: number of CPUs)")
	cmd.Flags().String("output-dir", "data", "directory receiving the results file")
	cmd.Flags().Int64("seed", 0, "master seed, overrides the seed of the sweep file")
	cmd.Flags().String("schema", "", "JSON schema file replacing the built-in one")
	return cmd
}
