// Package cli wires the couzin commands: flags, environment and logging.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tochemey/goakt/v3/log"

	"github.com/lao-tseu-is-alive/go-swarm-informed/internal/logging"
)

// Version is overridden at build time with -ldflags.
var Version = "dev"

// app carries what every sub-command needs once flags are parsed.
type app struct {
	v      *viper.Viper
	logger log.Logger
	closer io.Closer
}

// NewRootCmd builds a fresh command tree with its own viper instance.
// Flags can also be set through COUZIN_* environment variables, e.g.
// COUZIN_WORKERS or COUZIN_LOG_LEVEL.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	a.v.SetEnvPrefix("COUZIN")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "couzin",
		Short:         "Informed-agent collective motion on a torus",
		Long:          "couzin simulates groups of self-propelled agents in which a few individuals\nprefer a direction, and measures where the group goes.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	root.PersistentFlags().String("log-level", "info", "log level: debug, info, warn or error")
	root.PersistentFlags().String("log-file", "", "also write logs to this rotating file")

	root.AddCommand(newSweepCmd(a), newSingleCmd(a))
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := a.v.BindPFlags(cmd.InheritedFlags()); err != nil {
		return err
	}

	logger, closer, err := logging.New(a.v.GetString("log-level"), a.v.GetString("log-file"), cmd.OutOrStdout())
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	a.logger, a.closer = logger, closer
	return nil
}

// close releases the log file, if any.
func (a *app) close() {
	if a.closer != nil {
		_ = a.closer.Close()
	}
}
