// qslbench runs accuracy benchmarks over sample libraries and serves the
// stored results.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/stellarlinkco/qslib/internal/config"
)

type cliState struct {
	configPath string
	verbose    bool
	log        *slog.Logger
}

var (
	osExit                 = os.Exit
	stderrWriter io.Writer = os.Stderr
)

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(stderrWriter, err)
		osExit(1)
	}
}

func newRootCmd() *cobra.Command {
	st := &cliState{}

	root := &cobra.Command{
		Use:           "qslbench",
		Short:         "Accuracy benchmarks over query sample libraries",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if st.verbose {
				level = slog.LevelDebug
			}
			st.log = slog.New(tint.NewHandler(stderrWriter, &tint.Options{
				Level:      level,
				TimeFormat: time.Kitchen,
			}))
		},
	}
	root.PersistentFlags().StringVar(&st.configPath, "config", "", "path to config file (default "+config.DefaultPath+")")
	root.PersistentFlags().BoolVarP(&st.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newRunCmd(st))
	root.AddCommand(newDatasetsCmd(st))
	root.AddCommand(newHistoryCmd(st))
	root.AddCommand(newServeCmd(st))
	return root
}

func (st *cliState) loadConfig() (*config.Config, error) {
	return config.Load(st.configPath)
}
