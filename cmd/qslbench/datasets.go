package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newDatasetsCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "Show the configured sample library",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := st.loadConfig()
			if err != nil {
				return err
			}

			lib, err := buildLibrary(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tKIND\tTOTAL SAMPLES\tPERFORMANCE SAMPLES")
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\n",
				lib.Name(),
				cfg.Dataset.Kind,
				lib.TotalSampleCount(),
				lib.PerformanceSampleCount(),
			)
			return w.Flush()
		},
	}
}
