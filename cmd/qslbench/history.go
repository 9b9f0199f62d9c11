package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/qslib/internal/store"
)

func newHistoryCmd(st *cliState) *cobra.Command {
	var (
		datasetName string
		systemName  string
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored accuracy runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := st.loadConfig()
			if err != nil {
				return err
			}

			db, err := store.Open(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := db.ListRuns(cmd.Context(), store.RunFilter{
				Dataset: datasetName,
				System:  systemName,
				Limit:   limit,
			})
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FINISHED\tDATASET\tSYSTEM\tACCURACY\tSAMPLES\tFAILURES\tID")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
					r.FinishedAt.Local().Format(time.DateTime),
					r.Dataset,
					r.System,
					r.Formatted,
					r.Observations,
					r.Failures,
					r.ID,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&datasetName, "dataset", "", "filter by dataset")
	cmd.Flags().StringVar(&systemName, "system", "", "filter by system under test")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum runs to list")
	return cmd
}
