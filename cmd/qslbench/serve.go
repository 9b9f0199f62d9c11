package main

import (
	"github.com/spf13/cobra"

	"github.com/stellarlinkco/qslib/api"
	"github.com/stellarlinkco/qslib/internal/store"
)

func newServeCmd(st *cliState) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored runs over a read-only HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := st.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Serve.Addr = addr
			}

			db, err := store.Open(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			srv, err := api.NewServer(db, cfg.Serve.APIKey)
			if err != nil {
				return err
			}

			st.log.Info("serving results api", "addr", cfg.Serve.Addr)
			return srv.Run(cfg.Serve.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
