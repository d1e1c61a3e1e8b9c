package main

import (
	"fmt"

	"github.com/Gkemhcs/slidebox/internal/config"
	"github.com/Gkemhcs/slidebox/internal/db"
	"github.com/Gkemhcs/slidebox/internal/utils"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the pending request token schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger := utils.New(cfg)

		conn, err := db.InitDB(logger, cfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := db.Migrate(cmd.Context(), conn); err != nil {
			return err
		}
		logger.Info("schema is up to date")
		return nil
	},
}
