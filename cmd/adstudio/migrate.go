// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"adstudio/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status]",
	Short:     "Apply, roll back, or inspect database migrations",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "status"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := database.Connect(ctx, cfg.DSN())
		if err != nil {
			return err
		}
		defer db.Close()

		action := "up"
		if len(args) == 1 {
			action = args[0]
		}
		switch action {
		case "down":
			if err := database.Rollback(ctx, db); err != nil {
				return err
			}
		case "up":
			if err := database.Migrate(ctx, db); err != nil {
				return err
			}
		}

		v, err := database.Version(ctx, db)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
		return nil
	},
}
