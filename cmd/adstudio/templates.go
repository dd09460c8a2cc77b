// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"adstudio/internal/database"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Manage the mirrored template catalog",
}

var templatesSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Mirror the rendering service's templates into the catalog once",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := database.Connect(ctx, cfg.DSN())
		if err != nil {
			return err
		}
		defer db.Close()

		svc := newServices(ctx, db)
		defer svc.Close()
		if !svc.Catalog.CanSync() {
			return errors.New("RENDER_API_KEY is not set")
		}

		report, err := svc.Catalog.Sync(ctx, nil)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	templatesCmd.AddCommand(templatesSyncCmd)
}
