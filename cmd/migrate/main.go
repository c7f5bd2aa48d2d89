package main

import (
	"context"
	"fmt"
	"os"

	"novel_platform/internal/config"
	"novel_platform/internal/db"
	"novel_platform/internal/service"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Create or update the database schema",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(func(gdb *gorm.DB) error {
				return db.Migrate(gdb)
			})
		},
	}
	root.AddCommand(&cobra.Command{
		Use:   "grant-admin <username>",
		Short: "Give a user the ADMIN role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(gdb *gorm.DB) error {
				if err := service.NewAccountService(gdb).GrantAdmin(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("grant admin to %q: %w", args[0], err)
				}
				logrus.WithField("username", args[0]).Info("Admin role granted")
				return nil
			})
		},
	})
	return root
}

func withDB(fn func(gdb *gorm.DB) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	gdb, err := db.Open(cfg.DSN(), false)
	if err != nil {
		return err
	}
	defer db.Close(gdb)
	return fn(gdb)
}
