package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Chamindu77/SFBS-Backend/internal/auth"
	"github.com/Chamindu77/SFBS-Backend/internal/calendar"
	"github.com/Chamindu77/SFBS-Backend/internal/config"
	"github.com/Chamindu77/SFBS-Backend/internal/db"
	"github.com/Chamindu77/SFBS-Backend/internal/model"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

func main() {
	root := &cobra.Command{
		Use:           "sfbs",
		Short:         "Sports facility booking core",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), workerCmd(), migrateCmd(), tokenCmd(), slotsCmd())

	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Printf("error: %v", err)
		os.Exit(1)
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbCfg, err := config.LoadDBConfig()
			if err != nil {
				return err
			}
			gormDB, err := db.NewGormDB(dbCfg)
			if err != nil {
				return err
			}
			sqlDB, err := gormDB.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			if err := model.AutoMigrate(gormDB); err != nil {
				return fmt.Errorf("auto migrate: %w", err)
			}
			log.Printf("[migrate] schema is up to date (%s)", dbCfg.Driver)
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	var (
		sub, role, email, name string
		ttl                    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := config.Load()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = app.JWTTTL()
			}
			tok, err := auth.CreateAccessToken(app.JWTSecret, sub, role, email, name, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&sub, "sub", "", "User ID (subject)")
	f.StringVar(&role, "role", auth.RoleUser, "Role: Admin or User")
	f.StringVar(&email, "email", "", "User email")
	f.StringVar(&name, "name", "", "User display name")
	f.DurationVar(&ttl, "ttl", 0, "Token lifetime (default JWT_EXPIRE_MIN)")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}

func slotsCmd() *cobra.Command {
	var (
		start, end string
		step       time.Duration
	)
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Print the bookable slot catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := calendar.NewCatalog(start, end, step)
			if err != nil {
				return err
			}
			for _, s := range c.Slots() {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&start, "start", "08:00", "First slot start (HH:MM)")
	f.StringVar(&end, "end", "18:00", "Last slot end (HH:MM)")
	f.DurationVar(&step, "step", time.Hour, "Slot length")
	return cmd
}
