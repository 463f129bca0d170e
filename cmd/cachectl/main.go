// Command cachectl maintains the content cache file and issues admin tokens.
// The bolt file is locked by a running API, so cache commands are meant for
// deploy hooks and stopped instances; use the admin API otherwise.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/stemacademy/site-api/config"
	"github.com/stemacademy/site-api/internal/cache"
	"github.com/stemacademy/site-api/pkg/jwt"
	"github.com/stemacademy/site-api/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	cfg       *config.Config
	cachePath string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "cachectl",
		Short:         "Content cache maintenance for the STEM site API",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			a.cfg = cfg
			if a.cachePath == "" {
				a.cachePath = cfg.Cache.Path
			}
			return logger.Initialize(logger.Config{
				Level:       cfg.Logging.Level,
				ServiceName: "stem-site-cachectl",
				Environment: cfg.Server.AppEnv,
			})
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&a.cachePath, "cache-path", "", "bolt cache file (defaults to CACHE_PATH)")

	root.AddCommand(
		a.listCmd(),
		a.clearCmd(),
		a.purgeExpiredCmd(),
		a.tokenCmd(),
	)
	return root
}

// openStore opens the bolt file directly so open errors are reported
func (a *app) openStore() (*cache.Store, error) {
	storage, err := cache.OpenBoltStorage(a.cachePath, a.cfg.Cache.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache %s: %w", a.cachePath, err)
	}
	return cache.NewStore(storage, cache.WithPrefix(a.cfg.Cache.KeyPrefix), cache.WithName("cachectl")), nil
}

func (a *app) listCmd() *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached content keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			stats := store.Stats()
			out := cmd.OutOrStdout()
			for _, key := range store.Keys() {
				if strings.HasPrefix(key, prefix) {
					fmt.Fprintln(out, key)
				}
			}
			fmt.Fprintf(out, "%d entries, %d expired\n", stats.Entries, stats.Expired)
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "only show keys starting with prefix, e.g. /api/blog-content")
	return cmd
}

func (a *app) clearCmd() *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached content",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			var removed int
			if prefix == "" {
				removed = store.ClearAll()
			} else {
				removed = store.RemovePrefix(prefix)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries\n", removed)
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "only remove keys starting with prefix")
	return cmd
}

func (a *app) purgeExpiredCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-expired",
		Short: "Remove cache entries past their lifetime",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			removed := store.ClearExpired()
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired entries\n", removed)
			return nil
		},
	}
}

func (a *app) tokenCmd() *cobra.Command {
	var (
		email string
		name  string
		role  string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an admin API token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.AdminAuthEnabled() {
				return fmt.Errorf("JWT_SECRET is not configured")
			}
			tm := jwt.NewTokenManager(a.cfg.Auth.JWTSecret, a.cfg.Auth.JWTIssuer, a.cfg.Auth.TokenTTLHours)
			token, err := tm.GenerateToken(email, name, role)
			if err != nil {
				return err
			}

			logger.Info("Admin token issued",
				zap.String("email", email),
				zap.String("role", role),
				zap.Time("expires_at", time.Now().Add(tm.GetExpirationTime())))
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "editor email recorded in the token")
	cmd.Flags().StringVar(&name, "name", "", "editor display name")
	cmd.Flags().StringVar(&role, "role", jwt.RoleEditor, "admin or editor")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
