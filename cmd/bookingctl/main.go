package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"booking-requests-api/internal/config"
	"booking-requests-api/internal/logging"
	"booking-requests-api/internal/store"
)

// App holds what every command needs.
type App struct {
	pool   *pgxpool.Pool
	store  *store.Store
	logger *zap.Logger
	ctx    context.Context
}

var (
	env         string
	databaseURL string
	app         *App
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bookingctl",
		Short: "Administer the booking requests service",
		Long:  `Run migrations, create administrators, seed demo data and print request statistics.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app == nil {
				return
			}
			app.pool.Close()
			app.logger.Sync()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, production, test)")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "PostgreSQL URL (default $DATABASE_URL)")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(createAdminCmd())
	rootCmd.AddCommand(seedDemoCmd())
	rootCmd.AddCommand(statsCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// initApp sets up the logger and the database pool
func initApp(ctx context.Context) error {
	logger, err := logging.New(env, "")
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if databaseURL == "" {
		databaseURL = config.DatabaseURL()
	}
	pool, err := store.Open(ctx, databaseURL)
	if err != nil {
		return err
	}
	logger.Debug("connected to postgres")

	app = &App{pool: pool, store: store.New(pool), logger: logger, ctx: ctx}
	return nil
}
