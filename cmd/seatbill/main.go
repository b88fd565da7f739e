package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/seatbill/internal/audit"
	"github.com/railzwaylabs/seatbill/internal/clock"
	"github.com/railzwaylabs/seatbill/internal/config"
	"github.com/railzwaylabs/seatbill/internal/contract"
	"github.com/railzwaylabs/seatbill/internal/lock"
	"github.com/railzwaylabs/seatbill/internal/migration"
	"github.com/railzwaylabs/seatbill/internal/observability"
	"github.com/railzwaylabs/seatbill/internal/pipeline"
	pipelinedomain "github.com/railzwaylabs/seatbill/internal/pipeline/domain"
	"github.com/railzwaylabs/seatbill/internal/pricing"
	"github.com/railzwaylabs/seatbill/internal/reconciliation"
	"github.com/railzwaylabs/seatbill/internal/redis"
	"github.com/railzwaylabs/seatbill/internal/scheduler"
	"github.com/railzwaylabs/seatbill/internal/server"
	"github.com/railzwaylabs/seatbill/internal/source"
	"github.com/railzwaylabs/seatbill/pkg/db"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "seatbill",
		Short:         "Seat reconciliation and billing",
		Version:       readVersionFromEnv(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newReconcileCmd(), newBatchCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fx.New(
				coreModules(),
				migration.Module,
				server.Module,
				scheduler.Module,
			)
			app.Run()
			return app.Err()
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fx.New(
				config.Module,
				observability.Module,
				fx.WithLogger(zapEventLogger),
				db.Module,
				migration.Module,
			)
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()
			if err := app.Start(ctx); err != nil {
				return fmt.Errorf("migrate failed: %w", err)
			}
			return app.Stop(context.Background())
		},
	}
}

func newReconcileCmd() *cobra.Command {
	var (
		customerID string
		period     string
		actor      string
		rate       float64
	)
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile and price one customer, printing the outcome as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := pipelinedomain.RunRequest{
				CustomerID: customerID,
				Period:     period,
				Actor:      actor,
			}
			if cmd.Flags().Changed("rate") {
				req.UserRate = &rate
			}
			return withPipeline(cmd.Context(), func(ctx context.Context, svc pipelinedomain.Service) error {
				out, err := svc.Run(ctx, req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	cmd.Flags().StringVar(&customerID, "customer", "", "customer id")
	cmd.Flags().StringVar(&period, "period", "", "billing period (YYYY-MM), defaults to the current month")
	cmd.Flags().StringVar(&actor, "actor", "cli", "actor recorded in the run log")
	cmd.Flags().Float64Var(&rate, "rate", 0, "override the contract user rate")
	_ = cmd.MarkFlagRequired("customer")
	return cmd
}

func newBatchCmd() *cobra.Command {
	var (
		customers []string
		period    string
		actor     string
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Summarize a billing period across customers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPipeline(cmd.Context(), func(ctx context.Context, svc pipelinedomain.Service) error {
				summary, err := svc.RunBatch(ctx, pipelinedomain.BatchRequest{
					CustomerIDs: customers,
					Period:      period,
					Actor:       actor,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), summary)
			})
		},
	}
	cmd.Flags().StringSliceVar(&customers, "customer", nil, "customer ids; all stored contracts when omitted")
	cmd.Flags().StringVar(&period, "period", "", "billing period (YYYY-MM), defaults to the current month")
	cmd.Flags().StringVar(&actor, "actor", "cli", "actor recorded in the run log")
	return cmd
}

func coreModules() fx.Option {
	return fx.Options(
		config.Module,
		observability.Module,
		fx.WithLogger(zapEventLogger),
		fx.Provide(registerSnowflake),
		db.Module,
		clock.Module,
		redis.Module,
		lock.Module,
		contract.Module,
		audit.Module,
		source.Module,
		reconciliation.Module,
		pricing.Module,
		pipeline.Module,
	)
}

// withPipeline starts the application without the HTTP server, runs fn and stops.
func withPipeline(ctx context.Context, fn func(context.Context, pipelinedomain.Service) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var svc pipelinedomain.Service
	app := fx.New(
		coreModules(),
		migration.Module,
		fx.Populate(&svc),
	)

	startCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}
	defer func() {
		_ = app.Stop(context.Background())
	}()

	return fn(ctx, svc)
}

func zapEventLogger(log *zap.Logger) fxevent.Logger {
	l := &fxevent.ZapLogger{Logger: log.Named("fx")}
	l.UseLogLevel(zap.DebugLevel)
	return l
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func registerSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

func readVersionFromEnv() string {
	if v := strings.TrimSpace(os.Getenv("SEATBILL_APP_VERSION")); v != "" {
		return v
	}
	return "dev"
}
