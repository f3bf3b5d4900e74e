package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/Olprog59/go-deliverables/internal/app"
	"github.com/Olprog59/go-deliverables/internal/config"
	"github.com/Olprog59/go-deliverables/internal/domain"
	"github.com/Olprog59/go-deliverables/internal/logging"
	"github.com/Olprog59/go-deliverables/internal/service"
	"github.com/spf13/cobra"
)

// deliverableService is what the commands need from the service layer.
type deliverableService interface {
	Search(ctx context.Context, query string) service.ListResult
	Find(ctx context.Context, id string) (domain.Deliverable, bool)
	Create(ctx context.Context, in domain.DeliverableInput) service.Outcome
	Update(ctx context.Context, id string, in domain.DeliverableInput) service.Outcome
	Delete(ctx context.Context, id string) service.Outcome
}

// opener builds the service for one command run; close releases the backend.
type opener func(ctx context.Context, configDir string) (svc deliverableService, close func(), err error)

// openContainer loads the configuration and wires the real backend.
func openContainer(ctx context.Context, configDir string) (deliverableService, func(), error) {
	cfg, err := config.LoadConfigFrom(configDir)
	if err != nil {
		return nil, nil, err
	}

	// Commands print their own results: only warnings go to stderr
	level := max(logging.ParseLevel(cfg.Logging.Level), slog.LevelWarn)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	container, err := app.NewContainer(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return container.Service, func() { _ = container.Close() }, nil
}

type rootOptions struct {
	configDir string
	timeout   time.Duration
	open      opener
}

// run opens the service, runs fn with it and closes it.
func (o *rootOptions) run(cmd *cobra.Command, fn func(ctx context.Context, svc deliverableService) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
	defer cancel()

	svc, closeFn, err := o.open(ctx, o.configDir)
	if err != nil {
		return err
	}
	defer closeFn()

	return fn(ctx, svc)
}

func newRootCmd(open opener) *cobra.Command {
	opts := &rootOptions{open: open}

	root := &cobra.Command{
		Use:   "deliverablectl",
		Short: "Browse and edit product/topic deliverables",
		Long: `deliverablectl reads and writes the deliverables table through the
configured backend (hosted Supabase service or a SQL database).

Configuration comes from config.yaml and APP_* / SUPABASE_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configDir, "config-dir", ".", "directory holding config.yaml")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "deadline for the whole command")

	root.AddCommand(
		newListCmd(opts),
		newShowCmd(opts),
		newAddCmd(opts),
		newUpdateCmd(opts),
		newDeleteCmd(opts),
	)
	return root
}
