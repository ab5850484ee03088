package cli

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"course-quiz-service/internal/app"
	"course-quiz-service/internal/config"
)

// NewReconcileCmd repairs users missing a completed course they have a response for.
func NewReconcileCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Add missing course completions left by failed best-effort submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd.Context(), *configPath)
		},
	}
}

func runReconcile(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	backend, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	repaired, err := app.NewSubmissionWriter(backend, backend, app.ModeBestEffort).Reconcile(ctx)
	log.Printf("reconciled %d completions", repaired)
	return err
}
