package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/askcup/internal/answer"
)

var healthTimeout time.Duration

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the answer service is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		client, err := answer.NewClient(cfg.AnswerService)
		if err != nil {
			return fmt.Errorf("create client: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
		defer cancel()

		status, err := client.Health(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", client.FailureMessage(), err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", client.BaseURL(), status)
		if !status.OK() {
			return fmt.Errorf("answer service reported status %q", status.Status)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
	healthCmd.Flags().DurationVar(&healthTimeout, "timeout", 5*time.Second, "request timeout")
}
