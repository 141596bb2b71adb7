package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/askcup/internal/answer"
	"github.com/ppiankov/askcup/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the question page as a local web UI",
	Long: `Serve starts a web server with the question page:
- a question input with sample question shortcuts
- a loading indicator while the answer service works
- the answer with its source chips, or an error banner

Each browser gets its own page state, kept for the session TTL.

Example:
  askcup serve
  askcup serve --addr :3000 --backend http://localhost:8000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default 127.0.0.1:3000)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = "127.0.0.1:3000"
	}

	client, err := answer.NewClient(cfg.AnswerService)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := web.NewServer(ctx, cfg.Server, client, client.FailureMessage())
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Question page available at http://%s (backend %s)\n", cfg.Server.Addr, client.BaseURL())
	return srv.Run(ctx)
}
