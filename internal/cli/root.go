package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/askcup/internal/logging"
	"github.com/ppiankov/askcup/internal/model"
)

const version = "askcup v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "askcup",
	Short: "askcup - ask questions about FIFA World Cup history",
	Long: `askcup is a client for a World Cup question-answering service.

It sends a question to the answer service (POST /ask), then shows the
answer together with the matches, tournaments and team records the
service cited as sources.

Use it from the terminal (ask, batch) or run the web page (serve).`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		level := cfg.Log.Level
		if verbose {
			level = "debug"
		}
		logging.Init(os.Stderr, level, cfg.Log.Format)
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of askcup.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.askcup/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("backend", "", "answer service base URL (default http://localhost:8000)")
	rootCmd.PersistentFlags().Int("n-results", 0, "number of sources the answer service should retrieve (default 5)")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("answer_service.base_url", rootCmd.PersistentFlags().Lookup("backend"))
	_ = viper.BindPFlag("answer_service.n_results", rootCmd.PersistentFlags().Lookup("n-results"))

	setDefaults(viper.GetViper(), model.DefaultConfig())

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(home + "/.askcup")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match ASKCUP_*, e.g.
	// ASKCUP_ANSWER_SERVICE_BASE_URL
	viper.SetEnvPrefix("ASKCUP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every config key so env vars and files can override it
func setDefaults(v *viper.Viper, d model.Config) {
	v.SetDefault("answer_service.base_url", d.AnswerService.BaseURL)
	v.SetDefault("answer_service.n_results", d.AnswerService.NResults)
	v.SetDefault("answer_service.timeout", d.AnswerService.Timeout)
	v.SetDefault("answer_service.max_body_bytes", d.AnswerService.MaxBodyBytes)
	v.SetDefault("answer_service.user_agent", d.AnswerService.UserAgent)
	v.SetDefault("answer_service.http_proxy", d.AnswerService.HTTPProxy)
	v.SetDefault("answer_service.https_proxy", d.AnswerService.HTTPSProxy)
	v.SetDefault("answer_service.no_proxy", d.AnswerService.NoProxy)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.session_ttl", d.Server.SessionTTL)
	v.SetDefault("server.rate_limit_rps", d.Server.RateLimitRPS)
	v.SetDefault("server.rate_limit_burst", d.Server.RateLimitBurst)
	v.SetDefault("server.refresh_seconds", d.Server.RefreshSeconds)
	v.SetDefault("server.trusted_proxies", d.Server.TrustedProxies)

	v.SetDefault("batch.concurrency", d.Batch.Concurrency)
	v.SetDefault("batch.requests_per_second", d.Batch.RequestsPerSecond)
	v.SetDefault("batch.burst", d.Batch.Burst)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// loadConfig resolves flags, env, config file and defaults into a Config
func loadConfig() (model.Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}

	// Unset flags bind as zero values; keep the defaults for those.
	d := model.DefaultConfig()
	if cfg.AnswerService.BaseURL == "" {
		cfg.AnswerService.BaseURL = d.AnswerService.BaseURL
	}
	if cfg.AnswerService.NResults == 0 {
		cfg.AnswerService.NResults = d.AnswerService.NResults
	}

	if err := cfg.AnswerService.Validate(); err != nil {
		return cfg, fmt.Errorf("answer_service: %w", err)
	}
	return cfg, nil
}
