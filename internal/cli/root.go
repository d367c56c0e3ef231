// Package cli provides the command-line interface for the timing bot.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"btc-timing-bot/internal/config"
	"btc-timing-bot/internal/logging"
)

// Version information, set at build time with -ldflags.
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
)

const (
	// annotationSkipConfig marks commands that run without loading config.
	annotationSkipConfig = "skip-config"
	// annotationLenientConfig marks commands that report invalid config
	// instead of failing before they run.
	annotationLenientConfig = "lenient-config"
)

// App holds the application dependencies.
type App struct {
	ConfigDir string
	Config    *config.Config
	ConfigErr error
	Logger    zerolog.Logger
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd() *cobra.Command {
	app := &App{Logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "btcbot",
		Short: "Bitcoin market-timing bot",
		Long: `btcbot watches the bitcoin price, derives technical indicators and news
sentiment, and turns them into buy/sell conviction scores and a trading action.

Significant changes are pushed to Telegram or a webhook.

Use 'btcbot run' to start monitoring and 'btcbot evaluate <file>' to score a
saved price window offline.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/btc-timing-bot)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newRunCmd(app))
	rootCmd.AddCommand(newEvaluateCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))

	return rootCmd
}

func (app *App) setup(cmd *cobra.Command) error {
	app.ConfigDir, _ = cmd.Flags().GetString("config")
	if app.ConfigDir == "" {
		app.ConfigDir = config.DefaultConfigDir()
	}
	if cmd.Annotations[annotationSkipConfig] == "true" {
		return nil
	}

	if cmd.Annotations[annotationLenientConfig] == "true" {
		cfg, err := config.Read(app.ConfigDir)
		if err != nil {
			return err
		}
		app.Config = cfg
		app.ConfigErr = cfg.Validate()
	} else {
		cfg, err := config.Load(app.ConfigDir)
		if err != nil {
			return err
		}
		app.Config = cfg
	}

	jsonMode, _ := cmd.Flags().GetBool("json")
	logCfg := logging.DefaultLogConfig()
	logCfg.Level = app.Config.Logging.Level
	logCfg.File = app.Config.Logging.File
	logCfg.FilePath = app.Config.Logging.FilePath
	// JSON output owns stdout.
	logCfg.Console = !jsonMode
	if logCfg.Console || logCfg.File {
		app.Logger = logging.NewLoggerWithConfig(logCfg)
	}

	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		logging.SetDebugLevel()
		app.Logger = app.Logger.Level(zerolog.DebugLevel)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Annotations: map[string]string{annotationSkipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("btcbot v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}
