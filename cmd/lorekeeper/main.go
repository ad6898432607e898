package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath string
	debug      bool

	logLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	logger   = zap.NewNop()
)

func main() {
	root := &cobra.Command{
		Use:           "lorekeeper",
		Short:         "World info engine for roleplay chats",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", "lorekeeper.yaml", "Path to the project config")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	root.AddCommand(initCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(activateCmd())
	root.AddCommand(worldCmd())
	root.AddCommand(entryCmd())
	root.AddCommand(importCmd())
	root.AddCommand(exportCmd())
	root.AddCommand(ingestCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setupLogger writes JSON logs to stderr so stdout stays clean for command
// output and the MCP transport.
func setupLogger() error {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	if debug {
		logLevel.SetLevel(zapcore.DebugLevel)
	}
	cfg.Level = logLevel

	built, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	logger = built
	return nil
}

// applyLogLevel adopts the config's log level unless --debug was given.
func applyLogLevel(level string) {
	if debug || level == "" {
		return
	}
	var parsed zapcore.Level
	if err := parsed.UnmarshalText([]byte(level)); err != nil {
		logger.Warn("ignoring log level", zap.String("level", level), zap.Error(err))
		return
	}
	logLevel.SetLevel(parsed)
}
