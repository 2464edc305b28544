// taskvault: persistent task-context knowledge store, exposed as an MCP
// server over stdio.
//
// Usage:
//
//	taskvault serve      # Start MCP server (stdio transport)
//	taskvault version    # Print version
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mcruz/taskvault/internal/config"
	tvserver "github.com/mcruz/taskvault/internal/server"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "taskvault",
	Short: "Persistent knowledge store for reusable task guidance",
	Long: `taskvault stores reusable task contexts and their artifacts
(practices, rules, prompts, results) in SQLite with full-text search,
and serves them to AI agents over the Model Context Protocol.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server (stdio transport)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}

		log := newLogger(cfg.LogLevel)

		s, cleanup, err := tvserver.New(cfg, log)
		if err != nil {
			return fmt.Errorf("creating server: %w", err)
		}
		defer cleanup()

		// Close the store cleanly on interrupt. ServeStdio exits when
		// stdin closes; the signal path covers direct termination.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigCh
			log.Info().Msg("shutting down")
			cleanup()
			os.Exit(0)
		}()

		return server.ServeStdio(s)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the taskvault version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("taskvault v%s\n", tvserver.Version)
	},
}

// newLogger builds the process logger. All output goes to stderr:
// stdout belongs to the MCP stdio transport.
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
