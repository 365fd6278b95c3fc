// Package cmd provides the CLI commands.
//
// Running the binary with no arguments opens the interactive terminal
// interface. Subcommands expose the chat store for scripting: listing,
// showing, searching, and deleting conversations.
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/NitinBot001/claude-interface/internal/chat"
	"github.com/NitinBot001/claude-interface/internal/config"
	"github.com/NitinBot001/claude-interface/internal/log"
	"github.com/NitinBot001/claude-interface/internal/store"
	"github.com/NitinBot001/claude-interface/internal/stream"
	"github.com/NitinBot001/claude-interface/internal/tui"
)

var rootCmd = &cobra.Command{
	Use:   "claude-interface",
	Short: "Terminal interface for branching AI conversations",
	Long: `claude-interface is a terminal client for AI conversations with
message branching: edit any message to fork an alternative version,
regenerate responses in place, and navigate between versions without
losing any history. Conversations persist in a local SQLite database.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func runTUI() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// The alternate screen owns the terminal, so logs go to a file when
	// configured and are discarded otherwise.
	var logW io.Writer = io.Discard
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logW = f
	}
	logger := log.NewWithWriter(logW, log.Config{
		Level: log.ParseLevel(cfg.LogLevel),
		JSON:  cfg.LogJSON,
	})

	st, err := store.Open(cfg.DatabasePath, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	producer, err := stream.NewClient(cfg.APIBaseURL, cfg.APIKey, logger)
	if err != nil {
		return err
	}

	svc, err := chat.New(chat.Config{
		Store:    st,
		Producer: producer,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	return tui.Run(svc, cfg, logger)
}

// openStore loads config and opens the database for the non-interactive
// subcommands, which log to stderr.
func openStore() (*store.Store, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger := log.NewWithWriter(os.Stderr, log.Config{
		Level: log.ParseLevel(cfg.LogLevel),
		JSON:  cfg.LogJSON,
	})
	st, err := store.Open(cfg.DatabasePath, logger)
	if err != nil {
		return nil, nil, err
	}
	return st, cfg, nil
}
