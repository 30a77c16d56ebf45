// Command tui-wright drives arbitrary terminal programs under a PTY,
// exposing each running session over a local Unix socket so a test
// suite can script keystrokes, mice, and resizes against it and assert
// on the resulting screen.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ehrlich-b/tui-wright/internal/client"
	"github.com/ehrlich-b/tui-wright/internal/config"
	"github.com/ehrlich-b/tui-wright/internal/logger"
	"github.com/ehrlich-b/tui-wright/internal/socketpath"
	"github.com/spf13/cobra"
)

var (
	logLevelFlag  string
	logFileFlag   string
	socketDirFlag string
)

func main() {
	// The re-exec'd detached daemon side never goes through cobra: argv[1]
	// is the internal marker daemonize.Start's caller constructed, not a
	// verb a user would type.
	if len(os.Args) > 1 && os.Args[1] == daemonMarkerArg {
		runDaemonChild(os.Args[2:])
		return
	}

	root := &cobra.Command{
		Use:           "tui-wright",
		Short:         "tui-wright — a Playwright-style harness for terminal UIs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			level, file := cfg.LogLevel, cfg.LogFile
			if cmd.Flags().Changed("log-level") {
				level = logLevelFlag
			}
			if cmd.Flags().Changed("log-file") {
				file = logFileFlag
			}
			return logger.Init(level, file)
		},
	}

	root.PersistentFlags().StringVar(&logLevelFlag, "log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&logFileFlag, "log-file", "", "also write logs to this file")
	root.PersistentFlags().StringVar(&socketDirFlag, "socket-dir", "", "directory holding session sockets (defaults to $TMPDIR)")

	root.AddCommand(
		spawnCmd(),
		runCmd(),
		screenCmd(),
		cursorCmd(),
		typeCmd(),
		keyCmd(),
		mouseCmd(),
		resizeCmd(),
		waitforCmd(),
		assertCmd(),
		killCmd(),
		listCmd(),
		snapshotCmd(),
		traceCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig() config.Config {
	cfg := config.Defaults()
	dir, err := config.GetUserConfigDir()
	if err == nil {
		if loaded, err := config.Load(dir); err == nil {
			cfg = loaded
		}
	}
	if socketDirFlag != "" {
		cfg.SocketDir = socketDirFlag
	}
	return cfg
}

func clientFor(ctx context.Context, sessionID string) (*client.Client, error) {
	cfg := loadConfig()
	path := socketpath.For(cfg.SocketDir, sessionID)
	c, err := client.Dial(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("session %q not reachable: %w", sessionID, err)
	}
	return c, nil
}

