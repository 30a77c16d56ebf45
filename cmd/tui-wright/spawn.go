package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ehrlich-b/tui-wright/internal/config"
	"github.com/ehrlich-b/tui-wright/internal/daemonize"
	"github.com/ehrlich-b/tui-wright/internal/logger"
	"github.com/ehrlich-b/tui-wright/internal/ptyhost"
	"github.com/ehrlich-b/tui-wright/internal/session"
	"github.com/ehrlich-b/tui-wright/internal/sessionid"
	"github.com/ehrlich-b/tui-wright/internal/socketpath"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// daemonMarkerArg is prepended to re-exec'd argv so the daemon side can be
// told apart from a plain `tui-wright spawn` invocation: main checks
// os.Args[1] for it before cobra parses anything. It is independent of the
// environment-variable marker daemonize.IsDetachedChild checks.
const daemonMarkerArg = "__daemon"

// spawnSession starts the detached daemon for a new session and blocks
// until its socket is bound, returning the session id. Unset cols/rows
// default to the invoking terminal's own size when stdout is a tty
// (matching what a real terminal program would expect to inherit), and
// fall back to the configured default otherwise.
func spawnSession(cols, rows int, command []string) (string, error) {
	cfg := loadConfig()
	if cols == 0 || rows == 0 {
		if termCols, termRows, ok := controllingTermSize(); ok {
			if cols == 0 {
				cols = termCols
			}
			if rows == 0 {
				rows = termRows
			}
		}
	}
	if cols == 0 {
		cols = cfg.DefaultCols
	}
	if rows == 0 {
		rows = cfg.DefaultRows
	}

	id := sessionid.New()
	reArgs := append([]string{daemonMarkerArg, id, fmt.Sprintf("%d", cols), fmt.Sprintf("%d", rows)}, command...)

	h, err := daemonize.Start(reArgs, "TMPDIR="+cfg.SocketDir)
	if err != nil {
		return "", fmt.Errorf("spawn daemon: %w", err)
	}
	if err := h.WaitReady(5 * time.Second); err != nil {
		return "", fmt.Errorf("daemon did not come up: %w", err)
	}
	return id, nil
}

// controllingTermSize reports the invoking terminal's dimensions, if
// stdout is in fact a terminal.
func controllingTermSize() (cols, rows int, ok bool) {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0, 0, false
	}
	w, h, err := term.GetSize(fd)
	if err != nil {
		return 0, 0, false
	}
	return w, h, true
}

func spawnCmd() *cobra.Command {
	var cols, rows int

	cmd := &cobra.Command{
		Use:   "spawn COMMAND [ARGS...]",
		Short: "Spawn a terminal program under a new session",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := spawnSession(cols, rows, args)
			if err != nil {
				return err
			}
			fmt.Printf("session %s\n", id)
			return nil
		},
	}

	cmd.Flags().IntVar(&cols, "cols", 0, "terminal width (default: the invoking terminal's width if stdout is a terminal, else config default_cols or 80)")
	cmd.Flags().IntVar(&rows, "rows", 0, "terminal height (default: the invoking terminal's height if stdout is a terminal, else config default_rows or 24)")
	return cmd
}

// runDaemonChild is invoked directly from main() when argv[1] is the
// daemon marker, bypassing cobra entirely: this process is the re-exec'd,
// Setsid-detached grandchild, not a user-facing CLI invocation.
func runDaemonChild(args []string) {
	if len(args) < 4 {
		daemonize.SignalFailure("missing daemon args")
		os.Exit(1)
	}

	id := args[0]
	cols := atoiOrZero(args[1])
	rows := atoiOrZero(args[2])
	command := args[3]
	commandArgs := args[4:]

	cfg := loadConfig()
	logger.Init(cfg.LogLevel, cfg.LogFile)
	log := logger.Session(id)

	if cols <= 0 {
		cols = cfg.DefaultCols
	}
	if rows <= 0 {
		rows = cfg.DefaultRows
	}

	if err := os.Chdir(cfg.SocketDir); err != nil {
		daemonize.SignalFailure("chdir: " + err.Error())
		os.Exit(1)
	}

	host, err := ptyhost.Spawn(command, commandArgs, cols, rows)
	if err != nil {
		daemonize.SignalFailure("spawn pty: " + err.Error())
		os.Exit(1)
	}

	sess := session.New(id, host, cols, rows)
	socketPath := socketpath.For(cfg.SocketDir, id)

	listener, err := session.Bind(socketPath)
	if err != nil {
		daemonize.SignalFailure("bind socket: " + err.Error())
		os.Exit(1)
	}

	d := session.NewDaemon(sess, socketPath, listener, log)

	if err := daemonize.SignalReady(); err != nil {
		log.Error("signal ready", "err", err)
	}

	d.Serve(context.Background())
}

func atoiOrZero(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// runCmd chains spawn with a nudge through whatever banner or prompt the
// program prints on startup. The spec leaves the exact timing to the
// front-end; here it's a fixed settle delay before sending enter, which is
// simple and good enough for shells and most TUIs that don't gate their
// first prompt on stdin.
const runSettleDelay = 250 * time.Millisecond

func runCmd() *cobra.Command {
	var cols, rows int

	cmd := &cobra.Command{
		Use:   "run COMMAND [ARGS...]",
		Short: "Spawn a session, give it a moment to settle, print its id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := spawnSession(cols, rows, args)
			if err != nil {
				return err
			}

			time.Sleep(runSettleDelay)

			ctx := context.Background()
			c, err := clientFor(ctx, id)
			if err == nil {
				c.Key(ctx, "enter")
			}

			fmt.Printf("session %s\n", id)
			return nil
		},
	}

	cmd.Flags().IntVar(&cols, "cols", 0, "terminal width")
	cmd.Flags().IntVar(&rows, "rows", 0, "terminal height")
	return cmd
}
