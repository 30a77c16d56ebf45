package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/ehrlich-b/tui-wright/internal/socketpath"
	"github.com/spf13/cobra"
)

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List live sessions by scanning and probing the socket directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			ids, err := socketpath.List(cfg.SocketDir)
			if err != nil {
				return fmt.Errorf("scan socket dir: %w", err)
			}

			if len(ids) == 0 {
				fmt.Println("no sessions")
				return nil
			}

			ctx := cmd.Context()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDIMS\tAGE\tSTATUS")
			for _, id := range ids {
				row := probeSession(ctx, cfg.SocketDir, id)
				fmt.Fprintln(w, row)
			}
			return w.Flush()
		},
	}
}

func probeSession(ctx context.Context, socketDir, id string) string {
	path := socketpath.For(socketDir, id)

	age := "?"
	if info, err := os.Stat(path); err == nil {
		age = humanize.Time(info.ModTime())
	}

	c, err := clientFor(ctx, id)
	if err != nil {
		return fmt.Sprintf("%s\t?\t%s\tunreachable", id, age)
	}

	resp, err := c.Screen(ctx, "json")
	if err != nil || !resp.OK || resp.Grid == nil {
		return fmt.Sprintf("%s\t?\t%s\tunresponsive", id, age)
	}

	return fmt.Sprintf("%s\t%dx%d\t%s\tlive", id, resp.Grid.Cols, resp.Grid.Rows, age)
}

func killCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kill SESSION",
		Short: "Terminate a session and remove its socket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := clientFor(ctx, args[0])
			if err != nil {
				return err
			}
			resp, err := c.Kill(ctx)
			if err != nil {
				return err
			}
			if !resp.OK {
				return fmt.Errorf("%s: %s", resp.Error, resp.Message)
			}
			return nil
		},
	}
}
