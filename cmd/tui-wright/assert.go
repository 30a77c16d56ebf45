package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ehrlich-b/tui-wright/internal/emulator"
	"github.com/spf13/cobra"
)

func waitforCmd() *cobra.Command {
	var timeoutMS int

	cmd := &cobra.Command{
		Use:   "waitfor SESSION TEXT",
		Short: "Block until TEXT appears on screen, or timeout",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := clientFor(ctx, args[0])
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("timeout") {
				if cfgTimeout := loadConfig().DefaultWaitTimeout; cfgTimeout > 0 {
					timeoutMS = cfgTimeout
				}
			}
			timeout := time.Duration(timeoutMS) * time.Millisecond
			resp, err := c.WaitFor(ctx, args[1], timeout)
			if err != nil {
				return err
			}
			if !resp.OK {
				fmt.Fprintln(os.Stderr, resp.Message)
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&timeoutMS, "timeout", 5000, "timeout in milliseconds")
	return cmd
}

func assertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assert SESSION TEXT",
		Short: "Check TEXT is present on screen right now",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := clientFor(ctx, args[0])
			if err != nil {
				return err
			}

			resp, err := c.Assert(ctx, args[1])
			if err != nil {
				return err
			}
			if !resp.Found {
				fmt.Fprintf(os.Stderr, "assertion failed: %q not found on screen\n", args[1])
				os.Exit(1)
			}
			return nil
		},
	}
}

func snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save or diff a session's screen grid",
	}
	cmd.AddCommand(snapshotSaveCmd(), snapshotDiffCmd())
	return cmd
}

func snapshotSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save SESSION FILE",
		Short: "Save the session's current grid to FILE as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := clientFor(ctx, args[0])
			if err != nil {
				return err
			}

			resp, err := c.Screen(ctx, "json")
			if err != nil {
				return err
			}
			if !resp.OK {
				return fmt.Errorf("%s: %s", resp.Error, resp.Message)
			}

			data, err := json.MarshalIndent(resp.Grid, "", "  ")
			if err != nil {
				return err
			}
			return os.WriteFile(args[1], data, 0644)
		},
	}
}

func snapshotDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff SESSION FILE",
		Short: "Diff the session's current grid against a saved baseline",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read baseline: %w", err)
			}
			var baseline emulator.Grid
			if err := json.Unmarshal(data, &baseline); err != nil {
				return fmt.Errorf("parse baseline: %w", err)
			}

			ctx := cmd.Context()
			c, err := clientFor(ctx, args[0])
			if err != nil {
				return err
			}

			resp, err := c.SnapshotDiff(ctx, &baseline)
			if err != nil {
				return err
			}
			if !resp.OK {
				return fmt.Errorf("%s: %s", resp.Error, resp.Message)
			}

			out, err := json.MarshalIndent(resp.Diff, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))

			if !resp.Diff.Identical {
				os.Exit(1)
			}
			return nil
		},
	}
}
