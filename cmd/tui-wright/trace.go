package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func traceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Record an asciicast transcript of a session",
	}
	cmd.AddCommand(traceStartCmd(), traceStopCmd(), traceMarkerCmd())
	return cmd
}

func traceStartCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "start SESSION",
		Short: "Begin recording SESSION's transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := clientFor(ctx, args[0])
			if err != nil {
				return err
			}

			if output == "" {
				output = filepath.Join(loadConfig().TraceDir, "tui-wright-"+args[0]+".cast")
			} else if abs, err := filepath.Abs(output); err == nil {
				output = abs
			}

			resp, err := c.TraceStart(ctx, output)
			if err != nil {
				return err
			}
			if !resp.OK {
				return fmt.Errorf("%s: %s", resp.Error, resp.Message)
			}
			fmt.Println(resp.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", "", "transcript path (defaults to the configured trace dir)")
	return cmd
}

func traceStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop SESSION",
		Short: "Finalize SESSION's active transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := clientFor(ctx, args[0])
			if err != nil {
				return err
			}
			resp, err := c.TraceStop(ctx)
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

func traceMarkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "marker SESSION LABEL",
		Short: "Record a labeled marker on SESSION's active transcript",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := clientFor(ctx, args[0])
			if err != nil {
				return err
			}
			resp, err := c.TraceMarker(ctx, args[1])
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
