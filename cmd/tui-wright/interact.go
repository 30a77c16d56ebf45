package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func typeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "type SESSION TEXT",
		Short: "Type literal text into the session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := clientFor(ctx, args[0])
			if err != nil {
				return err
			}
			resp, err := c.Type(ctx, args[1])
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

func keyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "key SESSION NAME",
		Short: "Send a named key to the session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := clientFor(ctx, args[0])
			if err != nil {
				return err
			}
			resp, err := c.Key(ctx, args[1])
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

func mouseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mouse SESSION ACTION COL ROW",
		Short: "Send a mouse event to the session",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			col, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid col %q: %w", args[2], err)
			}
			row, err := strconv.Atoi(args[3])
			if err != nil {
				return fmt.Errorf("invalid row %q: %w", args[3], err)
			}

			ctx := cmd.Context()
			c, err := clientFor(ctx, args[0])
			if err != nil {
				return err
			}
			resp, err := c.Mouse(ctx, args[1], col, row)
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

func resizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resize SESSION COLS ROWS",
		Short: "Resize the session's terminal",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cols, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid cols %q: %w", args[1], err)
			}
			rows, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid rows %q: %w", args[2], err)
			}

			ctx := cmd.Context()
			c, err := clientFor(ctx, args[0])
			if err != nil {
				return err
			}
			resp, err := c.Resize(ctx, cols, rows)
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
