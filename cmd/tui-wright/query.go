package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func screenCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "screen SESSION",
		Short: "Print the session's current screen",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := clientFor(ctx, args[0])
			if err != nil {
				return err
			}

			format := ""
			if asJSON {
				format = "json"
			}
			resp, err := c.Screen(ctx, format)
			if err != nil {
				return err
			}
			if !resp.OK {
				return fmt.Errorf("%s: %s", resp.Error, resp.Message)
			}

			if asJSON {
				data, err := json.Marshal(resp.Grid)
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}
			fmt.Print(resp.Text)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the grid as JSON instead of plain text")
	return cmd
}

func cursorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cursor SESSION",
		Short: "Print the session's cursor position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := clientFor(ctx, args[0])
			if err != nil {
				return err
			}
			resp, err := c.Cursor(ctx)
			if err != nil {
				return err
			}
			if !resp.OK {
				return fmt.Errorf("%s: %s", resp.Error, resp.Message)
			}
			fmt.Printf("row=%d col=%d\n", resp.Row, resp.Col)
			return nil
		},
	}
}
