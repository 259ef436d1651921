package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/primdata/dmt/pkg/relocate"
)

func NewRelocateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "relocate <file-name> <new-directory>",
		Short: "Move a file to a new directory",
		Long:  "Moves a file on disk, updates its catalogue record, removes its old directory if emptied and refreshes its published symlink.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			file, err := c.st.GetDataFileByName(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to find %s: %w", args[0], err)
			}

			if err := relocate.NewEngine(c.cfg, c.st, c.log).Relocate(ctx, file, args[1]); err != nil {
				return err
			}

			fmt.Printf("Moved %s to %s\n", file.Name, args[1])
			return nil
		},
	}
}
