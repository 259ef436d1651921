package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/primdata/dmt/pkg/db/models"
	"github.com/primdata/dmt/pkg/replace"
)

func NewReplaceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "replace <file-name>...",
		Short: "Move files into the replacement ledger",
		Long:  "Removes the named files from the live catalogue and records them in the replacement ledger so a corrected upload can take their place.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			files := make([]models.DataFile, 0, len(args))
			for _, name := range args {
				file, err := c.st.GetDataFileByName(ctx, name)
				if err != nil {
					return fmt.Errorf("failed to find %s: %w", name, err)
				}
				files = append(files, *file)
			}

			if err := replace.NewService(c.cfg, c.st, c.log).ReplaceFiles(ctx, files); err != nil {
				return err
			}

			fmt.Printf("Replaced %d file(s)\n", len(files))
			return nil
		},
	}
}

func NewRestoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file-name>...",
		Short: "Restore files from the replacement ledger",
		Long:  "Re-creates catalogue records for previously replaced files. The restored files are marked offline until retrieved from tape.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			replaced, err := c.st.ListReplacedFilesByNames(ctx, args)
			if err != nil {
				return err
			}
			if len(replaced) == 0 {
				return fmt.Errorf("no ledger entries found for the given names")
			}

			if err := replace.NewService(c.cfg, c.st, c.log).RestoreFiles(ctx, replaced); err != nil {
				return err
			}

			fmt.Printf("Restored %d file(s)\n", len(replaced))
			return nil
		},
	}
}
