package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/primdata/dmt/pkg/attrupdate"
	"github.com/primdata/dmt/pkg/relocate"
)

func NewUpdateCommand() *cobra.Command {
	var fileOnly bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Correct a global attribute on a file",
		Long:  "Rewrites a netCDF global attribute, renames and relocates the file to match, refreshes its checksum and brings the catalogue in line.",
	}

	cmd.PersistentFlags().BoolVar(&fileOnly, "file-only", false, "Apply the physical changes but leave the catalogue untouched")

	cmd.AddCommand(newUpdateStrategyCommand("source-id <file-name> <new-source-id>",
		"Change a file's source_id attribute",
		&fileOnly, func(args []string) attrupdate.Strategy {
			return attrupdate.SourceIDUpdate{NewValue: args[1]}
		}))
	cmd.AddCommand(newUpdateStrategyCommand("variant-label <file-name> <new-variant-label>",
		"Change a file's variant_label attribute and its index attributes",
		&fileOnly, func(args []string) attrupdate.Strategy {
			return attrupdate.VariantLabelUpdate{NewValue: args[1]}
		}))
	cmd.AddCommand(newUpdateStrategyCommand("mip-era <file-name> <new-mip-era>",
		"Change a file's mip_era attribute",
		&fileOnly, func(args []string) attrupdate.Strategy {
			return attrupdate.MipEraUpdate{NewValue: args[1]}
		}))

	outName := newUpdateStrategyCommand("out-name <file-name>",
		"Rename a file's variable from its CMOR name to its output name",
		&fileOnly, func(args []string) attrupdate.Strategy {
			return attrupdate.VarNameToOutNameUpdate{}
		})
	outName.Args = cobra.ExactArgs(1)
	cmd.AddCommand(outName)

	return cmd
}

func newUpdateStrategyCommand(use, short string, fileOnly *bool, build func(args []string) attrupdate.Strategy) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
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

			updater := attrupdate.NewUpdater(c.cfg, c.st,
				relocate.NewEngine(c.cfg, c.st, c.log),
				attrupdate.ExecRunner{}, c.log)

			op, err := updater.Update(ctx, file, build(args), *fileOnly)
			if err != nil {
				return err
			}

			fmt.Printf("Update %s completed %d step(s)\n", op.ID, len(op.Steps))
			return nil
		},
	}
}
