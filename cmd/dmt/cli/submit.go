package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/primdata/dmt/pkg/submission"
)

func NewSubmitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "submit <document.yaml>",
		Short: "Ingest a submission document",
		Long:  "Reads a YAML submission document and records its files, checksums and data requests in the metadata store.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			sub, err := submission.NewService(c.st, c.log).IngestFile(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Ingested %s as submission %s\n", args[0], sub.ID)
			return nil
		},
	}
}
