package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/primdata/dmt/internal/agent"
	"github.com/primdata/dmt/internal/config"
)

func NewAgentCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "agent",
		Short: "Run the data management agent",
		Long:  "Runs the long-lived daemon that polls for pending tape retrievals and watches the drop directory for submission documents.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			return agent.NewAgent(cfg).Serve(context.Background())
		},
	}
}
