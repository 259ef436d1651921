package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/primdata/dmt/pkg/db/migrations"
)

func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			return migrations.NewMigrator(c.st.DB()).Migrate(ctx)
		},
	}

	cmd.AddCommand(newMigrateStatusCommand())
	cmd.AddCommand(newMigrateRollbackCommand())

	return cmd
}

func newMigrateStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the state of each migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			statuses, err := migrations.NewMigrator(c.st.DB()).Status(ctx)
			if err != nil {
				return err
			}

			for _, status := range statuses {
				state := "pending"
				if status.Applied {
					state = "applied"
				}
				fmt.Printf("%4d  %-8s  %s\n", status.Version, state, status.Description)
			}
			return nil
		},
	}
}

func newMigrateRollbackCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rollback",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			return migrations.NewMigrator(c.st.DB()).Rollback(ctx)
		},
	}
}
