package cli

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/primdata/dmt/pkg/retrieval"
)

func NewRetrieveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retrieve",
		Short: "Manage tape retrieval requests",
	}

	cmd.AddCommand(newRetrieveSizeCommand())
	cmd.AddCommand(newRetrieveSpansCommand())
	cmd.AddCommand(newRetrieveCreateCommand())

	return cmd
}

func newRetrieveSizeCommand() *cobra.Command {
	var startYear, endYear int
	var onlineOnly, offlineOnly bool

	cmd := &cobra.Command{
		Use:   "size <data-request-id>...",
		Short: "Report the volume of data a retrieval would cover",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			c, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			size, err := retrieval.NewService(c.st, c.log).RequestSize(ctx, ids, startYear, endYear, retrieval.Filter{
				OnlineOnly:  onlineOnly,
				OfflineOnly: offlineOnly,
			})
			if err != nil {
				return err
			}

			fmt.Printf("%s (%d bytes)\n", humanize.IBytes(uint64(size)), size)
			return nil
		},
	}

	cmd.Flags().IntVar(&startYear, "start-year", 0, "First year of the period to cover")
	cmd.Flags().IntVar(&endYear, "end-year", 0, "Last year of the period to cover")
	cmd.Flags().BoolVar(&onlineOnly, "online", false, "Count only files currently on disk")
	cmd.Flags().BoolVar(&offlineOnly, "offline", false, "Count only files currently on tape")
	cmd.MarkFlagRequired("start-year")
	cmd.MarkFlagRequired("end-year")

	return cmd
}

func newRetrieveSpansCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "spans <data-request-id>",
		Short: "List the directories a data request's files occupy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid data request id %q: %w", args[0], err)
			}

			ctx := cmd.Context()
			c, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			usage, err := retrieval.NewService(c.st, c.log).DirectoriesSpanned(ctx, uint(id))
			if err != nil {
				return err
			}

			for _, dir := range usage {
				fmt.Printf("%s  %d files  %s\n", dir.DirName, dir.NumFiles, humanize.IBytes(uint64(dir.DirSize)))
			}
			return nil
		},
	}
}

func newRetrieveCreateCommand() *cobra.Command {
	var requester string
	var startYear, endYear int

	cmd := &cobra.Command{
		Use:   "create <data-request-id>...",
		Short: "Create a retrieval request for the agent to action",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			c, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			req, err := retrieval.NewService(c.st, c.log).CreateRequest(ctx, requester, ids, startYear, endYear)
			if err != nil {
				return err
			}

			fmt.Printf("Created retrieval request %d\n", req.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&requester, "requester", "", "Name of the person requesting the data")
	cmd.Flags().IntVar(&startYear, "start-year", 0, "First year of the period to retrieve")
	cmd.Flags().IntVar(&endYear, "end-year", 0, "Last year of the period to retrieve")
	cmd.MarkFlagRequired("requester")
	cmd.MarkFlagRequired("start-year")
	cmd.MarkFlagRequired("end-year")

	return cmd
}

func parseIDs(args []string) ([]uint, error) {
	ids := make([]uint, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseUint(arg, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid data request id %q: %w", arg, err)
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}
