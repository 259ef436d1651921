package main

import (
	"fmt"
	"os"

	"github.com/primdata/dmt/cmd/dmt/cli"
)

var (
	version = "0.0.1-dev"
	commit  = "main"
)

func main() {
	root := cli.NewRootCommand(cli.VersionInfo{
		Version: version,
		Commit:  commit,
	})

	root.AddCommand(cli.NewVersionCommand())
	root.AddCommand(cli.NewAgentCommand())
	root.AddCommand(cli.NewConfigCommand())
	root.AddCommand(cli.NewMigrateCommand())
	root.AddCommand(cli.NewSubmitCommand())
	root.AddCommand(cli.NewRetrieveCommand())
	root.AddCommand(cli.NewReplaceCommand())
	root.AddCommand(cli.NewRestoreCommand())
	root.AddCommand(cli.NewUpdateCommand())
	root.AddCommand(cli.NewRelocateCommand())

	if err := root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
