package main

import (
	"github.com/spf13/cobra"

	"github.com/trezcool/syllabus/storage/database"
)

var gooseRunFunc = database.Migrate // mockable

func newMigrateCmd(cli *commandLine) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run a goose command (up, up-by-one, up-to, down, down-to, redo, reset, status, version)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Usage()
				return errHelp
			}
			return cli.migrate(args)
		},
	}
}

func (cli *commandLine) migrate(args []string) error {
	return gooseRunFunc(cli.db.DB, cli.conf.Database.Driver, args[0], args[1:]...)
}
