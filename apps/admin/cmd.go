package main

import (
	"errors"
	"io"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/trezcool/syllabus/core"
	"github.com/trezcool/syllabus/core/owner"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf       *core.Config
	db         *sqlx.DB
	ownerSvc   owner.Service
	validate   *validator.Validate
	translator ut.Translator
}

func newRootCmd(cli *commandLine) *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Syllabus administration: migrations, development tokens and owners",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newMigrateCmd(cli),
		newTokenCmd(cli),
		newOwnerCmd(cli),
	)
	return root
}

// run executes the command line args, program name included.
func (cli *commandLine) run(args []string, out io.Writer) error {
	root := newRootCmd(cli)
	root.SetOut(out)
	root.SetErr(out)
	if len(args) > 0 {
		args = args[1:]
	}
	root.SetArgs(args)
	return root.Execute()
}
