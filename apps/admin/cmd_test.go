package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/syllabus/client"
	"github.com/trezcool/syllabus/core"
	"github.com/trezcool/syllabus/core/owner"
	"github.com/trezcool/syllabus/core/user"
	sqlxrepos "github.com/trezcool/syllabus/storage/database/sqlx"
	testutil "github.com/trezcool/syllabus/tests"
)

var ownerRepo owner.Repository

func setup(t *testing.T) *commandLine {
	// set up DB & repos
	db := testutil.OpenDB(t)
	ownerRepo = sqlxrepos.NewOwnerRepository(db)
	translator := core.NewTranslator()

	// start CLI
	return &commandLine{
		conf:       testutil.Config(),
		db:         db,
		ownerSvc:   owner.NewService(ownerRepo),
		validate:   core.NewValidate(translator),
		translator: translator,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantOut    string
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := cli.run(args, &out)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				assert.EqualError(t, err, tt.wantErrStr)
			default:
				assert.NoError(t, err)
			}
			if tt.wantOut != "" {
				assert.Contains(t, out.String(), tt.wantOut)
			}
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	defer func(orig func(*sql.DB, string, string, ...string) error) { gooseRunFunc = orig }(gooseRunFunc)
	gooseRunFunc = func(db *sql.DB, driver, command string, args ...string) error {
		if db == nil || driver != cli.conf.Database.Driver {
			return fmt.Errorf("unexpected database %v (%s)", db, driver)
		}
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	runCLITests(t, cli, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "owner_notes", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	})
}

func Test_commandLine_migrate_embedded(t *testing.T) {
	cli := setup(t)

	// the in-memory database is already migrated: a round trip must leave it usable
	runCLITests(t, cli, []cliTest{
		{name: "version", args: []string{"migrate", "version"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "status", args: []string{"migrate", "status"}},
	})
	testutil.CreateOwner(t, ownerRepo, "math", "Mathematics", nil, nil)
}

func Test_commandLine_token(t *testing.T) {
	cli := setup(t)

	runCLITests(t, cli, []cliTest{
		{name: "no subject", args: []string{"token", "--role", user.RoleTeacher}, wantErrStr: `required flag(s) "sub" not set`},
		{name: "blank subject", args: []string{"token", "--sub", " ", "--role", user.RoleTeacher}, wantErrStr: "--sub must not be blank"},
		{name: "no role", args: []string{"token", "--sub", "teacher-1"}, wantErrStr: "at least one --role is required (one of: " + user.RoleChoices() + ")"},
		{name: "invalid role", args: []string{"token", "--sub", "teacher-1", "--role", "janitor:"}, wantErrStr: `invalid role "janitor:" (one of: ` + user.RoleChoices() + ")"},
	})

	t.Run("issued token opens a session", func(t *testing.T) {
		var out bytes.Buffer
		err := cli.run([]string{"admin", "token",
			"--sub", "teacher-1", "--name", "Tina Teacher", "--email", "tina@test.cd",
			"--role", user.RoleTeacher, "--role", user.RoleParent,
		}, &out)
		require.NoError(t, err)

		s, err := client.NewSession(strings.TrimSpace(out.String()))
		require.NoError(t, err)
		assert.Equal(t, user.Principal{
			ID:    "teacher-1",
			Name:  "Tina Teacher",
			Email: "tina@test.cd",
			Roles: []string{user.RoleTeacher, user.RoleParent},
		}, s.Principal)
		assert.Equal(t, client.RoleProducer, s.Role)
	})
}

func Test_commandLine_owner(t *testing.T) {
	cli := setup(t)

	runCLITests(t, cli, []cliTest{
		{name: "no name", args: []string{"owner", "add", "--id", "math"}, wantErrStr: `required flag(s) "name" not set`},
		{
			name:    "add with defaults",
			args:    []string{"owner", "add", "--id", "math", "--name", " Mathematics ", "--teacher", "teacher-1", "--reviewer", "Coord@Test.cd"},
			wantOut: "Created subject math (Mathematics)",
		},
		{name: "duplicate", args: []string{"owner", "add", "--id", "math", "--name", "Maths"}, wantErr: owner.ErrExists},
		{name: "invalid kind", args: []string{"owner", "add", "--id", "chem", "--kind", "class", "--name", "Chemistry"}, wantErrStr: "kind: must be one of: course, subject"},
		{name: "add course", args: []string{"owner", "add", "--id", "algebra-1", "--kind", "course", "--name", "Algebra I"}, wantOut: "Created course algebra-1"},
		{name: "assign: nothing to assign", args: []string{"owner", "assign", "math"}, wantErr: errHelp},
		{name: "assign: unknown owner", args: []string{"owner", "assign", "physics", "--teacher", "teacher-2"}, wantErr: owner.ErrNotFound},
		{
			name:    "assign teachers",
			args:    []string{"owner", "assign", "math", "--teacher", "teacher-1,teacher-2"},
			wantOut: "teachers [teacher-1, teacher-2], reviewers [coord@test.cd]",
		},
	})

	t.Run("invalid reviewer", func(t *testing.T) {
		err := cli.run([]string{"admin", "owner", "add", "--id", "bio", "--name", "Biology", "--reviewer", "nope"}, new(bytes.Buffer))
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.FieldMap(), "reviewerEmails[0]")
	})

	o, err := ownerRepo.GetOwner(context.Background(), "math")
	require.NoError(t, err)
	assert.True(t, o.HasTeacher("teacher-2"))

	t.Run("list as JSON", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, cli.run([]string{"admin", "owner", "list", "--teacher", "teacher-2"}, &out))

		var owners []owner.Owner
		require.NoError(t, json.Unmarshal(out.Bytes(), &owners), out.String())
		if assert.Len(t, owners, 1) {
			assert.Equal(t, "math", owners[0].ID)
		}

		out.Reset()
		require.NoError(t, cli.run([]string{"admin", "owner", "list"}, &out))
		require.NoError(t, json.Unmarshal(out.Bytes(), &owners))
		if assert.Len(t, owners, 2) {
			assert.Equal(t, "Algebra I", owners[0].Name)
			assert.Equal(t, "Mathematics", owners[1].Name)
		}

		out.Reset()
		require.NoError(t, cli.run([]string{"admin", "owner", "list", "--search", "nothing-matches"}, &out))
		assert.JSONEq(t, "[]", out.String())
	})
}
