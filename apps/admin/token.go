package main

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	echoapi "github.com/trezcool/syllabus/apps/api/echo"
	"github.com/trezcool/syllabus/core/user"
)

// newTokenCmd issues bearer tokens signed with the configured secret, standing in for the identity provider
// in development.
func newTokenCmd(cli *commandLine) *cobra.Command {
	var p user.Principal

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			p.ID = strings.TrimSpace(p.ID)
			if p.ID == "" {
				return errors.New("--sub must not be blank")
			}
			if len(p.Roles) == 0 {
				return errors.Errorf("at least one --role is required (one of: %s)", user.RoleChoices())
			}
			for _, role := range p.Roles {
				if !user.IsValidRole(role) {
					return errors.Errorf("invalid role %q (one of: %s)", role, user.RoleChoices())
				}
			}

			token, err := echoapi.GenerateToken(cli.conf, echoapi.GetPrincipalClaims(cli.conf, p))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&p.ID, "sub", "", "Subject: the user id known to the identity provider")
	cmd.Flags().StringVar(&p.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&p.Email, "email", "", "E-mail address")
	cmd.Flags().StringSliceVar(&p.Roles, "role", nil, "Role, repeatable (e.g. teacher:, coordinator:)")
	_ = cmd.MarkFlagRequired("sub")

	return cmd
}
