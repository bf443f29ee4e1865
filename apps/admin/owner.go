package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trezcool/syllabus/core"
	"github.com/trezcool/syllabus/core/owner"
	"github.com/trezcool/syllabus/views"
)

func newOwnerCmd(cli *commandLine) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "owner",
		Short: "Manage the courses or subjects syllabi belong to",
	}

	cmd.AddCommand(
		newOwnerAddCmd(cli),
		newOwnerAssignCmd(cli),
		newOwnerListCmd(cli),
	)
	return cmd
}

func newOwnerAddCmd(cli *commandLine) *cobra.Command {
	var no owner.NewOwner

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a course or subject",
		RunE: func(cmd *cobra.Command, args []string) error {
			if no.Kind == "" {
				no.Kind = cli.conf.OwnerKind
			}
			if err := no.Validate(cli.validate); err != nil {
				return core.TranslateValidationErrors(err, cli.translator, nil)
			}

			o, err := cli.ownerSvc.Create(context.Background(), no)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (%s)\n", o.Kind, o.ID, o.Name)
			return err
		},
	}

	cmd.Flags().StringVar(&no.ID, "id", "", "Identifier known to the rest of the platform (generated when empty)")
	cmd.Flags().StringVar(&no.Kind, "kind", "", "course or subject (defaults to the deployment's addressing mode)")
	cmd.Flags().StringVar(&no.Name, "name", "", "Display name")
	cmd.Flags().StringSliceVar(&no.TeacherIDs, "teacher", nil, "Assigned teacher id, repeatable")
	cmd.Flags().StringSliceVar(&no.ReviewerEmails, "reviewer", nil, "E-mail notified of pending approvals, repeatable")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newOwnerAssignCmd(cli *commandLine) *cobra.Command {
	var teacherIDs, reviewerEmails []string

	cmd := &cobra.Command{
		Use:   "assign OWNER_ID",
		Short: "Replace the teachers and/or reviewers of an owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var uo owner.UpdateOwner
			if cmd.Flags().Changed("teacher") {
				uo.TeacherIDs = append([]string{}, teacherIDs...)
			}
			if cmd.Flags().Changed("reviewer") {
				uo.ReviewerEmails = append([]string{}, reviewerEmails...)
			}
			if uo.TeacherIDs == nil && uo.ReviewerEmails == nil {
				_ = cmd.Usage()
				return errHelp
			}
			if err := uo.Validate(cli.validate); err != nil {
				return core.TranslateValidationErrors(err, cli.translator, nil)
			}

			o, err := cli.ownerSvc.Update(context.Background(), args[0], uo)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Updated %s %s: teachers [%s], reviewers [%s]\n",
				o.Kind, o.ID, strings.Join(o.TeacherIDs, ", "), strings.Join(o.ReviewerEmails, ", "))
			return err
		},
	}

	cmd.Flags().StringSliceVar(&teacherIDs, "teacher", nil, "Teacher id, repeatable; an empty value clears the list")
	cmd.Flags().StringSliceVar(&reviewerEmails, "reviewer", nil, "Reviewer e-mail, repeatable; an empty value clears the list")

	return cmd
}

func newOwnerListCmd(cli *commandLine) *cobra.Command {
	var filter owner.QueryFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List owners",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter.Clean()
			owners, err := cli.ownerSvc.Query(context.Background(), &filter, []core.DBOrdering{{Field: "name", Ascending: true}})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !views.IsTerminal(out) {
				if owners == nil {
					owners = []owner.Owner{}
				}
				return views.WriteJSON(out, owners)
			}
			if len(owners) == 0 {
				_, err = fmt.Fprintln(out, "No owners found.")
				return err
			}

			rows := make([][]string, 0, len(owners))
			for _, o := range owners {
				rows = append(rows, []string{o.ID, o.Kind, o.Name, strings.Join(o.TeacherIDs, ", "), strings.Join(o.ReviewerEmails, ", ")})
			}
			_, err = fmt.Fprint(out, views.RenderTable([]string{"ID", "KIND", "NAME", "TEACHERS", "REVIEWERS"}, rows))
			return err
		},
	}

	cmd.Flags().StringVar(&filter.Search, "search", "", "Search by id or name")
	cmd.Flags().StringVar(&filter.Kind, "kind", "", "course or subject")
	cmd.Flags().StringVar(&filter.TeacherID, "teacher", "", "Only owners assigned to this teacher")

	return cmd
}
