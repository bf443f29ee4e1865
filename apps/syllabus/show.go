package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/trezcool/syllabus/views"
)

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show OWNER MONTH",
		Short: "Show the syllabus of an owner for a month (YYYY-MM)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			screen, err := a.load(cmd, args[0], args[1])
			if screen == nil {
				return err
			}
			if werr := views.Write(cmd.OutOrStdout(), screen.State()); werr != nil && err == nil {
				err = werr
			}
			return err
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history OWNER MONTH",
		Short: "Show who changed the syllabus and when",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, s, err := a.connect(cmd)
			if err != nil {
				return err
			}
			screen := views.NewScreen(c, s)
			if err = screen.Load(cmd.Context(), views.Selection{OwnerID: args[0], Month: args[1]}); err != nil {
				return err
			}
			st := screen.State()
			if st.Document == nil {
				return views.ErrNoDocument
			}

			events, err := c.History(cmd.Context(), st.Document.ID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !views.IsTerminal(out) {
				return views.WriteJSON(out, events)
			}
			return writeText(out, views.RenderHistory(events))
		},
	}
}

func newCompleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "complete OWNER MONTH WEEK.TOPIC.SUBTOPIC",
		Short:   "Mark a subtopic as completed",
		Example: "  syllabus complete math 2024-03 1.0.2",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseRef(args[2])
			if err != nil {
				return err
			}
			return a.act(cmd, args[0], args[1], func(ctx context.Context, screen *views.Screen) error {
				return screen.Complete(ctx, ref)
			})
		},
	}
}

func newApproveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "approve OWNER MONTH WEEK.TOPIC.SUBTOPIC",
		Short:   "Approve a completed subtopic",
		Example: "  syllabus approve math 2024-03 1.0.2",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseRef(args[2])
			if err != nil {
				return err
			}
			return a.act(cmd, args[0], args[1], func(ctx context.Context, screen *views.Screen) error {
				return screen.Approve(ctx, ref)
			})
		},
	}
}

func newApproveTopicCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "approve-topic OWNER MONTH WEEK.TOPIC",
		Short:   "Approve a topic and every completed subtopic under it",
		Example: "  syllabus approve-topic math 2024-03 1.0",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			week, topic, err := parseTopic(args[2])
			if err != nil {
				return err
			}
			return a.act(cmd, args[0], args[1], func(ctx context.Context, screen *views.Screen) error {
				return screen.ApproveTopic(ctx, week, topic)
			})
		},
	}
}

func newApproveAllCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "approve-all OWNER MONTH",
		Short: "Approve every topic and every completed subtopic of the month",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.act(cmd, args[0], args[1], func(ctx context.Context, screen *views.Screen) error {
				return screen.ApproveAll(ctx)
			})
		},
	}
}
