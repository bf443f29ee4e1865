package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/syllabus/core/syllabus"
	"github.com/trezcool/syllabus/views"
)

func newEditCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Author a syllabus draft locally before saving it",
		Long: "Edit commands work on a draft file (see --file).\n" +
			"Start with `edit init OWNER MONTH`, shape the tree, then submit it with `save`.",
	}
	cmd.AddCommand(
		newEditInitCmd(a),
		a.editCmd("add-week", "Append a week numbered after the last one", cobra.NoArgs,
			func(e *views.Editor, _ []string) (string, error) {
				return fmt.Sprintf("Added week %d", e.AddWeek()), nil
			}),
		a.editCmd("add-topic WEEK TITLE", "Append a topic to a week", cobra.ExactArgs(2),
			func(e *views.Editor, args []string) (string, error) {
				week, err := strconv.Atoi(args[0])
				if err != nil {
					return "", errors.Errorf("invalid week %q", args[0])
				}
				idx, err := e.AddTopic(week, args[1])
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("Added topic %d.%d", week, idx), nil
			}),
		a.editCmd("add-subtopic WEEK.TOPIC TITLE", "Append a subtopic to a topic", cobra.ExactArgs(2),
			func(e *views.Editor, args []string) (string, error) {
				week, topic, err := parseTopic(args[0])
				if err != nil {
					return "", err
				}
				idx, err := e.AddSubtopic(week, topic, args[1])
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("Added subtopic %d.%d.%d", week, topic, idx), nil
			}),
		a.editCmd("rename-topic WEEK.TOPIC TITLE", "Rename a topic", cobra.ExactArgs(2),
			func(e *views.Editor, args []string) (string, error) {
				week, topic, err := parseTopic(args[0])
				if err != nil {
					return "", err
				}
				return "Renamed topic " + args[0], e.RenameTopic(week, topic, args[1])
			}),
		a.editCmd("rename-subtopic WEEK.TOPIC.SUBTOPIC TITLE", "Rename a subtopic", cobra.ExactArgs(2),
			func(e *views.Editor, args []string) (string, error) {
				ref, err := parseRef(args[0])
				if err != nil {
					return "", err
				}
				return "Renamed subtopic " + args[0], e.RenameSubtopic(ref, args[1])
			}),
		a.editCmd("renumber-week FROM TO", "Change the number of a week", cobra.ExactArgs(2),
			func(e *views.Editor, args []string) (string, error) {
				from, err1 := strconv.Atoi(args[0])
				to, err2 := strconv.Atoi(args[1])
				if err1 != nil || err2 != nil || to < 1 {
					return "", errors.Errorf("invalid week numbers %q and %q", args[0], args[1])
				}
				return fmt.Sprintf("Week %d is now week %d", from, to), e.RenumberWeek(from, to)
			}),
	)
	return cmd
}

func newEditInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init OWNER MONTH",
		Short: "Start a draft from the saved syllabus, or an empty one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			screen, err := a.load(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			editor, err := screen.Editor()
			if err != nil {
				return err
			}
			draft := editor.Draft()
			if err = writeDraft(a.v.GetString("file"), draft); err != nil {
				return err
			}
			return showDraft(cmd, draft, "Draft written to "+a.v.GetString("file"))
		},
	}
}

// editCmd builds a command that loads the draft file, applies fn and writes the draft back.
func (a *app) editCmd(use, short string, args cobra.PositionalArgs, fn func(e *views.Editor, args []string) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.v.GetString("file")
			draft, err := readDraft(path)
			if err != nil {
				return err
			}

			editor := views.NewEditor(nil, draft)
			msg, err := fn(editor, args)
			if err != nil {
				return err
			}
			draft = editor.Draft()
			if err = writeDraft(path, draft); err != nil {
				return err
			}
			return showDraft(cmd, draft, msg)
		},
	}
}

func newSaveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Validate the draft and submit it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.v.GetString("file")
			draft, err := readDraft(path)
			if err != nil {
				return err
			}
			c, s, err := a.connect(cmd)
			if err != nil {
				return err
			}

			editor := views.NewEditor(c, draft)
			resp, err := editor.Save(cmd.Context())
			if err != nil {
				return err
			}
			if err = writeDraft(path, editor.Draft()); err != nil {
				return err
			}

			tree := views.Walk(resp.Document, views.PolicyFor(s.Role))
			return views.Write(cmd.OutOrStdout(), views.State{
				Selection: views.Selection{OwnerID: resp.Document.OwnerID, Month: resp.Document.Month},
				Status:    views.StatusLoaded,
				Message:   fmt.Sprintf("Saved version %d.", resp.Document.Version),
				Document:  &resp.Document,
				Tree:      &tree,
			})
		},
	}
}

func readDraft(path string) (views.Draft, error) {
	var draft views.Draft
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return draft, errors.Errorf("no draft at %s: run `edit init OWNER MONTH` first", path)
		}
		return draft, errors.Wrap(err, "reading draft")
	}
	if err = json.Unmarshal(raw, &draft); err != nil {
		return draft, errors.Wrapf(err, "decoding draft %s", path)
	}
	return draft, nil
}

func writeDraft(path string, draft views.Draft) error {
	raw, err := json.MarshalIndent(draft, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding draft")
	}
	return errors.Wrap(os.WriteFile(path, append(raw, '\n'), 0o644), "writing draft")
}

// showDraft renders the draft tree without affordances, or the draft itself as JSON.
func showDraft(cmd *cobra.Command, draft views.Draft, msg string) error {
	out := cmd.OutOrStdout()
	if !views.IsTerminal(out) {
		return views.WriteJSON(out, draft)
	}
	d := syllabus.Document{
		ID:      draft.ID,
		OwnerID: draft.OwnerID,
		Month:   draft.Month,
		Weeks:   syllabus.Normalize(syllabus.CloneWeeks(draft.Weeks)),
	}
	text := views.Header(fmt.Sprintf("draft %s %s", draft.OwnerID, draft.Month)) + "\n" +
		views.StyleGreen.Render(msg) + "\n" +
		views.RenderTree(views.Walk(d, views.Reader{}))
	return writeText(out, text)
}
