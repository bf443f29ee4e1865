package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/trezcool/syllabus/client"
	"github.com/trezcool/syllabus/core"
	"github.com/trezcool/syllabus/core/syllabus"
	"github.com/trezcool/syllabus/views"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	stdinIsTerminal  = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }

	errNoToken = errors.New("no token: pass --token or set SYLLABUS_TOKEN")
)

type app struct {
	v *viper.Viper
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "syllabus",
		Short:         "Follow, complete and approve monthly syllabi",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("api", "http://localhost:8000/v1", "API base URL [SYLLABUS_API]")
	root.PersistentFlags().String("token", "", "Bearer token from the identity provider [SYLLABUS_TOKEN]")
	root.PersistentFlags().String("kind", core.OwnerKindSubject, "Owner kind served by the API: course or subject [SYLLABUS_KIND]")
	root.PersistentFlags().String("file", "syllabus-draft.json", "Draft file used by edit and save [SYLLABUS_FILE]")
	_ = a.v.BindPFlags(root.PersistentFlags())
	a.v.SetEnvPrefix("SYLLABUS")
	a.v.AutomaticEnv()

	root.AddCommand(
		newShowCmd(a),
		newHistoryCmd(a),
		newCompleteCmd(a),
		newApproveCmd(a),
		newApproveTopicCmd(a),
		newApproveAllCmd(a),
		newEditCmd(a),
		newSaveCmd(a),
	)
	return root
}

// session reads the token from the flags or the environment, prompting for it on a terminal.
func (a *app) session(cmd *cobra.Command) (*client.Session, error) {
	token := strings.TrimSpace(a.v.GetString("token"))
	if token == "" && stdinIsTerminal() {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Token: ")
		raw, err := readPasswordFunc(int(os.Stdin.Fd()))
		_, _ = fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return nil, errors.Wrap(err, "reading token")
		}
		token = strings.TrimSpace(string(raw))
	}
	if token == "" {
		return nil, errNoToken
	}
	return client.NewSession(token)
}

func (a *app) connect(cmd *cobra.Command) (*client.Client, *client.Session, error) {
	s, err := a.session(cmd)
	if err != nil {
		return nil, nil, err
	}
	return client.New(a.v.GetString("api"), a.v.GetString("kind"), s), s, nil
}

// load opens a screen on (owner, month).
func (a *app) load(cmd *cobra.Command, ownerID, month string) (*views.Screen, error) {
	c, s, err := a.connect(cmd)
	if err != nil {
		return nil, err
	}
	screen := views.NewScreen(c, s)
	err = screen.Load(cmd.Context(), views.Selection{OwnerID: ownerID, Month: month})
	return screen, err
}

// act loads (owner, month), runs the action and shows the result. A failed action is shown inline
// above the tree it was attempted on.
func (a *app) act(cmd *cobra.Command, ownerID, month string, action func(ctx context.Context, screen *views.Screen) error) error {
	screen, err := a.load(cmd, ownerID, month)
	if screen == nil {
		return err
	}
	if err == nil {
		if screen.State().Status == views.StatusEmpty {
			err = views.ErrNoDocument
		} else {
			err = action(cmd.Context(), screen)
		}
	}
	if werr := views.Write(cmd.OutOrStdout(), screen.State()); werr != nil && err == nil {
		err = werr
	}
	return err
}

// parseRef parses a subtopic address WEEK.TOPIC.SUBTOPIC, eg. `1.0.2`.
func parseRef(s string) (syllabus.Ref, error) {
	nums, err := parseAddress(s, 3)
	if err != nil {
		return syllabus.Ref{}, err
	}
	return syllabus.Ref{WeekNumber: nums[0], TopicIndex: nums[1], SubtopicIndex: nums[2]}, nil
}

// parseTopic parses a topic address WEEK.TOPIC, eg. `1.0`.
func parseTopic(s string) (weekNumber, topicIndex int, err error) {
	nums, err := parseAddress(s, 2)
	if err != nil {
		return 0, 0, err
	}
	return nums[0], nums[1], nil
}

func parseAddress(s string, parts int) ([]int, error) {
	fields := strings.Split(s, ".")
	if len(fields) != parts {
		return nil, errors.Errorf("invalid address %q: expected %d dot-separated numbers", s, parts)
	}
	nums := make([]int, parts)
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return nil, errors.Errorf("invalid address %q: %q is not a number", s, f)
		}
		nums[i] = n
	}
	return nums, nil
}

func writeText(w io.Writer, text string) error {
	_, err := io.WriteString(w, text)
	return err
}

// errorText is the server's message for API failures and the error itself for local ones.
func errorText(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return client.Message(err)
	}
	return err.Error()
}
