package views

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/syllabus/client"
	"github.com/trezcool/syllabus/core/syllabus"
)

var (
	// ErrStale is returned for a response that arrived after another selection or load superseded it.
	ErrStale = errors.New("response superseded by a newer request")
	// ErrNotAvailable is returned for an action the current role or document state does not offer.
	ErrNotAvailable = errors.New("this action is not available")
	ErrNoDocument   = errors.New("no syllabus is loaded")
)

// API is what a Screen needs from the syllabus API. Implemented by *client.Client.
type API interface {
	Saver
	GetDocument(ctx context.Context, ownerID, month string) (client.DocumentResponse, error)
	CompleteSubtopic(ctx context.Context, documentID string, ref syllabus.Ref) (client.DocumentResponse, error)
	ApproveSubtopic(ctx context.Context, documentID string, ref syllabus.Ref) (client.DocumentResponse, error)
	ApproveTopic(ctx context.Context, documentID string, weekNumber, topicIndex int) (client.DocumentResponse, error)
	ApproveAll(ctx context.Context, documentID string) (client.DocumentResponse, error)
}

// Selection is the (owner, month) a screen shows.
type Selection struct {
	OwnerID string `json:"ownerId"`
	Month   string `json:"month"`
}

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusLoaded  Status = "loaded"
	StatusEmpty   Status = "empty" // no document yet
	StatusFailed  Status = "failed"
)

// State is a snapshot of a screen, safe to render.
type State struct {
	Selection Selection          `json:"selection"`
	Status    Status             `json:"status"`
	Message   string             `json:"message,omitempty"`
	Document  *syllabus.Document `json:"-"`
	Tree      *Tree              `json:"tree,omitempty"`
	CanCreate bool               `json:"canCreate"`
}

// Screen holds the syllabus view of one session.
// Loads are tagged with the selection and a sequence number: only the response of the latest request is kept.
// Mutations replace the local document with the one the API returns.
type Screen struct {
	api     API
	session *client.Session
	policy  ActionPolicy

	mu      sync.Mutex
	seq     uint64
	sel     Selection
	status  Status
	message string
	doc     *syllabus.Document
}

func NewScreen(api API, session *client.Session) *Screen {
	return &Screen{
		api:     api,
		session: session,
		policy:  PolicyFor(session.Role),
		status:  StatusIdle,
	}
}

// State returns a snapshot of the screen.
func (s *Screen) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Selection: s.sel,
		Status:    s.status,
		Message:   s.message,
		CanCreate: s.status == StatusEmpty && s.session.CanEdit(),
	}
	if s.doc != nil {
		d := s.doc.Clone()
		tree := Walk(d, s.policy)
		st.Document, st.Tree = &d, &tree
	}
	return st
}

// Load fetches the document of sel. A missing document is not an error: the screen becomes StatusEmpty.
// Any other failure clears the tree. ErrStale is returned when a later Load superseded this one.
func (s *Screen) Load(ctx context.Context, sel Selection) error {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	if sel != s.sel {
		s.doc = nil
	}
	s.sel = sel
	s.status = StatusLoading
	s.message = ""
	s.mu.Unlock()

	resp, err := s.api.GetDocument(ctx, sel.OwnerID, sel.Month)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return ErrStale
	}

	switch {
	case err == nil:
		s.status = StatusLoaded
		s.doc = &resp.Document
	case errors.Is(err, client.ErrNotFound):
		s.status = StatusEmpty
		s.doc = nil
		s.message = fmt.Sprintf("No syllabus yet for %s.", sel.Month)
	default:
		s.status = StatusFailed
		s.doc = nil
		s.message = client.Message(err)
		return err
	}
	return nil
}

// Reload fetches the current selection again.
func (s *Screen) Reload(ctx context.Context) error {
	s.mu.Lock()
	sel := s.sel
	s.mu.Unlock()
	return s.Load(ctx, sel)
}

func (s *Screen) Complete(ctx context.Context, ref syllabus.Ref) error {
	return s.act(ctx,
		func(t Tree) bool {
			n, ok := t.Subtopic(ref)
			return ok && hasAction(n.Actions, ActionComplete)
		},
		func(ctx context.Context, id string) (client.DocumentResponse, error) {
			return s.api.CompleteSubtopic(ctx, id, ref)
		},
	)
}

func (s *Screen) Approve(ctx context.Context, ref syllabus.Ref) error {
	return s.act(ctx,
		func(t Tree) bool {
			n, ok := t.Subtopic(ref)
			return ok && hasAction(n.Actions, ActionApprove)
		},
		func(ctx context.Context, id string) (client.DocumentResponse, error) {
			return s.api.ApproveSubtopic(ctx, id, ref)
		},
	)
}

func (s *Screen) ApproveTopic(ctx context.Context, weekNumber, topicIndex int) error {
	return s.act(ctx,
		func(t Tree) bool {
			n, ok := t.Topic(weekNumber, topicIndex)
			return ok && hasAction(n.Actions, ActionApproveTopic)
		},
		func(ctx context.Context, id string) (client.DocumentResponse, error) {
			return s.api.ApproveTopic(ctx, id, weekNumber, topicIndex)
		},
	)
}

func (s *Screen) ApproveAll(ctx context.Context) error {
	return s.act(ctx,
		func(t Tree) bool { return hasAction(t.Actions, ActionApproveAll) },
		func(ctx context.Context, id string) (client.DocumentResponse, error) {
			return s.api.ApproveAll(ctx, id)
		},
	)
}

// Editor hands the current document, or an empty scaffold when there is none yet, to an Editor.
func (s *Screen) Editor() (*Editor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.session.CanEdit() || (s.status != StatusLoaded && s.status != StatusEmpty) {
		return nil, ErrNotAvailable
	}
	return NewEditor(s.api, DraftOf(s.sel, s.doc)), nil
}

// Accept shows d if it belongs to the current selection and is not older than what is shown.
func (s *Screen) Accept(d syllabus.Document) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accept(d)
}

func (s *Screen) accept(d syllabus.Document) bool {
	if d.OwnerID != s.sel.OwnerID || d.Month != s.sel.Month {
		return false
	}
	if s.doc != nil && s.doc.ID == d.ID && d.Version < s.doc.Version {
		return false
	}
	s.doc = &d
	s.status = StatusLoaded
	return true
}

// act checks that the action is offered, calls the API and applies the returned document.
// Errors are kept as the inline message and never clear the tree. A conflict or a vanished node
// means the local copy is outdated, so it is fetched again while the message stays.
func (s *Screen) act(
	ctx context.Context,
	offered func(Tree) bool,
	call func(ctx context.Context, documentID string) (client.DocumentResponse, error),
) error {
	s.mu.Lock()
	if s.status != StatusLoaded || s.doc == nil {
		s.mu.Unlock()
		return ErrNoDocument
	}
	if !offered(Walk(*s.doc, s.policy)) {
		s.message = ErrNotAvailable.Error()
		s.mu.Unlock()
		return ErrNotAvailable
	}
	seq, id := s.seq, s.doc.ID
	s.message = ""
	s.mu.Unlock()

	resp, err := call(ctx, id)

	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		return ErrStale
	}
	if err == nil {
		s.accept(resp.Document)
		s.mu.Unlock()
		return nil
	}
	s.message = client.Message(err)
	s.mu.Unlock()

	if errors.Is(err, client.ErrInvalidState) || errors.Is(err, client.ErrNotFound) {
		s.recover(ctx, seq)
	}
	return err
}

// recover refreshes the document after a failed action, keeping the tree when the refresh fails too.
func (s *Screen) recover(ctx context.Context, seq uint64) {
	s.mu.Lock()
	sel := s.sel
	s.mu.Unlock()

	resp, err := s.api.GetDocument(ctx, sel.OwnerID, sel.Month)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq == s.seq {
		s.accept(resp.Document)
	}
}
