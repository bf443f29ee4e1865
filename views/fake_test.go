package views_test

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/syllabus/client"
	"github.com/trezcool/syllabus/core/syllabus"
	"github.com/trezcool/syllabus/views"
)

// fakeAPI keeps documents in memory and runs the real state machine on them.
type fakeAPI struct {
	mu      sync.Mutex
	docs    map[views.Selection]syllabus.Document
	gates   map[string]chan struct{} // month -> released when GetDocument may answer
	started chan string              // receives the month of every gated GetDocument
	getErr  error
	gets    int
	saves   int
}

var _ views.API = (*fakeAPI)(nil)

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		docs:    make(map[views.Selection]syllabus.Document),
		gates:   make(map[string]chan struct{}),
		started: make(chan string, 8),
	}
}

func (api *fakeAPI) put(d syllabus.Document) syllabus.Document {
	api.mu.Lock()
	defer api.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Version == 0 {
		d.Version = 1
	}
	d.OwnerKind = "subject"
	api.docs[views.Selection{OwnerID: d.OwnerID, Month: d.Month}] = d
	return d
}

func (api *fakeAPI) gate(month string) chan struct{} {
	api.mu.Lock()
	defer api.mu.Unlock()
	gate := make(chan struct{})
	api.gates[month] = gate
	return gate
}

func (api *fakeAPI) GetDocument(ctx context.Context, ownerID, month string) (client.DocumentResponse, error) {
	api.mu.Lock()
	api.gets++
	gate := api.gates[month]
	api.mu.Unlock()

	if gate != nil {
		api.started <- month
		select {
		case <-gate:
		case <-ctx.Done():
			return client.DocumentResponse{}, ctx.Err()
		}
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if api.getErr != nil {
		return client.DocumentResponse{}, api.getErr
	}
	d, ok := api.docs[views.Selection{OwnerID: ownerID, Month: month}]
	if !ok {
		return client.DocumentResponse{}, &client.APIError{StatusCode: http.StatusNotFound, Message: syllabus.ErrNotFound.Error()}
	}
	return respond(d), nil
}

func (api *fakeAPI) SaveDocument(_ context.Context, req client.SaveRequest) (client.DocumentResponse, error) {
	api.mu.Lock()
	api.saves++
	api.mu.Unlock()

	if req.ID == "" {
		return respond(api.put(syllabus.Document{OwnerID: req.OwnerID, Month: req.Month, Weeks: req.Weeks})), nil
	}
	return api.mutate(req.ID, func(d *syllabus.Document) error {
		d.Weeks = req.Weeks
		return nil
	})
}

func (api *fakeAPI) CompleteSubtopic(_ context.Context, id string, ref syllabus.Ref) (client.DocumentResponse, error) {
	return api.mutate(id, func(d *syllabus.Document) error { return syllabus.CompleteSubtopic(d, ref) })
}

func (api *fakeAPI) ApproveSubtopic(_ context.Context, id string, ref syllabus.Ref) (client.DocumentResponse, error) {
	return api.mutate(id, func(d *syllabus.Document) error { return syllabus.ApproveSubtopic(d, ref) })
}

func (api *fakeAPI) ApproveTopic(_ context.Context, id string, weekNumber, topicIndex int) (client.DocumentResponse, error) {
	return api.mutate(id, func(d *syllabus.Document) error {
		_, err := syllabus.ApproveTopic(d, weekNumber, topicIndex)
		return err
	})
}

func (api *fakeAPI) ApproveAll(_ context.Context, id string) (client.DocumentResponse, error) {
	return api.mutate(id, func(d *syllabus.Document) error {
		syllabus.ApproveAll(d)
		return nil
	})
}

func (api *fakeAPI) mutate(id string, fn func(d *syllabus.Document) error) (client.DocumentResponse, error) {
	api.mu.Lock()
	defer api.mu.Unlock()
	for sel, d := range api.docs {
		if d.ID != id {
			continue
		}
		next := d.Clone()
		if err := fn(&next); err != nil {
			return client.DocumentResponse{}, toAPIError(err)
		}
		next.Version++
		api.docs[sel] = next
		return respond(next), nil
	}
	return client.DocumentResponse{}, toAPIError(syllabus.ErrNotFound)
}

func toAPIError(err error) error {
	code := http.StatusInternalServerError
	switch errors.Cause(err) {
	case syllabus.ErrNotFound:
		code = http.StatusNotFound
	case syllabus.ErrInvalidState:
		code = http.StatusConflict
	}
	return &client.APIError{StatusCode: code, Message: err.Error()}
}

func respond(d syllabus.Document) client.DocumentResponse {
	d = d.Clone()
	return client.DocumentResponse{Document: d, Progress: syllabus.ComputeProgress(d)}
}
