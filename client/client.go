// Package client is a typed client of the syllabus REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/syllabus/core/syllabus"
)

// DocumentResponse is what every read and write of a document returns.
type DocumentResponse struct {
	Document syllabus.Document `json:"document"`
	Progress syllabus.Progress `json:"progress"`
}

// SaveRequest is a tree to store. An empty ID creates a document for (OwnerID, Month);
// otherwise the weeks of document ID are replaced and OwnerID and Month are not sent.
type SaveRequest struct {
	ID      string
	OwnerID string
	Month   string
	Weeks   []syllabus.Week
}

type Option func(c *Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

type Client struct {
	baseURL   string
	ownerKind string
	session   *Session
	http      *http.Client
}

// New returns a client of the API at baseURL (eg. `http://localhost:8000/v1`) addressing owners of ownerKind.
func New(baseURL, ownerKind string, session *Session, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		ownerKind: ownerKind,
		session:   session,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Session() *Session { return c.session }

func (c *Client) OwnerKind() string { return c.ownerKind }

// GetDocument fetches the document of ownerID for month. ErrNotFound means there is none yet.
func (c *Client) GetDocument(ctx context.Context, ownerID, month string) (DocumentResponse, error) {
	var resp DocumentResponse
	err := c.do(ctx, http.MethodGet, "/syllabus/"+escape(c.ownerKind, ownerID, month), nil, &resp)
	return resp, err
}

// SaveDocument normalizes and validates req.Weeks, then creates or updates the document.
// A tree with the wrong shape is returned as a *syllabus.ShapeError without any request being made.
func (c *Client) SaveDocument(ctx context.Context, req SaveRequest) (DocumentResponse, error) {
	weeks := syllabus.Normalize(syllabus.CloneWeeks(req.Weeks))
	if err := syllabus.ValidateShape(weeks); err != nil {
		return DocumentResponse{}, err
	}

	var resp DocumentResponse
	if req.ID == "" {
		body := syllabus.NewDocument{OwnerID: req.OwnerID, Month: req.Month, Weeks: weeks}
		err := c.do(ctx, http.MethodPost, "/syllabus", body, &resp)
		return resp, err
	}
	body := syllabus.UpdateDocument{Weeks: weeks}
	err := c.do(ctx, http.MethodPut, "/syllabus/"+escape(req.ID), body, &resp)
	return resp, err
}

func (c *Client) CompleteSubtopic(ctx context.Context, documentID string, ref syllabus.Ref) (DocumentResponse, error) {
	var resp DocumentResponse
	err := c.do(ctx, http.MethodPatch, subtopicPath(documentID, ref), nil, &resp)
	return resp, err
}

func (c *Client) ApproveSubtopic(ctx context.Context, documentID string, ref syllabus.Ref) (DocumentResponse, error) {
	var resp DocumentResponse
	err := c.do(ctx, http.MethodPatch, subtopicPath(documentID, ref)+"/approve", nil, &resp)
	return resp, err
}

func (c *Client) ApproveTopic(ctx context.Context, documentID string, weekNumber, topicIndex int) (DocumentResponse, error) {
	var resp DocumentResponse
	err := c.do(ctx, http.MethodPatch, topicPath(documentID, weekNumber, topicIndex)+"/approve", nil, &resp)
	return resp, err
}

func (c *Client) ApproveAll(ctx context.Context, documentID string) (DocumentResponse, error) {
	var resp DocumentResponse
	err := c.do(ctx, http.MethodPatch, "/syllabus/"+escape(documentID)+"/approve", nil, &resp)
	return resp, err
}

func (c *Client) History(ctx context.Context, documentID string) ([]syllabus.Event, error) {
	var events []syllabus.Event
	err := c.do(ctx, http.MethodGet, "/syllabus/"+escape(documentID)+"/history", nil, &events)
	return events, err
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encoding request")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil && c.session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "reading response")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var eb errorBody
		_ = json.Unmarshal(data, &eb) // a body that is not ours leaves Message empty
		return &APIError{StatusCode: resp.StatusCode, Message: eb.Error, Fields: eb.Fields}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err = json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "decoding %s %s", method, path)
	}
	return nil
}

func escape(segments ...string) string {
	escaped := make([]string, 0, len(segments))
	for _, s := range segments {
		escaped = append(escaped, url.PathEscape(s))
	}
	return strings.Join(escaped, "/")
}

func topicPath(documentID string, weekNumber, topicIndex int) string {
	return fmt.Sprintf("/syllabus/%s/weeks/%d/topics/%d", url.PathEscape(documentID), weekNumber, topicIndex)
}

func subtopicPath(documentID string, ref syllabus.Ref) string {
	return fmt.Sprintf("%s/subtopics/%d", topicPath(documentID, ref.WeekNumber, ref.TopicIndex), ref.SubtopicIndex)
}
