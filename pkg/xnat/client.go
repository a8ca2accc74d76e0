// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package xnat is a client for the XNAT imaging archive REST API.
package xnat

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ccir/xnatpet/internal/httpx"
	"github.com/pkg/errors"
)

const sessionCookie = "JSESSIONID"

// Archive is the read/write surface of an authenticated archive session.
type Archive interface {
	Projects(ctx context.Context, glob string) ([]Project, error)
	Subjects(ctx context.Context, project, glob string) ([]Subject, error)
	Experiments(ctx context.Context, project, glob string) ([]Experiment, error)
	SubjectExperiments(ctx context.Context, project, subject, glob string) ([]Experiment, error)
	Scans(ctx context.Context, experiment, glob string) ([]Scan, error)
	ScanResources(ctx context.Context, experiment, scan string) ([]Resource, error)
	ScanFiles(ctx context.Context, experiment, scan, resource, glob string) ([]File, error)
	SessionFiles(ctx context.Context, experiment, resource, glob string) ([]File, error)
	Download(ctx context.Context, f File) (io.ReadCloser, error)
	Assessors(ctx context.Context, experiment, variety, vtype string) (io.ReadCloser, error)
	Upload(ctx context.Context, u Upload) error
	DeleteScanResource(ctx context.Context, experiment, scan, resource string) error
	Search(ctx context.Context, q Query) ([]map[string]string, error)
}

// ArchiveSession is an Archive bound to a JSESSION that must be closed.
type ArchiveSession interface {
	Archive
	Close(ctx context.Context) error
}

// Connector opens archive sessions.
type Connector interface {
	Connect(ctx context.Context) (ArchiveSession, error)
}

// Client holds the archive location and credentials.
type Client struct {
	Host     string
	HTTP     httpx.BasicClient
	User     string
	Password string
}

var _ Connector = &Client{}

// Login requests a JSESSION using HTTP Basic authentication.
func (c *Client) Login(ctx context.Context) (*Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/data/JSESSION", nil), nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.User, c.Password)
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "requesting JSESSION")
	}
	defer resp.Body.Close()
	if err := checkStatus(resp, "requesting JSESSION"); err != nil {
		return nil, err
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading JSESSION")
	}
	id := strings.TrimSpace(string(b))
	if id == "" {
		return nil, errors.New("archive returned an empty JSESSION")
	}
	return &Session{
		host: c.Host,
		ID:   id,
		http: &httpx.WithCookie{BasicClient: c.HTTP, Cookie: &http.Cookie{Name: sessionCookie, Value: id}},
	}, nil
}

// Connect implements Connector.
func (c *Client) Connect(ctx context.Context) (ArchiveSession, error) {
	return c.Login(ctx)
}

func (c *Client) url(p string, q url.Values) string {
	return buildURL(c.Host, p, q)
}

func buildURL(host, p string, q url.Values) string {
	u := strings.TrimRight(host, "/") + p
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// segments joins escaped path segments.
func segments(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(p))
	}
	return b.String()
}

func checkStatus(resp *http.Response, what string) error {
	if httpx.IsSuccess(resp.StatusCode) {
		return nil
	}
	if resp.StatusCode == http.StatusNotFound {
		return errors.Wrap(ErrNotFound, what)
	}
	return errors.Wrap(errors.New(resp.Status), what)
}

// Session is an authenticated archive session.
type Session struct {
	ID   string
	host string
	http httpx.BasicClient
}

var _ ArchiveSession = &Session{}

// Close expires the JSESSION.
func (s *Session) Close(ctx context.Context) error {
	resp, err := s.do(ctx, http.MethodDelete, "/data/JSESSION", nil, nil)
	if err != nil {
		return errors.Wrap(err, "expiring JSESSION")
	}
	resp.Body.Close()
	return nil
}

func (s *Session) do(ctx context.Context, method, p string, q url.Values, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, buildURL(s.host, p, q), body)
	if err != nil {
		return nil, err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp, method+" "+p); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

func list[T any](ctx context.Context, s *Session, p string, q url.Values) ([]T, error) {
	if q == nil {
		q = url.Values{}
	}
	q.Set("format", "json")
	resp, err := s.do(ctx, http.MethodGet, p, q, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var rs resultSet[T]
	if err := json.NewDecoder(resp.Body).Decode(&rs); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", p)
	}
	return rs.ResultSet.Result, nil
}
