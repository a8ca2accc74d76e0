// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package httpxtest provides a scripted httpx.BasicClient for tests.
package httpxtest

import (
	"io"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Call is one expected request and its canned response.
type Call struct {
	Method   string
	URL      string
	Response *http.Response
	Error    error
}

// Request is a snapshot of a request received by MockClient.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   string
}

// MockClient serves Calls in order and records what it received.
type MockClient struct {
	Calls             []Call
	URLValidator      func(expected, actual string)
	SkipURLValidation bool
	Requests          []Request
	callCount         int
}

func (m *MockClient) Do(req *http.Request) (*http.Response, error) {
	if m.callCount >= len(m.Calls) {
		panic("unexpected request: " + req.Method + " " + req.URL.String())
	}
	call := m.Calls[m.callCount]
	m.callCount++

	if !m.SkipURLValidation && (m.URLValidator == nil) {
		panic("URL validation requested but not configured")
	} else if m.SkipURLValidation && (m.URLValidator != nil) {
		panic("URL validation disabled but configured")
	}
	if m.URLValidator != nil {
		if call.Method != "" {
			m.URLValidator(call.Method+" "+call.URL, req.Method+" "+req.URL.String())
		} else {
			m.URLValidator(call.URL, req.URL.String())
		}
	}
	r := Request{Method: req.Method, URL: req.URL.String(), Header: req.Header.Clone()}
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		r.Body = string(b)
	}
	m.Requests = append(m.Requests, r)
	if call.Response != nil && call.Response.Body == nil {
		call.Response.Body = Body("")
	}
	return call.Response, call.Error
}

// CallCount returns the number of requests served so far.
func (m *MockClient) CallCount() int {
	return m.callCount
}

// NewURLValidator fails the test when the requested URL differs from the script.
func NewURLValidator(t *testing.T) func(string, string) {
	return func(expected, actual string) {
		t.Helper()
		if diff := cmp.Diff(expected, actual); diff != "" {
			t.Fatalf("URL mismatch (-want +got):\n%s", diff)
		}
	}
}
