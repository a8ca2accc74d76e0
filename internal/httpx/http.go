// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package httpx provides a simpler http.Client abstraction and the decorators
// used to talk to an XNAT archive.
package httpx

import (
	"crypto/tls"
	"net/http"
	"time"

	"github.com/ccir/xnatpet/internal/ratex"
)

// BasicClient is a simpler http.Client that only requires a Do method.
type BasicClient interface {
	Do(*http.Request) (*http.Response, error)
}

var _ BasicClient = http.DefaultClient

// WithUserAgent is a basic HTTP client that adds a User-Agent header.
type WithUserAgent struct {
	BasicClient
	UserAgent string
}

var _ BasicClient = &WithUserAgent{}

// Do adds the User-Agent header and sends the request.
func (c *WithUserAgent) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.UserAgent)
	return c.BasicClient.Do(req)
}

// WithCookie attaches a fixed cookie to every request.
// XNAT session tokens (JSESSIONID) are carried this way.
type WithCookie struct {
	BasicClient
	Cookie *http.Cookie
}

var _ BasicClient = &WithCookie{}

// Do adds the cookie and sends the request.
func (c *WithCookie) Do(req *http.Request) (*http.Response, error) {
	if c.Cookie != nil {
		req.AddCookie(c.Cookie)
	}
	return c.BasicClient.Do(req)
}

// WithBackoff paces requests through a limiter and slows down when the
// archive answers 429 Too Many Requests or 503 Service Unavailable.
type WithBackoff struct {
	BasicClient
	Limiter *ratex.BackoffLimiter
}

var _ BasicClient = &WithBackoff{}

// Do waits for the limiter and sends the request.
func (c *WithBackoff) Do(req *http.Request) (*http.Response, error) {
	if err := c.Limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	resp, err := c.BasicClient.Do(req)
	switch {
	case err != nil:
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode == http.StatusServiceUnavailable:
		c.Limiter.Backoff()
	default:
		c.Limiter.Success()
	}
	return resp, err
}

// NewClient returns an http.Client suitable for long archive downloads.
// When insecure is set, server certificates are not verified.
func NewClient(insecure bool, timeout time.Duration) *http.Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	if insecure {
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &http.Client{Transport: t, Timeout: timeout}
}

// IsSuccess reports whether the status code is 2xx.
func IsSuccess(code int) bool {
	return code >= 200 && code <= 299
}
