// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package httpxtest

import (
	"bytes"
	"io"
	"net/http"
)

func Body(b string) io.ReadCloser {
	return io.NopCloser(bytes.NewReader([]byte(b)))
}

// OK returns a 200 response with the given body.
func OK(body string) *http.Response {
	return &http.Response{StatusCode: http.StatusOK, Status: "200 OK", Body: Body(body)}
}

// Status returns an empty response with the given status code.
func Status(code int) *http.Response {
	return &http.Response{StatusCode: code, Status: http.StatusText(code), Body: Body("")}
}
