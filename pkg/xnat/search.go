// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package xnat

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Constraint is one search criterion, e.g. ("xnat:petSessionData/DATE", "<", "2018-01-01").
type Constraint struct {
	Field string
	Op    string
	Value string
}

// Constraints combines criteria and nested groups with AND or OR.
type Constraints struct {
	Method   string
	Criteria []Constraint
	Groups   []Constraints
}

// Empty reports whether c constrains nothing.
func (c Constraints) Empty() bool {
	if len(c.Criteria) > 0 {
		return false
	}
	for _, g := range c.Groups {
		if !g.Empty() {
			return false
		}
	}
	return true
}

// Query selects fields of a root element under constraints.
type Query struct {
	RootElement string
	Fields      []string
	Where       Constraints
}

const (
	xdatNS = "http://nrg.wustl.edu/security"
	xsiNS  = "http://www.w3.org/2001/XMLSchema-instance"
)

type xdatSearch struct {
	XMLName     xml.Name          `xml:"xdat:search"`
	ID          string            `xml:"ID,attr"`
	AllowDiff   string            `xml:"allow-diff-columns,attr"`
	Secure      string            `xml:"secure,attr"`
	Description string            `xml:"brief-description,attr"`
	XDAT        string            `xml:"xmlns:xdat,attr"`
	XSI         string            `xml:"xmlns:xsi,attr"`
	Root        string            `xml:"xdat:root_element_name"`
	Fields      []xdatSearchField `xml:"xdat:search_field"`
	Where       *xdatWhere        `xml:"xdat:search_where,omitempty"`
}

type xdatSearchField struct {
	Element  string `xml:"xdat:element_name"`
	FieldID  string `xml:"xdat:field_ID"`
	Sequence int    `xml:"xdat:sequence"`
	Type     string `xml:"xdat:type"`
	Header   string `xml:"xdat:header"`
}

type xdatWhere struct {
	XMLName  xml.Name
	Method   string         `xml:"method,attr"`
	Criteria []xdatCriteria `xml:"xdat:criteria"`
	Children []xdatWhere    `xml:"xdat:child_set"`
}

type xdatCriteria struct {
	Override string `xml:"override_value_formatting,attr"`
	Field    string `xml:"xdat:schema_field"`
	Op       string `xml:"xdat:comparison_type"`
	Value    string `xml:"xdat:value"`
}

func where(c Constraints, name string) xdatWhere {
	w := xdatWhere{XMLName: xml.Name{Local: name}, Method: c.Method}
	if w.Method == "" {
		w.Method = "AND"
	}
	for _, cr := range c.Criteria {
		w.Criteria = append(w.Criteria, xdatCriteria{Override: "0", Field: cr.Field, Op: cr.Op, Value: cr.Value})
	}
	for _, g := range c.Groups {
		w.Children = append(w.Children, where(g, "xdat:child_set"))
	}
	return w
}

// Document renders q as an xdat:search XML document.
func (q Query) Document() ([]byte, error) {
	if q.RootElement == "" {
		return nil, errors.New("search requires a root element")
	}
	doc := xdatSearch{
		AllowDiff: "0",
		Secure:    "false",
		XDAT:      xdatNS,
		XSI:       xsiNS,
		Root:      q.RootElement,
	}
	for i, f := range q.Fields {
		doc.Fields = append(doc.Fields, xdatSearchField{
			Element:  q.RootElement,
			FieldID:  f,
			Sequence: i,
			Type:     "string",
			Header:   strings.ToLower(f),
		})
	}
	if !q.Where.Empty() {
		w := where(q.Where, "xdat:search_where")
		doc.Where = &w
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, errors.Wrap(err, "encoding search")
	}
	return buf.Bytes(), nil
}

// Search runs q and returns each row keyed by lower-cased column name.
func (s *Session) Search(ctx context.Context, q Query) ([]map[string]string, error) {
	doc, err := q.Document()
	if err != nil {
		return nil, err
	}
	resp, err := s.do(ctx, http.MethodPost, "/data/search", url.Values{"format": {"json"}}, bytes.NewReader(doc))
	if err != nil {
		return nil, errors.Wrap(err, "searching")
	}
	defer resp.Body.Close()
	var rs resultSet[map[string]any]
	if err := json.NewDecoder(resp.Body).Decode(&rs); err != nil {
		return nil, errors.Wrap(err, "decoding search results")
	}
	rows := make([]map[string]string, 0, len(rs.ResultSet.Result))
	for _, r := range rs.ResultSet.Result {
		row := make(map[string]string, len(r))
		for k, v := range r {
			row[strings.ToLower(k)] = stringify(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
