// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package dicomx reads the DICOM header fields used to classify and place PET files.
package dicomx

import (
	"io"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/pkg/errors"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Header holds the subset of DICOM attributes xnatpet relies on.
// Absent attributes are left empty.
type Header struct {
	SeriesDescription    string
	SeriesDate           string
	SeriesTime           string
	StudyDate            string
	StudyTime            string
	AcquisitionTime      string
	InstanceCreationTime string
	ImageType            []string
	Modality             string
}

// Read parses a DICOM stream of the given size, skipping pixel data.
func Read(r io.Reader, size int64) (*Header, error) {
	ds, err := dicom.Parse(r, size, nil, dicom.SkipPixelData())
	if err != nil {
		return nil, errors.Wrap(err, "parsing DICOM")
	}
	return FromDataset(ds), nil
}

// ReadFile parses the DICOM file at p in fs.
func ReadFile(fs billy.Filesystem, p string) (*Header, error) {
	fi, err := fs.Stat(p)
	if err != nil {
		return nil, err
	}
	f, err := fs.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	h, err := Read(f, fi.Size())
	return h, errors.Wrap(err, p)
}

// FromDataset extracts a Header from a parsed dataset.
func FromDataset(ds dicom.Dataset) *Header {
	return &Header{
		SeriesDescription:    first(ds, tag.SeriesDescription),
		SeriesDate:           first(ds, tag.SeriesDate),
		SeriesTime:           first(ds, tag.SeriesTime),
		StudyDate:            first(ds, tag.StudyDate),
		StudyTime:            first(ds, tag.StudyTime),
		AcquisitionTime:      first(ds, tag.AcquisitionTime),
		InstanceCreationTime: first(ds, tag.InstanceCreationTime),
		ImageType:            values(ds, tag.ImageType),
		Modality:             first(ds, tag.Modality),
	}
}

func values(ds dicom.Dataset, t tag.Tag) []string {
	el, err := ds.FindElementByTag(t)
	if err != nil || el.Value == nil || el.Value.ValueType() != dicom.Strings {
		return nil
	}
	raw, _ := el.Value.GetValue().([]string)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		out = append(out, strings.Trim(v, " \x00"))
	}
	return out
}

func first(ds dicom.Dataset, t tag.Tag) string {
	if vs := values(ds, t); len(vs) > 0 {
		return vs[0]
	}
	return ""
}
