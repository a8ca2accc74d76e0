// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package classify decides what a downloaded PET file is from its header,
// content or name.
package classify

import (
	"path"
	"regexp"
	"strings"

	"github.com/ccir/xnatpet/internal/dicomx"
	"github.com/pkg/errors"
)

// DefaultUmapDescription is the series description of MR-derived attenuation maps.
const DefaultUmapDescription = "Head_MRAC_Brain_HiRes_in_UMAP"

const (
	imageTypeNorm     = "PET_NORM"
	imageTypeListmode = "PET_LISTMODE"
)

func isImageType(h *dicomx.Header, kind string) bool {
	if h == nil || len(h.ImageType) != 3 {
		return false
	}
	return h.ImageType[0] == "ORIGINAL" && h.ImageType[1] == "PRIMARY" && h.ImageType[2] == kind
}

// IsNorm reports whether h is a normalization (ORIGINAL\PRIMARY\PET_NORM).
func IsNorm(h *dicomx.Header) bool { return isImageType(h, imageTypeNorm) }

// IsListmode reports whether h is a listmode acquisition (ORIGINAL\PRIMARY\PET_LISTMODE).
func IsListmode(h *dicomx.Header) bool { return isImageType(h, imageTypeListmode) }

var radiopharmaceutical = regexp.MustCompile(`Radiopharmaceutical:([A-Za-z\-]+)`)

// TracerInContent returns the tracer named after "Radiopharmaceutical:" in raw content.
func TracerInContent(b []byte) (Tracer, error) {
	m := radiopharmaceutical.FindSubmatch(b)
	if m == nil {
		return "", errors.New("no radiopharmaceutical in content")
	}
	return Tracer(m[1]), nil
}

// IsTracer reports whether content names tracer t.
func IsTracer(b []byte, t Tracer) (bool, error) {
	got, err := TracerInContent(b)
	if err != nil {
		return false, err
	}
	return got == t, nil
}

// IsUmap reports whether h describes an attenuation map series.
func IsUmap(h *dicomx.Header, description string) bool {
	if description == "" {
		description = DefaultUmapDescription
	}
	return h != nil && h.SeriesDescription == description
}

// IsSecondaryCapture reports whether a modality is SC or SR, which are never converted.
func IsSecondaryCapture(modality string) bool {
	m := strings.Trim(strings.TrimSpace(modality), `'"`)
	return m == "SC" || m == "SR"
}

// IsCTHead reports whether a file name belongs to a head CT series.
func IsCTHead(name string) bool {
	return strings.Contains(name, ".CT.Head")
}

func swapExt(name, ext string) string {
	return strings.TrimSuffix(name, path.Ext(name)) + ext
}

// BFName returns the listmode/norm data file paired with a .dcm header file.
func BFName(name string) string { return swapExt(name, ".bf") }

// DCMName returns the .dcm header file paired with a .bf data file.
func DCMName(name string) string { return swapExt(name, ".dcm") }
