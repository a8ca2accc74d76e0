// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package dicomx

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/go-cmp/cmp"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

func mustElement(t *testing.T, tg tag.Tag, v []string) *dicom.Element {
	t.Helper()
	el, err := dicom.NewElement(tg, v)
	if err != nil {
		t.Fatalf("NewElement(%v) error = %v", tg, err)
	}
	return el
}

func TestFromDataset(t *testing.T) {
	for _, tc := range []struct {
		name     string
		elements func(t *testing.T) []*dicom.Element
		want     *Header
	}{
		{
			name: "listmode",
			elements: func(t *testing.T) []*dicom.Element {
				return []*dicom.Element{
					mustElement(t, tag.ImageType, []string{"ORIGINAL", "PRIMARY", "PET_LISTMODE"}),
					mustElement(t, tag.SeriesDescription, []string{"Head_HO_LM "}),
					mustElement(t, tag.StudyDate, []string{"20180511"}),
					mustElement(t, tag.SeriesTime, []string{"115744.000000"}),
					mustElement(t, tag.Modality, []string{"PT"}),
				}
			},
			want: &Header{
				ImageType:         []string{"ORIGINAL", "PRIMARY", "PET_LISTMODE"},
				SeriesDescription: "Head_HO_LM",
				StudyDate:         "20180511",
				SeriesTime:        "115744.000000",
				Modality:          "PT",
			},
		},
		{
			name: "umap",
			elements: func(t *testing.T) []*dicom.Element {
				return []*dicom.Element{
					mustElement(t, tag.SeriesDescription, []string{"Head_MRAC_Brain_HiRes_in_UMAP"}),
					mustElement(t, tag.SeriesDate, []string{"20180511"}),
					mustElement(t, tag.AcquisitionTime, []string{"081754.512500"}),
				}
			},
			want: &Header{
				SeriesDescription: "Head_MRAC_Brain_HiRes_in_UMAP",
				SeriesDate:        "20180511",
				AcquisitionTime:   "081754.512500",
			},
		},
		{
			name:     "empty",
			elements: func(t *testing.T) []*dicom.Element { return nil },
			want:     &Header{},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := FromDataset(dicom.Dataset{Elements: tc.elements(t)})
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("FromDataset() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadFileRejectsGarbage(t *testing.T) {
	fs := memfs.New()
	if err := util.WriteFile(fs, "rawdata/x.dcm", []byte("not a dicom file"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(fs, "rawdata/x.dcm"); err == nil {
		t.Error("ReadFile() of garbage succeeded")
	}
	if _, err := ReadFile(fs, "rawdata/missing.dcm"); err == nil {
		t.Error("ReadFile() of missing file succeeded")
	}
}
