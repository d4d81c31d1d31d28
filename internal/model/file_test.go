package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyFile(t *testing.T) {
	tests := []struct {
		name     string
		wantType FileType
		wantExt  string
	}{
		{"report.pdf", FileTypeDocument, "pdf"},
		{"Holiday.JPG", FileTypeImage, "jpg"},
		{"clip.final.mp4", FileTypeVideo, "mp4"},
		{"song.flac", FileTypeAudio, "flac"},
		{"archive.zip", FileTypeOther, "zip"},
		{"Makefile", FileTypeOther, ""},
		{"", FileTypeOther, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, gotExt := ClassifyFile(tt.name)
			assert.Equal(t, tt.wantType, gotType)
			assert.Equal(t, tt.wantExt, gotExt)
		})
	}
}

func TestFileTypeValid(t *testing.T) {
	for _, ft := range FileTypes {
		assert.True(t, ft.Valid(), ft)
	}
	assert.False(t, FileType("spreadsheet").Valid())
}

func TestAfterFindPopulatesSharedWith(t *testing.T) {
	f := &File{Shares: []FileShare{{FileID: "f1", Email: "a@x.io"}, {FileID: "f1", Email: "b@x.io"}}}
	assert.NoError(t, f.AfterFind(nil))
	assert.Equal(t, []string{"a@x.io", "b@x.io"}, f.SharedWith)
	assert.True(t, f.SharedWithEmail("b@x.io"))
	assert.False(t, f.SharedWithEmail("c@x.io"))
}
