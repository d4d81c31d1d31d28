package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tush00nka/filestash/internal/model"
)

func TestBuildMinimalFilter(t *testing.T) {
	preds := Build(Filter{OwnerID: "u1", Email: "me@x.io"})

	require.Len(t, preds, 2)
	assert.Equal(t, OwnedOrSharedWith{OwnerID: "u1", Email: "me@x.io"}, preds[0])
	assert.Equal(t, Order{Key: "$createdAt", Desc: true}, preds[1])
}

func TestBuildFullFilter(t *testing.T) {
	preds := Build(Filter{
		OwnerID: "u1",
		Email:   "me@x.io",
		Types:   []model.FileType{model.FileTypeImage, model.FileTypeVideo},
		Search:  "holiday",
		Sort:    "name-asc",
		Limit:   10,
	})

	want := []Predicate{
		OwnedOrSharedWith{OwnerID: "u1", Email: "me@x.io"},
		TypeIn{Types: []model.FileType{model.FileTypeImage, model.FileTypeVideo}},
		NameContains{Substring: "holiday"},
		Limit{N: 10},
		Order{Key: "name", Desc: false},
	}
	assert.Equal(t, want, preds)
}

func TestBuildIgnoresNonPositiveLimit(t *testing.T) {
	preds := Build(Filter{OwnerID: "u1", Limit: -3})
	for _, p := range preds {
		_, isLimit := p.(Limit)
		assert.False(t, isLimit)
	}
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		spec string
		want Order
	}{
		{"", Order{Key: "$createdAt", Desc: true}},
		{"size-asc", Order{Key: "size", Desc: false}},
		{"size-desc", Order{Key: "size", Desc: true}},
		{"name", Order{Key: "name", Desc: true}},
		{"name-sideways", Order{Key: "name", Desc: true}},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSort(tt.spec))
		})
	}
}
