// Package query builds the ordered predicate lists sent to the document store
// when listing files.
package query

import (
	"strings"

	"tush00nka/filestash/internal/model"
)

// DefaultSort is applied when a filter carries no sort spec.
const DefaultSort = "$createdAt-desc"

// Predicate is one filter, limit or ordering clause understood by the document store.
type Predicate interface {
	predicate()
}

// OwnedOrSharedWith matches files owned by OwnerID or shared with Email.
type OwnedOrSharedWith struct {
	OwnerID string
	Email   string
}

// OwnedBy matches files owned by OwnerID only.
type OwnedBy struct {
	OwnerID string
}

// TypeIn matches files whose type is one of Types.
type TypeIn struct {
	Types []model.FileType
}

// NameContains matches files whose name contains Substring.
type NameContains struct {
	Substring string
}

type Limit struct {
	N int
}

type Order struct {
	Key  string
	Desc bool
}

func (OwnedOrSharedWith) predicate() {}
func (OwnedBy) predicate()           {}
func (TypeIn) predicate()            {}
func (NameContains) predicate()      {}
func (Limit) predicate()             {}
func (Order) predicate()             {}

// Filter is the listing request of one user.
type Filter struct {
	OwnerID string
	Email   string
	Types   []model.FileType
	Search  string
	Sort    string
	Limit   int
}

// Build turns f into predicates. The ownership predicate always comes first.
func Build(f Filter) []Predicate {
	preds := []Predicate{OwnedOrSharedWith{OwnerID: f.OwnerID, Email: f.Email}}

	if len(f.Types) > 0 {
		preds = append(preds, TypeIn{Types: f.Types})
	}
	if f.Search != "" {
		preds = append(preds, NameContains{Substring: f.Search})
	}
	if f.Limit > 0 {
		preds = append(preds, Limit{N: f.Limit})
	}

	return append(preds, ParseSort(f.Sort))
}

// ParseSort reads a "key-direction" spec such as "name-asc". Anything but an
// explicit "asc" direction sorts descending.
func ParseSort(spec string) Order {
	if spec == "" {
		spec = DefaultSort
	}

	key, dir, _ := strings.Cut(spec, "-")
	return Order{Key: key, Desc: dir != "asc"}
}
