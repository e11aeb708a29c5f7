// Package subject maps the object a request is about onto the place id the
// Flickr queries are keyed by.
package subject

import (
	"strings"

	"github.com/pleiades/flickr-portlet/internal/core/model"
)

// Place is a gazetteer place with its own id, such as "149492".
type Place interface {
	PlaceID() string
}

// PlaceChild is a record owned by a place, such as a name or a location.
type PlaceChild interface {
	ParentPlaceID() string
}

// Resolve returns the subject for ctx. Places use their own id, children
// their parent's, and anything else (nil included) is the wildcard. A blank
// id also resolves to the wildcard.
func Resolve(ctx any) model.SubjectID {
	var id string
	switch v := ctx.(type) {
	case Place:
		id = v.PlaceID()
	case PlaceChild:
		id = v.ParentPlaceID()
	default:
		return model.Wildcard
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return model.Wildcard
	}
	return model.SubjectID(id)
}

// PlaceRef is a Place known only by id.
type PlaceRef string

func (p PlaceRef) PlaceID() string { return string(p) }

// NameRef is a name record of a place.
type NameRef struct {
	Place string
	Name  string
}

func (n NameRef) ParentPlaceID() string { return n.Place }

// LocationRef is a location record of a place.
type LocationRef struct {
	Place    string
	Location string
}

func (l LocationRef) ParentPlaceID() string { return l.Place }
