// Package model defines core domain types shared across the service.
package model

import "encoding/json"

// Wildcard is the subject for "no specific place": sample the whole pool.
const Wildcard SubjectID = "*"

// SubjectID identifies a Pleiades place, or is the Wildcard.
type SubjectID string

func (s SubjectID) IsWildcard() bool { return s == Wildcard }

func (s SubjectID) String() string { return string(s) }

// Related is the count of photos machine-tagged for a place and a link to
// browse them on Flickr.
type Related struct {
	Total int    `json:"total"`
	URL   string `json:"url"`
}

// Portrait is the display projection of one chosen pool photo.
type Portrait struct {
	Title string `json:"title"`
	Img   string `json:"img"`
	Page  string `json:"page"`
}

// PortraitResult distinguishes "not computed" (zero value, omitted from
// JSON) from "computed, nothing found" (Computed with a nil Photo, encoded
// as null).
type PortraitResult struct {
	Computed bool
	Photo    *Portrait
}

func FoundPortrait(p Portrait) PortraitResult { return PortraitResult{Computed: true, Photo: &p} }

func EmptyPortrait() PortraitResult { return PortraitResult{Computed: true} }

func (p PortraitResult) IsZero() bool { return !p.Computed }

func (p PortraitResult) MarshalJSON() ([]byte, error) {
	if p.Photo == nil {
		return []byte("null"), nil
	}
	return json.Marshal(p.Photo)
}

// Response is the document served to the place page. A key is present
// only when the corresponding upstream call succeeded.
type Response struct {
	Related  *Related       `json:"related,omitempty"`
	Portrait PortraitResult `json:"portrait,omitzero"`
}
