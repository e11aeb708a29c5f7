package resolve

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/pleiades/flickr-portlet/internal/cache/bucketed"
	"github.com/pleiades/flickr-portlet/internal/core/model"
	"github.com/pleiades/flickr-portlet/internal/core/observability"
	"github.com/pleiades/flickr-portlet/internal/flickr"
)

// DepictsTag is the pool tag for photos depicting subject. The wildcard has
// none: the whole pool is listed.
func DepictsTag(subject model.SubjectID) string {
	if subject.IsWildcard() {
		return ""
	}
	return depictsTagPrefix + subject.String()
}

// Portrait picks one photo from the group pool. A concrete subject gets its
// most viewed photo; the wildcard gets a uniform random one. No candidates
// is an explicit empty result, not an error.
func (r *Resolver) Portrait(ctx context.Context, subject model.SubjectID) (model.PortraitResult, error) {
	mode := "ranked"
	if subject.IsWildcard() {
		mode = "random"
	}

	q := flickr.PoolPhotos(r.cfg.PoolID, DepictsTag(subject), portraitExtraView)
	photos, err := r.fetch(ctx, bucketed.OpPortrait, subject.String(), q)
	if err != nil {
		observability.IncPortraitSelection(mode, "error")
		return model.PortraitResult{}, fmt.Errorf("portrait %s: %w", subject, err)
	}
	if len(photos.Photo) == 0 {
		observability.IncPortraitSelection(mode, "empty")
		return model.EmptyPortrait(), nil
	}

	var chosen flickr.Photo
	if subject.IsWildcard() {
		chosen = photos.Photo[r.intn(len(photos.Photo))]
	} else {
		chosen = MostViewed(photos.Photo)
	}
	observability.IncPortraitSelection(mode, "found")
	return model.FoundPortrait(r.project(chosen)), nil
}

// MostViewed returns the photo with the highest view count; ties keep the
// earliest in input order. cands must not be empty.
func MostViewed(cands []flickr.Photo) flickr.Photo {
	sorted := slices.Clone(cands)
	slices.SortStableFunc(sorted, func(a, b flickr.Photo) int {
		return b.Views.Int() - a.Views.Int()
	})
	return sorted[0]
}

func (r *Resolver) project(p flickr.Photo) model.Portrait {
	return model.Portrait{
		Title: PortraitTitle(p.Title, p.OwnerName),
		Img:   fmt.Sprintf("https://farm%d.staticflickr.com/%s/%s_%s_m.jpg", p.Farm.Int(), p.Server, p.ID, p.Secret),
		Page:  fmt.Sprintf("https://flickr.com/photos/%s/%s/in/pool-%s", p.Owner, p.ID, r.cfg.PoolID),
	}
}

// PortraitTitle strips trailing spaces and periods from title and credits owner.
func PortraitTitle(title, owner string) string {
	return strings.TrimRight(title, " .") + " by " + owner + "."
}
