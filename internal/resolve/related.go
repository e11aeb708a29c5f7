package resolve

import (
	"context"
	"fmt"

	"github.com/pleiades/flickr-portlet/internal/cache/bucketed"
	"github.com/pleiades/flickr-portlet/internal/core/model"
	"github.com/pleiades/flickr-portlet/internal/flickr"
)

// RelatedTag is the machine tag linking photos to subject.
func RelatedTag(subject model.SubjectID) string {
	return relatedTagPrefix + subject.String()
}

// Related counts photos machine-tagged for subject and links to the tag
// browse page. The URL is set even when the count is zero.
func (r *Resolver) Related(ctx context.Context, subject model.SubjectID) (model.Related, error) {
	tag := RelatedTag(subject)
	photos, err := r.fetch(ctx, bucketed.OpRelated, subject.String(), flickr.SearchByMachineTag(tag))
	if err != nil {
		return model.Related{}, fmt.Errorf("related %s: %w", subject, err)
	}
	return model.Related{
		Total: photos.Total.Int(),
		URL:   r.cfg.TagsBase + tag,
	}, nil
}
