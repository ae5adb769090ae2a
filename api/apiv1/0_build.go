package apiv1

import (
	"github.com/fulldump/box"
)

func BuildV1(v1 *box.R) *box.R {

	v1.Resource("/rows").
		WithActions(
			box.Post(insertRows),
		)

	v1.Resource("/latest-at").
		WithActions(
			box.Post(latestAt),
		)

	v1.Resource("/latest-at-many").
		WithActions(
			box.Post(latestAtMany),
		)

	v1.Resource("/invalidate").
		WithActions(
			box.Post(invalidate),
		)

	v1.Resource("/stats").
		WithActions(
			box.Get(getStats),
		)

	v1.Resource("/gc").
		WithActions(
			box.Post(garbageCollect),
		)

	return v1
}
