package databases

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoPaginate struct {
	limit int64
	skip  int64
}

func newMongoPaginate(limit, skip int) *mongoPaginate {
	if skip < 0 {
		skip = 0
	}
	return &mongoPaginate{
		limit: int64(limit),
		skip:  int64(skip),
	}
}

// getNewestFirstOpts sorts by createdAt descending, with _id breaking ties so
// messages inserted in the same millisecond keep their insertion order
func (mp *mongoPaginate) getNewestFirstOpts() *options.FindOptions {
	l := mp.limit
	s := mp.skip
	fOpt := options.FindOptions{
		Limit: &l,
		Skip:  &s,
		Sort:  bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}},
	}

	return &fOpt
}

// NewestFirst returns find options selecting the newest limit documents after
// skipping the newest skip ones
func NewestFirst(limit, skip int) *options.FindOptions {
	return newMongoPaginate(limit, skip).getNewestFirstOpts()
}
