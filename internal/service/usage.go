package service

import "tush00nka/filestash/internal/model"

// DefaultCapacity is the storage available to each user.
const DefaultCapacity int64 = 2 * 1024 * 1024 * 1024

// AggregateUsage sums file sizes per type and tracks the most recent
// modification of each type. Records with an unknown type count as other.
func AggregateUsage(files []model.File, capacity int64) *model.SpaceUsage {
	usage := &model.SpaceUsage{
		PerType: make(map[model.FileType]model.TypeUsage, len(model.FileTypes)),
		All:     capacity,
	}
	for _, t := range model.FileTypes {
		usage.PerType[t] = model.TypeUsage{}
	}

	for _, f := range files {
		fileType := f.Type
		if !fileType.Valid() {
			fileType = model.FileTypeOther
		}

		bucket := usage.PerType[fileType]
		bucket.Size += f.Size
		if bucket.LatestDate == nil || f.UpdatedAt.After(*bucket.LatestDate) {
			latest := f.UpdatedAt
			bucket.LatestDate = &latest
		}
		usage.PerType[fileType] = bucket
		usage.Used += f.Size
	}

	return usage
}
