package model

import "time"

type TypeUsage struct {
	Size       int64      `json:"size"`
	LatestDate *time.Time `json:"latest_date"`
}

// SpaceUsage is the per-type storage report of one user.
type SpaceUsage struct {
	PerType map[FileType]TypeUsage `json:"per_type"`
	Used    int64                  `json:"used"`
	All     int64                  `json:"all"`
}
