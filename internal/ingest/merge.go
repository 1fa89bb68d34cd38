package ingest

import "cellsim/internal/model"

// Merge combines the three drive series on the weather timeline. Each
// weather sample takes the latest load profile and hot water factor at or
// before its timestamp; samples before the first profile row get zero.
// All inputs must be sorted by timestamp.
func Merge(weather, slp, hotWater []model.Sample) []model.Sample {
	out := make([]model.Sample, len(weather))
	si, hi := -1, -1
	for i, w := range weather {
		for si+1 < len(slp) && !slp[si+1].Timestamp.After(w.Timestamp) {
			si++
		}
		for hi+1 < len(hotWater) && !hotWater[hi+1].Timestamp.After(w.Timestamp) {
			hi++
		}
		out[i] = w
		if si >= 0 {
			out[i].SLP = slp[si].SLP
		}
		if hi >= 0 {
			out[i].HotWater = hotWater[hi].HotWater
		}
	}
	return out
}
