package domain

import "sort"

// SortRecords orders records newest first: by date descending, then by
// timestamp descending. The input slice is not modified.
func SortRecords(records []Record) []Record {
	out := make([]Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}
