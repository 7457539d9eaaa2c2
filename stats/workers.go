package stats

import (
	"golang.org/x/exp/slices"
	"strconv"
	"strings"
)

// workerSortField is the positional field in a stratum worker record the
// sorted view orders by, descending.
const workerSortField = 3

// WorkerRecord is one stratum worker entry split into its positional fields.
type WorkerRecord []string

func (w WorkerRecord) String() string {
	return strings.Join(w, ",")
}

// SortedWorkers splits each raw worker entry on commas and returns the
// records ordered descending by the integer value of field 3. Entries that
// are too short or whose sort field does not parse as an integer are dropped;
// the remaining records are still returned.
func SortedWorkers(entries []string) []WorkerRecord {
	type keyed struct {
		record WorkerRecord
		key    int64
	}
	records := make([]keyed, 0, len(entries))
	for _, entry := range entries {
		fields := strings.Split(entry, ",")
		if len(fields) <= workerSortField {
			continue
		}
		key, err := strconv.ParseInt(fields[workerSortField], 10, 64)
		if err != nil {
			continue
		}
		records = append(records, keyed{record: fields, key: key})
	}
	slices.SortStableFunc(records, func(a, b keyed) bool {
		return a.key > b.key
	})
	out := make([]WorkerRecord, 0, len(records))
	for _, r := range records {
		out = append(out, r.record)
	}
	return out
}
