package view

import (
	"sort"
	"time"

	"github.com/krew-solutions/smartview-go/smartview/fields"
	"github.com/krew-solutions/smartview-go/smartview/task"
)

// group buckets an already sorted, filtered task list by the primary and
// optional secondary dimension, using the same value-extraction path as
// filtering.
//
// Multi-valued dimensions fan out: a task carrying two labels appears once
// in each label bucket, not deduplicated, since a "group by label" view is
// expected to show a task under every label it carries. Tasks lacking a
// value for the dimension fall into the ungrouped bucket, ordered last.
func group(tasks []task.Task, groupBy, secondaryGroupBy string) []Bucket {
	if groupBy == "" {
		if len(tasks) == 0 {
			return nil
		}
		return []Bucket{{Key: UngroupedKey, Tasks: tasks}}
	}

	buckets := bucketize(tasks, groupBy)

	if secondaryGroupBy != "" {
		for i := range buckets {
			buckets[i].Groups = bucketize(buckets[i].Tasks, secondaryGroupBy)
			buckets[i].Tasks = nil
		}
	}
	return buckets
}

func bucketize(tasks []task.Task, fieldID string) []Bucket {
	byKey := make(map[string][]task.Task)
	for _, t := range tasks {
		for _, key := range groupKeys(t, fieldID) {
			byKey[key] = append(byKey[key], t)
		}
	}

	keys := make([]string, 0, len(byKey))
	for key := range byKey {
		keys = append(keys, key)
	}
	sortBucketKeys(keys, fields.TypeOf(fieldID))

	buckets := make([]Bucket, 0, len(keys))
	for _, key := range keys {
		buckets = append(buckets, Bucket{Key: key, Tasks: byKey[key]})
	}
	return buckets
}

// groupKeys maps a task's extracted value to its bucket keys. A nil value
// yields the ungrouped key; a multi-valued field yields one key per value.
func groupKeys(t task.Task, fieldID string) []string {
	value := fields.Value(t, fieldID)
	switch v := value.(type) {
	case nil:
		return []string{UngroupedKey}
	case []string:
		if len(v) == 0 {
			return []string{UngroupedKey}
		}
		return v
	case time.Time:
		return []string{v.Format("2006-01-02")}
	case string:
		return []string{v}
	}
	return []string{toText(value)}
}

// sortBucketKeys orders buckets deterministically: the state category
// dimension uses its natural workflow order, every other dimension sorts
// alphabetically. The ungrouped bucket is always last.
func sortBucketKeys(keys []string, fieldType fields.FieldType) {
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if (a == UngroupedKey) != (b == UngroupedKey) {
			return b == UngroupedKey
		}
		if fieldType == fields.TypeStateCategory {
			if ra, rb := stateRank(a), stateRank(b); ra != rb {
				return ra < rb
			}
		}
		return a < b
	})
}
