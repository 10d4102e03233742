package utils

import (
	"github.com/fatih/structs"
)

// MergeMaps merges the passed maps left to right into a new map. With
// overwrite set, later maps replace values of earlier ones; otherwise the
// first value for a key wins.
func MergeMaps(overwrite bool, maps ...map[string]any) map[string]any {
	merged := make(map[string]any)
	for _, m := range maps {
		for k, v := range m {
			if _, ok := merged[k]; ok && !overwrite {
				continue
			}
			merged[k] = v
		}
	}
	return merged
}

// FieldTagNames returns the tag names of the passed struct fields for the
// given tag key, skipping untagged and ignored fields.
func FieldTagNames(fields []*structs.Field, tag string) []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		if name := f.Tag(tag); name != "" && name != "-" {
			names = append(names, name)
		}
	}
	return names
}
