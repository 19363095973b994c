// Package labels converts between tag maps and label selector strings.
package labels

import (
	"fmt"
	"slices"
	"strings"
)

// Standard label keys written by hafloat.
const (
	// KeyManagedBy identifies the management system
	KeyManagedBy = "hafloat.io/managed-by"

	// KeyRunID identifies the failover run that last touched a resource
	KeyRunID = "hafloat.io/run-id"
)

// ManagedBy values
const (
	ManagedByHafloat = "hafloat"
)

// Selector returns a label selector matching every key=value pair in tags.
// Keys are sorted so the result is stable.
func Selector(tags map[string]string) string {
	pairs := make([]string, 0, len(tags))
	for k, v := range tags {
		pairs = append(pairs, k+"="+v)
	}
	slices.Sort(pairs)
	return strings.Join(pairs, ",")
}

// ParseSelector parses "k1=v1,k2=v2" into a map. Whitespace around keys and
// values is ignored.
func ParseSelector(selector string) (map[string]string, error) {
	out := map[string]string{}
	for _, part := range strings.Split(selector, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid selector term %q: expected key=value", part)
		}
		out[key] = strings.TrimSpace(value)
	}
	return out, nil
}

// Merge returns a new map holding base overlaid with extra.
func Merge(base, extra map[string]string) map[string]string {
	result := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		result[k] = v
	}
	for k, v := range extra {
		result[k] = v
	}
	return result
}
