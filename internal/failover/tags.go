package failover

import (
	"fmt"
	"strings"
)

// Tag is the array-of-pairs tag shape used by some clouds.
type Tag struct {
	Key   string `json:"Key" yaml:"Key"`
	Value string `json:"Value" yaml:"Value"`
}

// Tagged is a resource carrying normalized tags.
type Tagged interface {
	TagMap() map[string]string
}

// Named is a resource with an identity and a display name.
type Named interface {
	Identity() (id, name string)
}

// NormalizeTags converts the tag shapes seen across providers into a single
// key→value map. Unknown shapes yield an empty map.
func NormalizeTags(tags any) map[string]string {
	out := map[string]string{}
	switch t := tags.(type) {
	case nil:
	case map[string]string:
		for k, v := range t {
			out[k] = v
		}
	case map[string]*string:
		for k, v := range t {
			if v != nil {
				out[k] = *v
			} else {
				out[k] = ""
			}
		}
	case map[string]any:
		for k, v := range t {
			out[k] = stringify(v)
		}
	case []Tag:
		for _, tag := range t {
			out[tag.Key] = tag.Value
		}
	case []map[string]string:
		for _, tag := range t {
			if k, ok := tag["Key"]; ok {
				out[k] = tag["Value"]
			}
		}
	case []any:
		for _, item := range t {
			pair, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if k, ok := pair["Key"].(string); ok {
				out[k] = stringify(pair["Value"])
			}
		}
	}
	return out
}

func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case *string:
		if s == nil {
			return ""
		}
		return *s
	default:
		return fmt.Sprint(s)
	}
}

// MatchesTags reports whether every required key is present on tags with an
// exactly equal, case-sensitive value.
func MatchesTags(tags, required map[string]string) bool {
	for k, want := range required {
		got, ok := tags[k]
		if !ok || got != want {
			return false
		}
	}
	return true
}

// FilterByTags keeps resources carrying every required tag. An empty
// requirement keeps everything; callers reject it during validation.
func FilterByTags[T Tagged](resources []T, required map[string]string) []T {
	out := make([]T, 0, len(resources))
	for _, r := range resources {
		if MatchesTags(r.TagMap(), required) {
			out = append(out, r)
		}
	}
	return out
}

// FilterByName keeps resources whose identity or display name equals name.
func FilterByName[T Named](resources []T, name string) []T {
	out := make([]T, 0, len(resources))
	for _, r := range resources {
		id, display := r.Identity()
		if id == name || display == name {
			out = append(out, r)
		}
	}
	return out
}

// SelectRouteTables applies the group's selector. A name selector takes
// precedence over tags.
func SelectRouteTables(tables []RouteTable, group RouteGroup) []RouteTable {
	if group.Name != "" {
		return FilterByName(tables, group.Name)
	}
	return FilterByTags(tables, group.Tags)
}

// SplitAddressList parses a tag value listing addresses. Commas and
// whitespace both separate entries; surrounding brackets and quotes are
// dropped so that a JSON-style array also parses.
func SplitAddressList(value string) []string {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "[")
	value = strings.TrimSuffix(value, "]")
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, `"'`)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
