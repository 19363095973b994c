package labels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelector(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		tags map[string]string
		want string
	}{
		{"empty", nil, ""},
		{"single", map[string]string{"role": "external"}, "role=external"},
		{"sorted", map[string]string{"zone": "1", "cluster": "prod"}, "cluster=prod,zone=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Selector(tt.tags))
		})
	}
}

func TestParseSelector(t *testing.T) {
	t.Parallel()

	got, err := ParseSelector(" cluster = prod, role=external ,")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"cluster": "prod", "role": "external"}, got)

	got, err = ParseSelector("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ParseSelector("cluster")
	assert.Error(t, err)

	_, err = ParseSelector("=prod")
	assert.Error(t, err)
}

func TestSelectorRoundTrip(t *testing.T) {
	t.Parallel()
	tags := map[string]string{"a": "1", "b": "2"}
	got, err := ParseSelector(Selector(tags))
	require.NoError(t, err)
	assert.Equal(t, tags, got)
}

func TestMerge(t *testing.T) {
	t.Parallel()
	base := map[string]string{"a": "1", "b": "2"}
	merged := Merge(base, map[string]string{"b": "3", KeyManagedBy: ManagedByHafloat})

	assert.Equal(t, map[string]string{"a": "1", "b": "3", KeyManagedBy: ManagedByHafloat}, merged)
	assert.Equal(t, "2", base["b"], "base must not be modified")
}
