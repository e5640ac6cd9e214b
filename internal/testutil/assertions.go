package testutil

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vk/endfgo/internal/resultmap"
	"gopkg.in/yaml.v3"
)

// AssertLogged checks that the captured log output contains substr.
func AssertLogged(t *testing.T, logs *SafeBuffer, substr string) {
	t.Helper()

	require.True(t,
		strings.Contains(logs.String(), substr),
		"expected %q in log output:\n%s", substr, logs.String(),
	)
}

// RequireMapEqual fails with a readable diff when the two mappings differ.
// Numbers compare by value, so 1 and 1.0 are equal.
func RequireMapEqual(t *testing.T, want, got *resultmap.Map) {
	t.Helper()

	require.NotNil(t, got)
	if !want.Equal(got) {
		wantYAML, _ := yaml.Marshal(want)
		gotYAML, _ := yaml.Marshal(got)
		t.Fatalf("result mapping mismatch (-want +got):\n%s", cmp.Diff(string(wantYAML), string(gotYAML)))
	}
}
