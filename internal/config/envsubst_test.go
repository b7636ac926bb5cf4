package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("DICE_TEST_SET", "hello")
	t.Setenv("DICE_TEST_EMPTY", "")

	tests := []struct {
		name        string
		in          string
		want        string
		wantMissing []string
	}{
		{"plain", "v = ${DICE_TEST_SET}", "v = hello", nil},
		{"unset stays in place", "v = ${DICE_TEST_NEVER_SET}", "v = ${DICE_TEST_NEVER_SET}", []string{"DICE_TEST_NEVER_SET"}},
		{"set but empty is resolved", "v = '${DICE_TEST_EMPTY}'", "v = ''", nil},
		{"default when unset", "v = ${DICE_TEST_NEVER_SET:-fallback}", "v = fallback", nil},
		{"default when empty", "v = ${DICE_TEST_EMPTY:-fallback}", "v = fallback", nil},
		{"value beats default", "v = ${DICE_TEST_SET:-fallback}", "v = hello", nil},
		{"empty default", `v = "${DICE_TEST_NEVER_SET:-}"`, `v = ""`, nil},
		{"required message", "v = ${DICE_TEST_EMPTY:?key is required}", "v = ${DICE_TEST_EMPTY:?key is required}", []string{"DICE_TEST_EMPTY: key is required"}},
		{"required satisfied", "v = ${DICE_TEST_SET:?key is required}", "v = hello", nil},
		{
			"several",
			"${DICE_TEST_SET} ${DICE_TEST_NEVER_SET} ${DICE_TEST_EMPTY:-three}",
			"hello ${DICE_TEST_NEVER_SET} three",
			[]string{"DICE_TEST_NEVER_SET"},
		},
		{"not a reference", "v = $HOME and ${}", "v = $HOME and ${}", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, missing := substituteEnvVars(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantMissing, missing)
		})
	}
}
