package shell

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReplaceEnvVars(t *testing.T) {
	t.Setenv("NEOLINK_TEST_PASS", "secret")

	s := ReplaceEnvVars("bc://${NEOLINK_TEST_USER:admin}:${NEOLINK_TEST_PASS}@192.168.1.10")
	require.Equal(t, "bc://admin:secret@192.168.1.10", s)

	s = ReplaceEnvVars("bc://${NEOLINK_TEST_MISSING}@192.168.1.10")
	require.Equal(t, "bc://${NEOLINK_TEST_MISSING}@192.168.1.10", s)
}
