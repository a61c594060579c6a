package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cs2econ/internal/econ"
)

func TestSnapshotTableToleratesShortChecksum(t *testing.T) {
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	snapshots := []econ.TeamSnapshot{
		{RoundNumber: 1, Team: econ.TeamCT, Checksum: "abc"},
		{RoundNumber: 1, Team: econ.TeamT, Checksum: "fedcba9876543210aa"},
	}
	require.NoError(t, writeSnapshotTable(cmd, snapshots))

	assert.Contains(t, out.String(), "abc")
	assert.Contains(t, out.String(), "fedcba987654")
	assert.NotContains(t, out.String(), "fedcba98765432")
}
