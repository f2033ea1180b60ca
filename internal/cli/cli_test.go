package cli

import (
	"bytes"
	"testing"

	"github.com/driveshare/marketing-dispatch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandTree(t *testing.T) {
	root := Command()

	names := []string{}
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"run", "stats", "migrate"}, names)

	stats, _, err := root.Find([]string{"stats"})
	require.NoError(t, err)
	flag := stats.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "30", flag.DefValue)
}

func TestStats_RejectsNonPositiveLimit(t *testing.T) {
	root := Command()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"stats", "--limit", "0"})

	err := root.Execute()
	assert.ErrorIs(t, err, domain.ErrInvalidLimit)
}

func TestRun_RejectsArguments(t *testing.T) {
	root := Command()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"run", "now"})

	assert.Error(t, root.Execute())
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, domain.RunResult{RunID: "r1", Sent: 2}))
	assert.Contains(t, buf.String(), "\"sent\": 2")
}
