package cmd

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/aqlanhadi/analyzer/analyzer"
	"github.com/aqlanhadi/analyzer/categorizer"
	"github.com/aqlanhadi/analyzer/matching"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterFlagsOptions(t *testing.T) {
	f := filterFlags{from: "2024-03-01", min: "10", direction: "out", search: "uber", only0488: true}

	opts, err := f.options()
	require.NoError(t, err)

	var got analyzer.DashboardFilters
	for _, opt := range opts {
		opt(&got)
	}
	require.NotNil(t, got.DateRange)
	assert.Equal(t, "2024-03-01", got.DateRange.Start)
	assert.Equal(t, "", got.DateRange.End)
	require.NotNil(t, got.AmountMin)
	assert.Equal(t, "10", got.AmountMin.String())
	assert.Nil(t, got.AmountMax)
	assert.EqualValues(t, "OUT", got.Direction)
	assert.Equal(t, "uber", got.Search)
	assert.True(t, got.OnlyTransfersTo0488)
	assert.False(t, got.OnlyACHTo0478)
}

func TestFilterFlagsOptions_Invalid(t *testing.T) {
	_, err := (&filterFlags{min: "ten"}).options()
	assert.ErrorContains(t, err, "invalid amount")

	_, err = (&filterFlags{direction: "sideways"}).options()
	assert.ErrorContains(t, err, "direction must be IN or OUT")
}

func TestListenAddr(t *testing.T) {
	assert.Equal(t, ":8080", listenAddr("8080"))
	assert.Equal(t, ":9000", listenAddr(":9000"))
	assert.Equal(t, "127.0.0.1:8080", listenAddr("127.0.0.1:8080"))
}

func run(t *testing.T, args ...string) []byte {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.Bytes()
}

func TestCommands_PersistAcrossRuns(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ledger.json")
	base := []string{"--storage", "file", "--db", db, "--json"}
	with := func(args ...string) []string { return append(append([]string{}, base...), args...) }

	run(t, with("project", "create", "Taxes", "2024")...)

	var projects []analyzer.Project
	require.NoError(t, json.Unmarshal(run(t, with("project", "list")...), &projects))
	require.Len(t, projects, 1)
	assert.Equal(t, "Taxes 2024", projects[0].Name)

	run(t, with("rules", "add", "--id", "rent", "--type", "contains", "Rent", "PROPERTY MGMT")...)

	var rules []matching.Rule
	require.NoError(t, json.Unmarshal(run(t, with("rules", "list")...), &rules))
	rule, ok := matching.Find(rules, "rent")
	require.True(t, ok)
	assert.Equal(t, []string{"PROPERTY MGMT"}, rule.Patterns)
	assert.True(t, rule.Enabled)
	assert.Len(t, rules, len(matching.DefaultRules())+1)

	run(t, with("rules", "disable", "rent")...)
	require.NoError(t, json.Unmarshal(run(t, with("rules", "list")...), &rules))
	rule, _ = matching.Find(rules, "rent")
	assert.False(t, rule.Enabled)

	run(t, with("override", "add", "COSTCO", "Groceries")...)

	var overrides []categorizer.Override
	require.NoError(t, json.Unmarshal(run(t, with("override", "list")...), &overrides))
	assert.Equal(t, []categorizer.Override{{Pattern: "COSTCO", Category: "Groceries"}}, overrides)
}
