package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "warm", "search", "sitemap"}, names)
}

func TestSearchRejectsBadFlagsBeforeWiring(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown scope", []string{"search", "--type", "comics", "dune"}, "unknown search type"},
		{"unknown output", []string{"search", "-o", "xml", "dune"}, "unknown output format"},
		{"missing query", []string{"search"}, "requires at least 1 arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newRootCmd()
			root.SetArgs(tt.args)
			root.SetOut(new(bytes.Buffer))
			root.SetErr(new(bytes.Buffer))

			err := root.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestWarmRejectsUnknownKind(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"warm", "comics"})
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown catalog kind")
}
