package mcptool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTools_NamesAreUnique(t *testing.T) {
	tools := Tools()
	seen := make(map[string]bool)
	for _, tool := range tools {
		assert.False(t, seen[tool.Name], "duplicate tool name %q", tool.Name)
		seen[tool.Name] = true
	}
	assert.Len(t, tools, 18)
}

func TestTools_RequiredFieldsAreDeclaredProperties(t *testing.T) {
	for _, tool := range Tools() {
		for _, req := range tool.InputSchema.Required {
			_, ok := tool.InputSchema.Properties[req]
			assert.True(t, ok, "tool %q declares %q required but not as a property", tool.Name, req)
		}
	}
}

func TestTools_EveryToolHasNameAndDescription(t *testing.T) {
	for _, tool := range Tools() {
		assert.NotEmpty(t, tool.Name)
		assert.NotEmpty(t, tool.Description)
	}
}

func TestTools_SearchRequiresQuery(t *testing.T) {
	tools := Tools()
	var search *Tool
	for i := range tools {
		if tools[i].Name == "oracle_search" {
			search = &tools[i]
		}
	}
	require.NotNil(t, search)
	assert.Contains(t, search.InputSchema.Required, "query")
}
