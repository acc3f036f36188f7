package viewer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mesh-intelligence/tabler/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	rows := []types.Record{"stdnt_id,var_id", "1,7", "2,11"}
	require.NoError(t, Render(&buf, "testing_table", rows))

	out := buf.String()
	assert.Contains(t, out, "testing_table")
	for _, want := range []string{"id", "stdnt_id", "var_id", "7", "11"} {
		assert.Contains(t, out, want)
	}
	assert.Less(t, strings.Index(out, "stdnt_id"), strings.Index(out, "11"), "header precedes rows")
}

func TestRender_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, "t", nil))
	assert.Contains(t, buf.String(), "(empty table)")
}

func TestRender_RaggedRows(t *testing.T) {
	var buf bytes.Buffer
	rows := []types.Record{"a,b", "1", "1,2,3"}
	require.NoError(t, Render(&buf, "t", rows))
	assert.NotContains(t, buf.String(), "3", "extra fields are dropped")
}

func TestFit(t *testing.T) {
	assert.Equal(t, []string{"a", ""}, fit([]string{"a"}, 2))
	assert.Equal(t, []string{"a"}, fit([]string{"a", "b"}, 1))
}
