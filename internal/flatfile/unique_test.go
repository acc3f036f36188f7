package flatfile

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUnique(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		candidate string
		want      bool
	}{
		{name: "empty content accepts record", content: "", candidate: "1,42", want: true},
		{name: "exact match is duplicate", content: "a,b\n1,42\n", candidate: "1,42", want: false},
		{name: "prefix is not a match", content: "1,421\n", candidate: "1,42", want: true},
		{name: "last line without newline matches", content: "a\n1,42", candidate: "1,42", want: false},
		{name: "display form does not match disk form", content: "1,42\n", candidate: "1 42", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsUnique(strings.NewReader(tt.content), tt.candidate)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsUnique_ReadError(t *testing.T) {
	boom := errors.New("disk on fire")
	unique, err := IsUnique(iotest.ErrReader(boom), "1,42")
	assert.ErrorIs(t, err, boom)
	assert.False(t, unique, "read failure must not report the record as unique")
}

func TestIsUnique_ConsumesReader(t *testing.T) {
	r := strings.NewReader("x\ny\n")
	_, err := IsUnique(r, "z")
	require.NoError(t, err)
	assert.Zero(t, r.Len())
}
