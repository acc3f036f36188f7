package flatfile

import (
	"fmt"
	"io"
	"strings"
)

// IsUnique reads everything left in r and reports whether no line equals
// candidate exactly. The reader is consumed. A read failure is returned
// together with false.
func IsUnique(r io.Reader, candidate string) (bool, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return false, fmt.Errorf("reading table for uniqueness check: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if line == candidate {
			return false, nil
		}
	}
	return true, nil
}
