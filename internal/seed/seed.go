// Package seed fills the testing table with generated rows.
package seed

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/mesh-intelligence/tabler/pkg/types"
)

// VariantBound is the upper bound of the generated var_id column.
const VariantBound = 12

// Generator yields pseudo-random integers in [1, bound].
type Generator interface {
	Next(bound int) int
}

// RandGenerator is a Generator backed by math/rand/v2.
type RandGenerator struct {
	r *rand.Rand
}

// NewRandGenerator returns a generator with a random seed.
func NewRandGenerator() *RandGenerator {
	return &RandGenerator{r: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeededGenerator returns a deterministic generator.
func NewSeededGenerator(seed uint64) *RandGenerator {
	return &RandGenerator{r: rand.New(rand.NewPCG(seed, seed))}
}

// Next returns a value in [1, bound]. A bound below 1 yields 1.
func (g *RandGenerator) Next(bound int) int {
	if bound < 1 {
		return 1
	}
	return g.r.IntN(bound) + 1
}

// RowCount returns the number of rows to generate: one per non-empty line
// of the names file after its header line. When namesPath is empty or the
// file does not exist, fallback is returned.
func RowCount(namesPath string, fallback int) (int, error) {
	if namesPath == "" {
		return fallback, nil
	}
	data, err := os.ReadFile(namesPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fallback, nil
		}
		return 0, fmt.Errorf("reading names file: %w", err)
	}

	count := 0
	for _, line := range strings.Split(strings.ReplaceAll(string(data), "\r", ""), "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}
	return count - 1, nil
}

// GenerateTestTable recreates the testing table with a header row followed
// by rows numbered from 1, each with a generated variant. It returns the
// number of data rows written.
func GenerateTestTable(store types.TableStore, gen Generator, rows int) (int, error) {
	f, err := store.Create(types.TestingTable, types.ModeAppend)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := fmt.Fprintln(w, types.TestingTableHeader); err != nil {
		return 0, fmt.Errorf("writing header: %w", err)
	}
	for i := 1; i <= rows; i++ {
		if _, err := fmt.Fprintf(w, "%d,%d\n", i, gen.Next(VariantBound)); err != nil {
			return 0, fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		return 0, fmt.Errorf("flushing testing table: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("closing testing table: %w", err)
	}
	return rows, nil
}
