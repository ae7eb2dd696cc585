// Package walker enumerates the tracev3 files of a log store in the order
// the reconstruction tries them: the live buffer, then Special, then Persist.
package walker

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// LiveFile is the in-memory buffer dump stored at the store root.
const LiveFile = "logdata.LiveData.tracev3"

// Category groups trace files by where they live in the store.
type Category int

const (
	Live Category = iota
	Special
	Persist
)

// Categories lists every category in search order.
var Categories = []Category{Live, Special, Persist}

func (c Category) String() string {
	switch c {
	case Live:
		return "Live"
	case Special:
		return "Special"
	case Persist:
		return "Persist"
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Candidate is one trace file to try.
type Candidate struct {
	Path     string
	Category Category
	// Order is the position of the file within its category.
	Order int
}

// Candidates lists the files of one category below root. A missing category
// directory yields no candidates and no error.
func Candidates(root string, category Category) ([]Candidate, error) {
	switch category {
	case Live:
		return liveCandidates(root)
	case Special:
		return specialCandidates(root)
	case Persist:
		return persistCandidates(root)
	}
	return nil, fmt.Errorf("unknown category %d", int(category))
}

func liveCandidates(root string) ([]Candidate, error) {
	path := filepath.Join(root, LiveFile)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat live trace: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, nil
	}
	return []Candidate{{Path: path, Category: Live}}, nil
}

// specialCandidates keeps the directory's listing order.
func specialCandidates(root string) ([]Candidate, error) {
	dir := filepath.Join(root, "Special")
	f, err := os.Open(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open special directory: %w", err)
	}
	defer f.Close()

	entries, err := f.ReadDir(-1)
	if err != nil {
		return nil, fmt.Errorf("list special directory: %w", err)
	}
	var out []Candidate
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		out = append(out, Candidate{
			Path:     filepath.Join(dir, entry.Name()),
			Category: Special,
			Order:    len(out),
		})
	}
	return out, nil
}

// persistCandidates walks Persist recursively and orders the files by a
// numeric aware comparison of their full path, newest name first.
func persistCandidates(root string) ([]Candidate, error) {
	dir := filepath.Join(root, "Persist")
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk persist directory: %w", err)
	}

	SortDescending(paths)
	out := make([]Candidate, len(paths))
	for i, path := range paths {
		out[i] = Candidate{Path: path, Category: Persist, Order: i}
	}
	return out, nil
}

// SortDescending orders paths so that embedded decimal numbers compare by
// value, largest first. Everything else compares byte by byte, so hex digits
// a-f sort after every decimal digit.
func SortDescending(paths []string) {
	slices.SortStableFunc(paths, func(a, b string) int {
		return CompareNatural(b, a)
	})
}

// CompareNatural compares a and b as runs of ASCII digits and other bytes.
// Digit runs compare by numeric value; when the values are equal the run
// with more leading zeros is greater. Other bytes compare by value, which
// for UTF-8 matches code point order. A string that is a prefix of the other
// is smaller.
func CompareNatural(a, b string) int {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if !isDigit(a[i]) || !isDigit(b[j]) {
			if a[i] != b[j] {
				if a[i] < b[j] {
					return -1
				}
				return 1
			}
			i++
			j++
			continue
		}
		ei, ej := digitRunEnd(a, i), digitRunEnd(b, j)
		na, za := trimZeros(a[i:ei])
		nb, zb := trimZeros(b[j:ej])
		if len(na) != len(nb) {
			if len(na) < len(nb) {
				return -1
			}
			return 1
		}
		if c := strings.Compare(na, nb); c != 0 {
			return c
		}
		if za != zb {
			if za < zb {
				return -1
			}
			return 1
		}
		i, j = ei, ej
	}
	switch {
	case i < len(a):
		return 1
	case j < len(b):
		return -1
	}
	return 0
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func digitRunEnd(s string, start int) int {
	end := start
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	return end
}

// trimZeros returns the run without leading zeros and how many were removed.
func trimZeros(run string) (string, int) {
	trimmed := strings.TrimLeft(run, "0")
	return trimmed, len(run) - len(trimmed)
}

// Walk yields candidates of every category in search order. Each category is
// listed only when the consumer asks for its first file, so stopping the
// iteration early never touches later directories. A listing failure is
// yielded once with the category set and an empty path; iteration then moves
// on to the next category.
func Walk(root string) iter.Seq2[Candidate, error] {
	return func(yield func(Candidate, error) bool) {
		for _, category := range Categories {
			candidates, err := Candidates(root, category)
			if err != nil {
				if !yield(Candidate{Category: category}, err) {
					return
				}
				continue
			}
			for _, c := range candidates {
				if !yield(c, nil) {
					return
				}
			}
		}
	}
}

// List returns all candidates in search order. Listing errors are joined.
func List(root string) ([]Candidate, error) {
	var out []Candidate
	var errs []error
	for c, err := range Walk(root) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, c)
	}
	return out, errors.Join(errs...)
}
