package ghmapper

import (
	"fmt"
	"strings"

	"github.com/mohammed-shakir/geohash-grid/internal/core/model"
	"github.com/mohammed-shakir/geohash-grid/pkg/geohash"
)

// deepest descent ToChildren allows (32^2 cells)
const maxChildLevels = 2

func parseCell(cell string) (string, error) {
	c := strings.ToLower(strings.TrimSpace(cell))
	if _, err := geohash.DecodeBounds(c); err != nil {
		return "", fmt.Errorf("parse cell: %w", err)
	}
	return c, nil
}

// ToParent truncates cell to precision characters.
func (m *Mapper) ToParent(cell string, precision int) (string, error) {
	if err := validatePrecision(precision); err != nil {
		return "", err
	}
	c, err := parseCell(cell)
	if err != nil {
		return "", err
	}
	if precision > len(c) {
		return "", fmt.Errorf("%w: parent precision %d must be <= cell precision %d", ErrInvalidPrecision, precision, len(c))
	}
	return c[:precision], nil
}

// ToChildren lists every descendant of cell at precision, sorted.
func (m *Mapper) ToChildren(cell string, precision int) (model.Cells, error) {
	if err := validatePrecision(precision); err != nil {
		return nil, err
	}
	c, err := parseCell(cell)
	if err != nil {
		return nil, err
	}
	if precision < len(c) {
		return nil, fmt.Errorf("%w: child precision %d must be >= cell precision %d", ErrInvalidPrecision, precision, len(c))
	}
	if precision-len(c) > maxChildLevels {
		return nil, fmt.Errorf("%w: at most %d levels below %q", ErrInvalidPrecision, maxChildLevels, c)
	}

	out := model.Cells{c}
	for range precision - len(c) {
		next := make(model.Cells, 0, len(out)*len(geohash.Alphabet))
		for _, p := range out {
			for i := 0; i < len(geohash.Alphabet); i++ {
				next = append(next, p+geohash.Alphabet[i:i+1])
			}
		}
		out = next
	}
	// geohash.Alphabet is in ascending byte order, so out is already sorted
	return out, nil
}
