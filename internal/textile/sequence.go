package textile

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidSequence is returned for document numbers that do not follow
// PREFIX/TYPE/MMYY-NNNNN.
var ErrInvalidSequence = errors.New("textile: invalid document number")

// SequenceNumber is a parsed human-readable document number, e.g. PO/G/0125-00042.
type SequenceNumber struct {
	Prefix string
	Type   string
	Month  int
	Year   int
	Serial int
}

// ParseSequence parses PREFIX/TYPE/MMYY-NNNNN.
func ParseSequence(v string) (SequenceNumber, error) {
	parts := strings.Split(strings.TrimSpace(v), "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return SequenceNumber{}, fmt.Errorf("%w: %q", ErrInvalidSequence, v)
	}
	period, serial, ok := strings.Cut(parts[2], "-")
	if !ok || len(period) != 4 || serial == "" {
		return SequenceNumber{}, fmt.Errorf("%w: %q", ErrInvalidSequence, v)
	}
	month, err := strconv.Atoi(period[:2])
	if err != nil || month < 1 || month > 12 {
		return SequenceNumber{}, fmt.Errorf("%w: month in %q", ErrInvalidSequence, v)
	}
	year, err := strconv.Atoi(period[2:])
	if err != nil {
		return SequenceNumber{}, fmt.Errorf("%w: year in %q", ErrInvalidSequence, v)
	}
	n, err := strconv.Atoi(serial)
	if err != nil || n < 0 {
		return SequenceNumber{}, fmt.Errorf("%w: serial in %q", ErrInvalidSequence, v)
	}
	return SequenceNumber{
		Prefix: parts[0],
		Type:   parts[1],
		Month:  month,
		Year:   2000 + year,
		Serial: n,
	}, nil
}

// String formats the number back into PREFIX/TYPE/MMYY-NNNNN.
func (s SequenceNumber) String() string {
	return fmt.Sprintf("%s/%s/%02d%02d-%05d", s.Prefix, s.Type, s.Month, s.Year%100, s.Serial)
}

// After orders numbers by period, then serial. Prefix and type are ignored.
func (s SequenceNumber) After(other SequenceNumber) bool {
	if s.Year != other.Year {
		return s.Year > other.Year
	}
	if s.Month != other.Month {
		return s.Month > other.Month
	}
	return s.Serial > other.Serial
}
