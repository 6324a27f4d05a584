package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Period identifies the reporting interval within a year. The numeric value
// is the ordinal used for ordering: months first, then quarters, then annual.
type Period int

const (
	PeriodUnknown Period = iota
	PeriodM1
	PeriodM2
	PeriodM3
	PeriodM4
	PeriodM5
	PeriodM6
	PeriodM7
	PeriodM8
	PeriodM9
	PeriodM10
	PeriodM11
	PeriodM12
	PeriodQ1
	PeriodQ2
	PeriodQ3
	PeriodQ4
	PeriodAnnual
)

// PeriodKind groups periods by granularity.
type PeriodKind string

const (
	KindMonthly   PeriodKind = "monthly"
	KindQuarterly PeriodKind = "quarterly"
	KindAnnual    PeriodKind = "annual"
)

// Month returns the monthly period for m (1-12).
func Month(m int) Period {
	if m < 1 || m > 12 {
		return PeriodUnknown
	}
	return PeriodM1 + Period(m-1)
}

// Quarter returns the quarterly period for q (1-4).
func Quarter(q int) Period {
	if q < 1 || q > 4 {
		return PeriodUnknown
	}
	return PeriodQ1 + Period(q-1)
}

// Valid reports whether p is one of the defined periods.
func (p Period) Valid() bool {
	return p >= PeriodM1 && p <= PeriodAnnual
}

// Kind returns the granularity of p.
func (p Period) Kind() PeriodKind {
	switch {
	case p >= PeriodM1 && p <= PeriodM12:
		return KindMonthly
	case p >= PeriodQ1 && p <= PeriodQ4:
		return KindQuarterly
	case p == PeriodAnnual:
		return KindAnnual
	default:
		return ""
	}
}

// SubAnnual reports whether p is a month or a quarter.
func (p Period) SubAnnual() bool {
	k := p.Kind()
	return k == KindMonthly || k == KindQuarterly
}

func (p Period) String() string {
	switch {
	case p >= PeriodM1 && p <= PeriodM12:
		return "M" + strconv.Itoa(int(p-PeriodM1)+1)
	case p >= PeriodQ1 && p <= PeriodQ4:
		return "Q" + strconv.Itoa(int(p-PeriodQ1)+1)
	case p == PeriodAnnual:
		return "annual"
	default:
		return "unknown"
	}
}

// ParsePeriodName is the inverse of Period.String.
func ParsePeriodName(s string) (Period, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "annual") {
		return PeriodAnnual, nil
	}
	if len(s) >= 2 {
		n, err := strconv.Atoi(s[1:])
		if err == nil {
			switch s[0] {
			case 'M', 'm':
				if p := Month(n); p.Valid() {
					return p, nil
				}
			case 'Q', 'q':
				if p := Quarter(n); p.Valid() {
					return p, nil
				}
			}
		}
	}
	return PeriodUnknown, eris.Errorf("model: unknown period %q", s)
}

func (p Period) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, eris.Errorf("model: cannot marshal period %d", int(p))
	}
	return []byte(p.String()), nil
}

func (p *Period) UnmarshalText(b []byte) error {
	v, err := ParsePeriodName(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// PeriodKey identifies one reporting interval. Keys are equal when year and
// period match exactly and order lexicographically on (year, period ordinal).
type PeriodKey struct {
	Year   int    `json:"year"`
	Period Period `json:"period"`
}

// Less reports whether k sorts before o.
func (k PeriodKey) Less(o PeriodKey) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	return k.Period < o.Period
}

// Compare returns -1, 0 or 1.
func (k PeriodKey) Compare(o PeriodKey) int {
	switch {
	case k.Less(o):
		return -1
	case o.Less(k):
		return 1
	default:
		return 0
	}
}

func (k PeriodKey) String() string {
	if k.Period == PeriodAnnual {
		return fmt.Sprintf("FY%d", k.Year)
	}
	return fmt.Sprintf("%s-%d", k.Period, k.Year)
}
