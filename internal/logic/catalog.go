package logic

import (
	"fmt"
	"strings"
)

// DefaultCapacity is the number of occasions a slot accepts unless
// configured otherwise.
const DefaultCapacity = 10

// Kind distinguishes dated occasions from daily ones.
type Kind int

const (
	KindDated Kind = iota // shown on one calendar day every year
	KindDaily             // shown every day, written as 0.0.
)

func (k Kind) String() string {
	if k == KindDaily {
		return "daily"
	}
	return "dated"
}

// Occasion is one entry of a slot's catalog.
type Occasion struct {
	Kind  Kind
	Day   int
	Month int
}

// On reports whether a dated occasion falls on d. Daily occasions never
// match a date; they are eligible every day by kind.
func (o Occasion) On(d Date) bool {
	return o.Kind == KindDated && o.Day == d.Day && o.Month == d.Month
}

func (o Occasion) String() string {
	return fmt.Sprintf("%d.%d.", o.Day, o.Month)
}

// Catalog is the ordered list of occasions of one slot. Lower indexes
// win ties.
type Catalog []Occasion

// ParseCatalog reads day.month pairs such as "8.8. 9.8. 0.0." into a
// catalog of at most capacity entries (capacity <= 0 means unbounded).
//
// Numbers are read up to the next '.'; any non-digit text around the
// digits (blanks, commas, semicolons) acts as a delimiter. A day without
// a following month ends the parse. Malformed text never fails: whatever
// complete pairs were found are returned together with their count.
func ParseCatalog(text string, capacity int) (Catalog, int) {
	var cat Catalog
	rest := text
	for capacity <= 0 || len(cat) < capacity {
		var day, month int
		day, rest = readNumber(rest)
		if rest == "" {
			break
		}
		month, rest = readNumber(rest)

		occ := Occasion{Kind: KindDated, Day: day, Month: month}
		if day == 0 {
			occ = Occasion{Kind: KindDaily}
		}
		cat = append(cat, occ)
	}
	return cat, len(cat)
}

// SlotCatalog parses a slot's dates with its configured capacity, where 0
// selects DefaultCapacity.
func SlotCatalog(dates string, capacity int) (Catalog, int) {
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	return ParseCatalog(dates, capacity)
}

// readNumber consumes text up to and including the next '.' and returns
// the first run of digits in it, or 0 if there is none.
func readNumber(s string) (int, string) {
	field, rest, _ := strings.Cut(s, ".")
	return leadingNumber(field), rest
}

func leadingNumber(s string) int {
	i := strings.IndexAny(s, "0123456789")
	if i < 0 {
		return 0
	}
	n := 0
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}
