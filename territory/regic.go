package territory

import "strings"

// regicClasses orders the national urban-hierarchy classes from most to
// least influential; a lower rank means a more important center. Source
// labels are composites, so matching is case-insensitive by substring,
// most specific class first.
var regicClasses = []struct {
	key  string
	rank int
}{
	{"grande metrópole nacional", 1},
	{"metrópole nacional", 2},
	{"metrópole", 3},
	{"capital regional a", 4},
	{"capital regional b", 5},
	{"capital regional c", 6},
	{"centro sub-regional a", 7},
	{"centro sub-regional b", 8},
	{"centro de zona a", 9},
	{"centro de zona b", 10},
	{"centro local", 11},
}

// regicUnranked is the rank of an empty or unrecognized class; it sorts
// after every known center.
const regicUnranked = 99

// REGICRank maps a REGIC class label to its ordinal rank. Unknown or empty
// classes rank last.
func REGICRank(class string) int {
	c := strings.ToLower(strings.TrimSpace(class))
	if c == "" {
		return regicUnranked
	}
	for _, e := range regicClasses {
		if strings.Contains(c, e.key) {
			return e.rank
		}
	}
	return regicUnranked
}

// tourismTopClass is the only tourism classification that counts toward the
// infrastructure score.
const tourismTopClass = "1 - Município Turístico"

// InfrastructureScore is the destination-quality score used by seat
// consolidation: airport presence and the top tourism classification
// contribute one point each.
func (m *Municipality) InfrastructureScore() int {
	s := 0
	if m.HasAirport {
		s++
	}
	if strings.Contains(strings.TrimSpace(m.Tourism), tourismTopClass) {
		s++
	}
	return s
}
