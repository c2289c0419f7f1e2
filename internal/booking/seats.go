package booking

import "regexp"

// MaxSeatsPerBooking is the hard per-booking cap on seat count.
const MaxSeatsPerBooking = 10

// seatLabelPattern matches one uppercase letter followed by one or
// more digits, e.g. "A1" or "J14".  Lowercase is rejected on purpose;
// labels are compared byte-for-byte everywhere.
var seatLabelPattern = regexp.MustCompile(`^[A-Z][0-9]+$`)

// ValidSeatLabel reports whether label is a well-formed seat label.
func ValidSeatLabel(label string) bool {
	return seatLabelPattern.MatchString(label)
}

// invalidLabels returns the labels that fail the seat pattern, in
// request order.
func invalidLabels(seats []string) []string {
	var bad []string
	for _, s := range seats {
		if !ValidSeatLabel(s) {
			bad = append(bad, s)
		}
	}
	return bad
}

// repeatedLabels returns each label that occurs more than once, listed
// once, in first-occurrence order.
func repeatedLabels(seats []string) []string {
	seen := make(map[string]int, len(seats))
	var dup []string
	for _, s := range seats {
		seen[s]++
		if seen[s] == 2 {
			dup = append(dup, s)
		}
	}
	return dup
}

// takenLabels returns the requested labels present in occupied, in
// request order.
func takenLabels(requested []string, occupied map[string]struct{}) []string {
	var taken []string
	for _, s := range requested {
		if _, ok := occupied[s]; ok {
			taken = append(taken, s)
		}
	}
	return taken
}
