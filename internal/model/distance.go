package model

import "strconv"

// Distance is a ranging result in whole centimeters. The zero value is an
// unknown distance.
type Distance struct {
	CM    int
	Valid bool
}

func Known(cm int) Distance {
	return Distance{CM: cm, Valid: true}
}

func Unknown() Distance {
	return Distance{}
}

// Value returns the distance and whether it is known.
func (d Distance) Value() (int, bool) {
	return d.CM, d.Valid
}

func (d Distance) String() string {
	if !d.Valid {
		return "unknown"
	}
	return strconv.Itoa(d.CM) + "cm"
}
