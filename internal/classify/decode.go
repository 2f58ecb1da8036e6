package classify

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Model replies are loosely typed: numbers arrive as strings, booleans as
// "yes", and optional text as null. These types absorb that.

type looseFloat struct {
	value float64
	ok    bool
}

func (f *looseFloat) UnmarshalJSON(b []byte) error {
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		f.value, f.ok = n, true
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			f.value, f.ok = n, true
		}
	}
	return nil
}

type looseBool bool

func (v *looseBool) UnmarshalJSON(b []byte) error {
	var flag bool
	if err := json.Unmarshal(b, &flag); err == nil {
		*v = looseBool(flag)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "yes", "y", "1":
			*v = true
		default:
			*v = false
		}
	}
	return nil
}

type looseString string

func (v *looseString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = looseString(s)
		return nil
	}
	// Anything that is not a string (null, objects) is treated as absent.
	*v = ""
	return nil
}
