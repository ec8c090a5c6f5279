package handlers

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// flexFloat accepts a JSON number or a numeric string. Spreadsheet-style
// clients send revenue and score fields both ways.
type flexFloat struct {
	value *float64
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		f.value = nil
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			f.value = nil
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		f.value = &v
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.value = &v
	return nil
}

func (f flexFloat) Ptr() *float64 {
	return f.value
}

// trimmed returns nil for absent or all-whitespace strings so optional
// text fields persist as NULL instead of empty strings.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
