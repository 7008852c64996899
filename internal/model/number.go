package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// LocaleNumber decodes from a JSON number or from a string written with
// either "." or "," as decimal separator, e.g. "19.900,00" or "19,900.00".
type LocaleNumber float64

func (n *LocaleNumber) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := ParseLocaleNumber(s)
		if err != nil {
			return err
		}
		*n = LocaleNumber(v)
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid number %s", raw)
	}
	*n = LocaleNumber(v)
	return nil
}

// Float64 returns the plain value
func (n LocaleNumber) Float64() float64 { return float64(n) }

// Int returns the value rounded toward zero
func (n LocaleNumber) Int() int { return int(n) }

// ParseLocaleNumber parses numbers that may carry thousands separators.
// When both "." and "," appear the last one is the decimal separator; a lone
// "," followed by one or two digits is decimal, otherwise it groups thousands.
func ParseLocaleNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}

	dot := strings.LastIndex(s, ".")
	comma := strings.LastIndex(s, ",")
	switch {
	case dot >= 0 && comma >= 0:
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-comma-1 <= 2 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}
