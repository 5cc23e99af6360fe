package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Duration is a time.Duration written as "30s" and read from either a
// duration string or a number of seconds.
type Duration time.Duration

// Std returns the standard library duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// MarshalText writes the duration in time.Duration string form.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText accepts "1m30s" or a bare number of seconds.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := parseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return secondsToDuration(secs), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

func secondsToDuration(secs float64) time.Duration {
	return time.Duration(secs * float64(time.Second))
}

var (
	durationType    = reflect.TypeOf(Duration(0))
	stdDurationType = reflect.TypeOf(time.Duration(0))
)

// durationHookFunc decodes strings and numbers into Duration and
// time.Duration. Numbers are seconds, matching the original file format.
func durationHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if t != durationType && t != stdDurationType {
			return data, nil
		}

		var d time.Duration
		switch v := data.(type) {
		case string:
			parsed, err := parseDuration(v)
			if err != nil {
				return nil, err
			}
			d = parsed
		case int:
			d = secondsToDuration(float64(v))
		case int64:
			d = secondsToDuration(float64(v))
		case uint64:
			d = secondsToDuration(float64(v))
		case float64:
			d = secondsToDuration(v)
		case Duration:
			d = v.Std()
		case time.Duration:
			d = v
		default:
			return data, nil
		}

		if t == durationType {
			return Duration(d), nil
		}
		return d, nil
	}
}
