package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration is an alias of time.Duration that deserializes from either a
// number of nanoseconds or a time.ParseDuration string ("10h", "30s").
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var unmarshalledJSON interface{}

	if err := json.Unmarshal(b, &unmarshalledJSON); err != nil {
		return err
	}

	switch value := unmarshalledJSON.(type) {
	case float64:
		*d = Duration(time.Duration(value))
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("invalid duration: %#v", unmarshalledJSON)
	}

	return nil
}

// UnmarshalText lets caarlos0/env parse duration strings from env variables.
func (d *Duration) UnmarshalText(b []byte) error {
	parsed, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}
