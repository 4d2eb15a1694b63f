package factom

import (
	"fmt"
	"strconv"
	"time"
)

// Time embeds time.Time and implements the json.Unmarshaler interface for
// correctly parsing the unix timestamps returned by the factomd JSON RPC API.
type Time struct {
	time.Time
}

// UnmarshalJSON unmarshals a number of seconds since the unix epoch.
func (t *Time) UnmarshalJSON(data []byte) error {
	sec, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp: %s", data)
	}
	t.Time = time.Unix(sec, 0)
	return nil
}

// MarshalJSON marshals t as a number of seconds since the unix epoch.
func (t Time) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(t.Unix(), 10)), nil
}
