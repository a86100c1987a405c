// Package utctime provides a time type with fixed UTC timezone and stable string/JSON format.
package utctime

import (
	"time"

	"github.com/grovekit/grove/internal/pkg/utils/errors"
)

const TimeFormat = "2006-01-02T15:04:05.000Z"

// UTCTime serializes to %Y-%m-%dT%H:%M:%S.000Z format, in UTC.
type UTCTime time.Time

func From(t time.Time) UTCTime {
	return UTCTime(t.UTC())
}

func (v UTCTime) String() string {
	return v.Time().Format(TimeFormat)
}

func (v UTCTime) IsZero() bool {
	return v.Time().IsZero()
}

func (v UTCTime) Time() time.Time {
	return time.Time(v)
}

func (v UTCTime) After(target UTCTime) bool {
	return v.Time().After(target.Time())
}

func (v UTCTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + v.String() + `"`), nil
}

func (v *UTCTime) UnmarshalJSON(b []byte) error {
	str := string(b)
	if len(str) < 2 || str[0] != '"' || str[len(str)-1] != '"' {
		return errors.Errorf(`invalid UTC time "%s"`, str)
	}
	out, err := time.Parse(TimeFormat, str[1:len(str)-1])
	if err != nil {
		return err
	}
	*v = From(out)
	return nil
}
