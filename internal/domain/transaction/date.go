package transaction

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day. It marshals as "YYYY-MM-DD" so the value a client
// reads back can be resubmitted on edit unchanged.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	t = t.UTC()
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)

	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}

	return Date{t}, nil
}

func Today() Date {
	return NewDate(time.Now())
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)

	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}

	parsed, err := ParseDate(s)

	if err != nil {
		return err
	}

	*d = parsed
	return nil
}
