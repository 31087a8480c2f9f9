package review

import (
	"fmt"
	"strings"
	"time"
)

const (
	datelineLayout = "January 2, 2006"
	isoDateLayout  = "2006-01-02"
)

// NormalizeDate converts a dateline such as "April 5, 2002" to "2002-04-05".
// There is no fallback layout: anything else is ErrDateFormat.
func NormalizeDate(dateline string) (string, error) {
	dateline = strings.TrimSpace(dateline)
	t, err := time.Parse(datelineLayout, dateline)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrDateFormat, dateline)
	}
	return t.Format(isoDateLayout), nil
}
