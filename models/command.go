package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrStructural marks an inbound selection token that failed to parse or
// carried out-of-range data. Structural errors are surfaced to the user
// without any backend call and without state mutation.
var ErrStructural = errors.New("malformed selection")

// CommandKind tags the variants of an inbound selection command.
type CommandKind int

const (
	CmdNoop CommandKind = iota
	CmdBook
	CmdSelectResource
	CmdPrevMonth
	CmdNextMonth
	CmdSelectDate
	CmdSelectTime
	CmdConfirm
	CmdBackToResources
	CmdBackToCalendar
	CmdBackToTimes
)

// Command is a selection event parsed once at the transport boundary.
// Only the fields relevant to the kind are set.
type Command struct {
	Kind     CommandKind
	Resource string
	Year     int
	Month    int
	Day      int
	Hour     int
}

// Token wire format. Tokens ride in callback data, so they stay short.
const (
	tokNoop            = "ignore"
	tokBook            = "book"
	tokSelectResource  = "option"
	tokPrevMonth       = "prev_month"
	tokNextMonth       = "next_month"
	tokSelectDate      = "select_date"
	tokSelectTime      = "time"
	tokConfirm         = "confirm"
	tokBackToResources = "back_to_options"
	tokBackToCalendar  = "back_to_calendar"
	tokBackToTimes     = "back_to_times"
)

// NoopToken is the token carried by non-actionable cells.
const NoopToken = tokNoop

// Token encodes the command back into its wire form. Token and ParseCommand
// are inverses for every valid command.
func (c Command) Token() string {
	switch c.Kind {
	case CmdBook:
		return tokBook
	case CmdSelectResource:
		return fmt.Sprintf("%s:%s", tokSelectResource, c.Resource)
	case CmdPrevMonth:
		return fmt.Sprintf("%s:%s:%d-%d", tokPrevMonth, c.Resource, c.Year, c.Month)
	case CmdNextMonth:
		return fmt.Sprintf("%s:%s:%d-%d", tokNextMonth, c.Resource, c.Year, c.Month)
	case CmdSelectDate:
		return fmt.Sprintf("%s:%s:%d-%d-%d", tokSelectDate, c.Resource, c.Year, c.Month, c.Day)
	case CmdSelectTime:
		return fmt.Sprintf("%s:%s:%d-%d-%d:%d", tokSelectTime, c.Resource, c.Year, c.Month, c.Day, c.Hour)
	case CmdConfirm:
		return fmt.Sprintf("%s:%s:%d-%d-%d:%d", tokConfirm, c.Resource, c.Year, c.Month, c.Day, c.Hour)
	case CmdBackToResources:
		return tokBackToResources
	case CmdBackToCalendar:
		return fmt.Sprintf("%s:%s", tokBackToCalendar, c.Resource)
	case CmdBackToTimes:
		return fmt.Sprintf("%s:%s:%d-%d-%d", tokBackToTimes, c.Resource, c.Year, c.Month, c.Day)
	default:
		return tokNoop
	}
}

// ParseCommand decodes an inbound token into a tagged command. Any encoding
// it does not recognise, and any out-of-range date component, yields an
// error wrapping ErrStructural.
func ParseCommand(data string) (Command, error) {
	parts := strings.Split(data, ":")
	switch parts[0] {
	case tokNoop:
		return Command{Kind: CmdNoop}, nil
	case tokBook:
		return Command{Kind: CmdBook}, nil
	case tokBackToResources:
		return Command{Kind: CmdBackToResources}, nil
	case tokSelectResource:
		if len(parts) != 2 || parts[1] == "" {
			return Command{}, fmt.Errorf("%w: %q", ErrStructural, data)
		}
		return Command{Kind: CmdSelectResource, Resource: parts[1]}, nil
	case tokBackToCalendar:
		if len(parts) != 2 || parts[1] == "" {
			return Command{}, fmt.Errorf("%w: %q", ErrStructural, data)
		}
		return Command{Kind: CmdBackToCalendar, Resource: parts[1]}, nil
	case tokPrevMonth, tokNextMonth:
		if len(parts) != 3 {
			return Command{}, fmt.Errorf("%w: %q", ErrStructural, data)
		}
		year, month, err := parseYearMonth(parts[2])
		if err != nil {
			return Command{}, fmt.Errorf("%w: %q", ErrStructural, data)
		}
		kind := CmdPrevMonth
		if parts[0] == tokNextMonth {
			kind = CmdNextMonth
		}
		return Command{Kind: kind, Resource: parts[1], Year: year, Month: month}, nil
	case tokSelectDate, tokBackToTimes:
		if len(parts) != 3 {
			return Command{}, fmt.Errorf("%w: %q", ErrStructural, data)
		}
		year, month, day, err := parseDate(parts[2])
		if err != nil {
			return Command{}, fmt.Errorf("%w: %q", ErrStructural, data)
		}
		kind := CmdSelectDate
		if parts[0] == tokBackToTimes {
			kind = CmdBackToTimes
		}
		return Command{Kind: kind, Resource: parts[1], Year: year, Month: month, Day: day}, nil
	case tokSelectTime, tokConfirm:
		// Keyboards issued by earlier bot versions append a ":00" minutes
		// segment; slots are hour-aligned, so only ":00" is tolerated.
		if len(parts) == 5 && parts[4] == "00" {
			parts = parts[:4]
		}
		if len(parts) != 4 {
			return Command{}, fmt.Errorf("%w: %q", ErrStructural, data)
		}
		year, month, day, err := parseDate(parts[2])
		if err != nil {
			return Command{}, fmt.Errorf("%w: %q", ErrStructural, data)
		}
		hour, err := strconv.Atoi(parts[3])
		if err != nil || hour < 0 || hour > 23 {
			return Command{}, fmt.Errorf("%w: %q", ErrStructural, data)
		}
		kind := CmdSelectTime
		if parts[0] == tokConfirm {
			kind = CmdConfirm
		}
		return Command{Kind: kind, Resource: parts[1], Year: year, Month: month, Day: day, Hour: hour}, nil
	default:
		return Command{}, fmt.Errorf("%w: %q", ErrStructural, data)
	}
}

func parseYearMonth(s string) (int, int, error) {
	fields := strings.SplitN(s, "-", 2)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("bad year-month %q", s)
	}
	year, err := strconv.Atoi(fields[0])
	if err != nil || year < 1 || year > 9999 {
		return 0, 0, fmt.Errorf("bad year %q", fields[0])
	}
	month, err := strconv.Atoi(fields[1])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("bad month %q", fields[1])
	}
	return year, month, nil
}

func parseDate(s string) (int, int, int, error) {
	fields := strings.SplitN(s, "-", 3)
	if len(fields) != 3 {
		return 0, 0, 0, fmt.Errorf("bad date %q", s)
	}
	year, month, err := parseYearMonth(fields[0] + "-" + fields[1])
	if err != nil {
		return 0, 0, 0, err
	}
	day, err := strconv.Atoi(fields[2])
	if err != nil || day < 1 || day > 31 {
		return 0, 0, 0, fmt.Errorf("bad day %q", fields[2])
	}
	// time.Date normalizes overflow (June 31 becomes July 1); a date that
	// does not round-trip never existed on the calendar.
	if t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC); t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return 0, 0, 0, fmt.Errorf("no such date %q", s)
	}
	return year, month, day, nil
}
