package constant

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateTimeKind tells whether a DateTime is local, UTC or neither.
type DateTimeKind uint8

const (
	Unspecified DateTimeKind = iota
	UTC
	Local
)

func (k DateTimeKind) String() string {
	switch k {
	case Unspecified:
		return "unspecified"
	case UTC:
		return "utc"
	case Local:
		return "local"
	}
	return "unknown"
}

const (
	TicksPerSecond = 10_000_000
	// MaxTicks is 9999-12-31T23:59:59.9999999.
	MaxTicks = 3_155_378_975_999_999_999

	// unixEpochSeconds is the number of seconds between 0001-01-01 and 1970-01-01.
	unixEpochSeconds = 62_135_596_800
	kindShift        = 62
	ticksMask        = 1<<kindShift - 1
)

// DateTime is a count of 100ns ticks since 0001-01-01T00:00:00 plus a kind.
type DateTime struct {
	Ticks int64
	Kind  DateTimeKind
}

// NewDateTime validates the tick range and kind.
func NewDateTime(ticks int64, kind DateTimeKind) (DateTime, error) {
	if ticks < 0 || ticks > MaxTicks {
		return DateTime{}, fmt.Errorf("ticks %d out of range [0, %d]", ticks, int64(MaxTicks))
	}
	if kind > Local {
		return DateTime{}, fmt.Errorf("invalid date/time kind %d", kind)
	}
	return DateTime{Ticks: ticks, Kind: kind}, nil
}

// Validate applies the checks of NewDateTime to d.
func (d DateTime) Validate() error {
	_, err := NewDateTime(d.Ticks, d.Kind)
	return err
}

// DateTimeFromTime converts the wall clock of t. Times in time.UTC become UTC,
// times in time.Local become Local, anything else is Unspecified.
func DateTimeFromTime(t time.Time) DateTime {
	kind := Unspecified
	switch t.Location() {
	case time.UTC:
		kind = UTC
	case time.Local:
		kind = Local
	}
	wall := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	ticks := (wall.Unix()+unixEpochSeconds)*TicksPerSecond + int64(wall.Nanosecond()/100)
	return DateTime{Ticks: ticks, Kind: kind}
}

// Time returns the wall clock as a time.Time. Local values use time.Local, the rest
// use time.UTC.
func (d DateTime) Time() time.Time {
	secs := d.Ticks/TicksPerSecond - unixEpochSeconds
	nsec := (d.Ticks % TicksPerSecond) * 100
	wall := time.Unix(secs, nsec).UTC()
	if d.Kind == Local {
		return time.Date(wall.Year(), wall.Month(), wall.Day(), wall.Hour(), wall.Minute(), wall.Second(), wall.Nanosecond(), time.Local)
	}
	return wall
}

// Packed returns the single-word encoding: ticks in the low 62 bits, kind in the top two.
func (d DateTime) Packed() uint64 {
	return uint64(d.Ticks)&ticksMask | uint64(d.Kind)<<kindShift
}

// DateTimeFromPacked decodes the result of Packed.
func DateTimeFromPacked(p uint64) DateTime {
	return DateTime{Ticks: int64(p & ticksMask), Kind: DateTimeKind(p >> kindShift)}
}

// ParseDateTime accepts a tick count, an RFC 3339 timestamp (stored as UTC), or a zone-less
// "2006-01-02T15:04:05.9999999" / "2006-01-02" (stored as Unspecified). A tick count may
// carry a kind suffix: "630822816000000000:utc".
func ParseDateTime(s string) (DateTime, error) {
	text := strings.TrimSpace(s)

	ticksText, kindText, hasKind := strings.Cut(text, ":")
	if ticks, err := strconv.ParseInt(ticksText, 10, 64); err == nil {
		kind := Unspecified
		if hasKind {
			switch kindText {
			case "unspecified":
			case "utc":
				kind = UTC
			case "local":
				kind = Local
			default:
				return DateTime{}, fmt.Errorf("invalid date/time kind %q", kindText)
			}
		}
		return NewDateTime(ticks, kind)
	}

	if t, err := time.Parse(time.RFC3339Nano, text); err == nil {
		return DateTimeFromTime(t.UTC()), nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05.9999999", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, text, time.UTC); err == nil {
			d := DateTimeFromTime(t)
			d.Kind = Unspecified
			return d, nil
		}
	}
	return DateTime{}, fmt.Errorf("invalid date/time %q", s)
}

// String renders the tick form ParseDateTime reads back.
func (d DateTime) String() string {
	return fmt.Sprintf("%d:%s", d.Ticks, d.Kind)
}
