package utils

import (
	"fmt"
	"time"
)

// DueLayout ist das Format, das die Board-API für Fälligkeiten erwartet
// (UTC, Mikrosekunden)
const DueLayout = "2006-01-02T15:04:05.000000Z"

// DueNull löscht beim Update eine gesetzte Fälligkeit
const DueNull = "null"

// FormatDue formatiert einen Zeitpunkt im API-Format
func FormatDue(t time.Time) string {
	return t.UTC().Format(DueLayout)
}

// ClockTime ist eine Uhrzeit ohne Datum (Minutengenau)
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClock liest eine Uhrzeit im Format HH:MM
func ParseClock(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid clock time %q (want HH:MM)", s)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// On setzt die Uhrzeit auf das Datum von day (in dessen Zeitzone)
func (c ClockTime) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, day.Location())
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}
