package service

import (
	"regexp"
	"strconv"
	"strings"
)

var directivePattern = regexp.MustCompile(`\$\d*`)

// Directive ist ein "$n"-Kürzel im Kartentitel: die Karte wird für n Tage
// (ohne Zahl: 1 Tag) schlafen gelegt.
type Directive struct {
	Days  int
	Title string // Titel ohne alle Kürzel
}

// ParseDirective sucht Kürzel im Titel. Bei mehreren gilt das letzte, entfernt
// werden alle.
func ParseDirective(title string) (Directive, bool) {
	matches := directivePattern.FindAllString(title, -1)
	if len(matches) == 0 {
		return Directive{}, false
	}

	days := 1
	if digits := strings.TrimPrefix(matches[len(matches)-1], "$"); digits != "" {
		n, err := strconv.Atoi(digits)
		if err != nil {
			// Zahl außerhalb des int-Bereichs
			return Directive{}, false
		}
		days = n
	}

	return Directive{
		Days:  days,
		Title: directivePattern.ReplaceAllString(title, ""),
	}, true
}
