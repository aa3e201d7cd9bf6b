// Package format renders numbers the way German players expect them.
package format

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	printer = message.NewPrinter(language.German)
	title   = cases.Title(language.German)
)

// Number formats v rounded to whole units with German digit grouping.
func Number(v float64) string {
	return printer.Sprintf("%d", int64(math.Round(v)))
}

// Decimal formats v with the given number of decimals.
func Decimal(v float64, decimals int) string {
	return printer.Sprintf("%.*f", decimals, v)
}

// Euro formats an amount of money, e.g. "1.000.000 €".
func Euro(v float64) string {
	return Number(v) + " €"
}

// Percent formats a percentage value, e.g. "12 %".
func Percent(v float64) string {
	return Number(v) + " %"
}

// Countdown renders the remaining time as m:ss. Negative durations render as 0:00.
func Countdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// Title capitalises each word using German casing rules.
func Title(s string) string {
	return title.String(s)
}
