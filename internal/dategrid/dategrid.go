// Package dategrid computes the cell sequence for a 7-column month view.
//
// Months are 0-based (0 = January) to match the planner API; out-of-range
// values are normalized by time.Date carry rules, so month -1 of a given
// year is December of the previous year.
package dategrid

import (
	"fmt"
	"time"
)

// Cell is one slot of the month view: a concrete date plus a flag marking
// padding days that belong to the adjacent month.
type Cell struct {
	Date       time.Time
	OutOfMonth bool
}

// DateISO returns the cell date as YYYY-MM-DD.
func (c Cell) DateISO() string {
	return FormatDateISO(c.Date)
}

var monthNames = [12]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// MonthGrid returns the ordered cells for the given month: the previous
// month's tail down to the nearest Sunday, every day of the month, and the
// next month's head up to the nearest Saturday. The result length is always
// a positive multiple of 7 and the first cell falls on a Sunday.
func MonthGrid(year, month int) []Cell {
	first := time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.Local)
	lead := int(first.Weekday()) // 0=Sunday .. 6=Saturday

	// Last day of the month is day 0 of the next month.
	daysInMonth := time.Date(year, time.Month(month+2), 0, 0, 0, 0, 0, time.Local).Day()

	cells := make([]Cell, 0, lead+daysInMonth+6)

	for i := lead; i > 0; i-- {
		cells = append(cells, Cell{Date: first.AddDate(0, 0, -i), OutOfMonth: true})
	}
	for d := 0; d < daysInMonth; d++ {
		cells = append(cells, Cell{Date: first.AddDate(0, 0, d)})
	}

	remain := (7 - (lead+daysInMonth)%7) % 7
	nextFirst := first.AddDate(0, 0, daysInMonth)
	for i := 0; i < remain; i++ {
		cells = append(cells, Cell{Date: nextFirst.AddDate(0, 0, i), OutOfMonth: true})
	}

	return cells
}

// FormatDateISO formats a date as YYYY-MM-DD.
func FormatDateISO(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// MonthLabel returns the display heading for a month, e.g. "Fevereiro 2016".
// The month is normalized first, so label(-1) of 2016 is "Dezembro 2015".
func MonthLabel(year, month int) string {
	t := time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.Local)
	return fmt.Sprintf("%s %d", monthNames[int(t.Month())-1], t.Year())
}

// PrevMonth pages one month back with year rollover.
func PrevMonth(year, month int) (int, int) {
	month--
	if month < 0 {
		month = 11
		year--
	}
	return year, month
}

// NextMonth pages one month forward with year rollover.
func NextMonth(year, month int) (int, int) {
	month++
	if month > 11 {
		month = 0
		year++
	}
	return year, month
}
