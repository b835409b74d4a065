package osc

import (
	"fmt"
	"strings"

	"golang.org/x/text/width"
)

// CardSummary is one row of a "ls" reply: the seven-tuple spec.md §4.3
// defines for the list command.
type CardSummary struct {
	ID      string
	Card    string
	X, Y    int32
	W, H    int32
	Running bool
}

// Success renders a reply written back to the TTY on success. An empty
// message renders as an empty (silent) reply.
func Success(message string) string {
	if message == "" {
		return ""
	}
	return message + "\n"
}

// Error renders a reply for a failed command, per spec.md §4.3's
// "error: <reason>" convention.
func Error(err error) string {
	return "error: " + err.Error() + "\n"
}

// CardList renders "ls"'s fixed-column table. Column widths use
// golang.org/x/text/width so a card id or type containing a fullwidth
// rune (an unusual but permitted OSC payload) still lines up the table,
// rather than assuming one byte is one display cell.
func CardList(cards []CardSummary) string {
	if len(cards) == 0 {
		return "no cards\n"
	}
	var b strings.Builder
	b.WriteString("ID        CARD            X     Y     W     H     STATE\n")
	b.WriteString("--------  --------------  ----  ----  ----  ----  -------\n")
	for _, c := range cards {
		state := "stopped"
		if c.Running {
			state = "running"
		}
		fmt.Fprintf(&b, "%s  %s  %4d  %4d  %4d  %4d  %s\n",
			padDisplay(c.ID, 8), padDisplay(c.Card, 14), c.X, c.Y, c.W, c.H, state)
	}
	return b.String()
}

// CardTypeList renders "cards"'s registered-type list.
func CardTypeList(names []string) string {
	if len(names) == 0 {
		return "no card types available\n"
	}
	var b strings.Builder
	b.WriteString("available card types:\n")
	for _, n := range names {
		fmt.Fprintf(&b, "  %s\n", n)
	}
	return b.String()
}

// padDisplay truncates s once its display width (fullwidth runes count
// as 2 cells) would exceed displayWidth, then right-pads with ASCII
// spaces until the *display* width reaches displayWidth. fmt's own
// %-Ns pads by rune count, which misaligns the table as soon as a
// fullwidth rune is present, so the padding is done here instead and
// the caller formats the result with a plain %s.
func padDisplay(s string, displayWidth int) string {
	var b strings.Builder
	w := 0
	for _, r := range s {
		cw := runeDisplayWidth(r)
		if w+cw > displayWidth {
			break
		}
		b.WriteRune(r)
		w += cw
	}
	for ; w < displayWidth; w++ {
		b.WriteByte(' ')
	}
	return b.String()
}

func runeDisplayWidth(r rune) int {
	if k := width.LookupRune(r).Kind(); k == width.EastAsianWide || k == width.EastAsianFullwidth {
		return 2
	}
	return 1
}
