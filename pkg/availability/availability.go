// Package availability converts between a lawyer's time-slot selections and
// the availability text stored with the profile.
//
//	Weekdays: 8:00 AM - 12:00 PM
//	Weekends: 4:00 PM - 8:00 PM
package availability

import (
	"strings"
)

// Slot is a time-slot code.
type Slot string

const (
	Morning   Slot = "morning"
	Afternoon Slot = "afternoon"
	FullDay   Slot = "fullday"
	Evening   Slot = "evening"
)

// Slots lists every slot in display order.
var Slots = []Slot{Morning, Afternoon, FullDay, Evening}

var slotText = map[Slot]string{
	Morning:   "8:00 AM - 12:00 PM",
	Afternoon: "12:00 PM - 4:00 PM",
	FullDay:   "8:00 AM - 4:00 PM",
	Evening:   "4:00 PM - 8:00 PM",
}

// keywords recognised when the stored text was typed by hand.
var slotKeywords = map[Slot]string{
	Morning:   "morning",
	Afternoon: "afternoon",
	FullDay:   "full day",
	Evening:   "evening",
}

// Text returns the display range of a slot, or "" for unknown codes.
func (s Slot) Text() string {
	return slotText[s]
}

// Valid reports whether s is a known slot.
func (s Slot) Valid() bool {
	_, ok := slotText[s]
	return ok
}

// Availability is a weekday and a weekend slot. Empty means not offered.
type Availability struct {
	Weekday Slot
	Weekend Slot
}

// String composes the availability text, one line per offered slot.
func (a Availability) String() string {
	var lines []string
	if t := a.Weekday.Text(); t != "" {
		lines = append(lines, "Weekdays: "+t)
	}
	if t := a.Weekend.Text(); t != "" {
		lines = append(lines, "Weekends: "+t)
	}
	return strings.Join(lines, "\n")
}

// Fields returns the hidden form fields the profile endpoint expects.
func (a Availability) Fields() map[string]string {
	return map[string]string{
		"avb_time_text":       a.String(),
		"weekday_slot_hidden": string(a.Weekday),
		"weekend_slot_hidden": string(a.Weekend),
	}
}

// Parse reads availability text back into slots. Lines that name neither
// weekdays nor weekends, or match no slot, are ignored.
func Parse(text string) Availability {
	var a Availability
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(strings.TrimSpace(line))
		switch {
		case strings.HasPrefix(lower, "weekdays"):
			if s, ok := matchSlot(lower); ok {
				a.Weekday = s
			}
		case strings.HasPrefix(lower, "weekends"):
			if s, ok := matchSlot(lower); ok {
				a.Weekend = s
			}
		}
	}
	return a
}

func matchSlot(line string) (Slot, bool) {
	for _, s := range Slots {
		if strings.Contains(line, strings.ToLower(slotText[s])) {
			return s, true
		}
	}
	for _, s := range Slots {
		if strings.Contains(line, slotKeywords[s]) {
			return s, true
		}
	}
	return "", false
}
