package form

import "fmt"

// CounterLevel grades how close a text is to its length limit.
type CounterLevel string

const (
	CounterNormal  CounterLevel = ""
	CounterWarning CounterLevel = "warning"
	CounterDanger  CounterLevel = "danger"
)

// Counter is the character counter shown under length-limited inputs.
type Counter struct {
	Length int          `json:"length"`
	Max    int          `json:"max"`
	Level  CounterLevel `json:"level,omitempty"`
}

// Text renders the counter, e.g. "42 / 200 characters".
func (c Counter) Text() string {
	return fmt.Sprintf("%d / %d characters", c.Length, c.Max)
}

// Count computes the counter for text against max.
// Above 90% of max the level is danger, above 75% warning.
func Count(text string, max int) Counter {
	n := len([]rune(text))
	c := Counter{Length: n, Max: max}
	switch {
	case max <= 0:
	case float64(n) > float64(max)*0.9:
		c.Level = CounterDanger
	case float64(n) > float64(max)*0.75:
		c.Level = CounterWarning
	}
	return c
}
