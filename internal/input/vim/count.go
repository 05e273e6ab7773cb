package vim

import (
	"math"
	"strconv"
)

// maxCount caps counts instead of letting them overflow.
const maxCount = math.MaxInt / 10

// CountState tracks count digits for one phase of a command: the count
// typed before an operator, or the count typed before its motion.
type CountState struct {
	// Value is the accumulated count value.
	Value int

	// Active indicates if a count is being accumulated.
	Active bool
}

// Reset clears the count state.
func (c *CountState) Reset() {
	c.Value = 0
	c.Active = false
}

// AccumulateDigit adds a digit to the count.
// Returns true if the digit was accepted.
// Only accepts ASCII digits 0-9.
func (c *CountState) AccumulateDigit(r rune) bool {
	if r < '0' || r > '9' {
		return false
	}

	digit := int(r - '0')

	// '0' at the start is not a count, it's a motion
	if !c.Active && digit == 0 {
		return false
	}

	c.Active = true

	if c.Value > (math.MaxInt-digit)/10 || c.Value*10+digit > maxCount {
		c.Value = maxCount
		return true
	}

	c.Value = c.Value*10 + digit
	return true
}

// Get returns the effective count (1 if no count was specified).
func (c *CountState) Get() int {
	if c.Value <= 0 {
		return 1
	}
	return c.Value
}

// String returns the digits typed so far, for showcmd.
func (c *CountState) String() string {
	if !c.Active {
		return ""
	}
	return strconv.Itoa(c.Value)
}

// CombineCounts multiplies two counts together with overflow protection.
// This is used when both a pre-operator count and post-operator count exist.
// e.g., "2d3w" = delete (2*3=6) words
func CombineCounts(count1, count2 int) int {
	if count1 <= 0 {
		count1 = 1
	}
	if count2 <= 0 {
		count2 = 1
	}

	if count1 > maxCount/count2 {
		return maxCount
	}

	return count1 * count2
}
