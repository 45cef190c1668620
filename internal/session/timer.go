package session

// BreakIntervalSeconds is how much accumulated study time raises a break reminder.
const BreakIntervalSeconds = 900

// Timer accounts elapsed study seconds and break reminders. It is a value type
// so reducers can return modified copies.
type Timer struct {
	Elapsed    int
	Active     bool
	SinceBreak int
	BreakDue   bool
}

// NewTimer returns a running timer at zero.
func NewTimer() Timer {
	return Timer{Active: true}
}

// Tick counts one second unless paused or the session is completed. Every
// BreakIntervalSeconds of counted time sets BreakDue, whether or not the
// previous reminder was dismissed.
func (t Timer) Tick(completed bool) Timer {
	if !t.Active || completed {
		return t
	}
	t.Elapsed++
	t.SinceBreak++
	if t.SinceBreak >= BreakIntervalSeconds {
		t.SinceBreak = 0
		t.BreakDue = true
	}
	return t
}

// CrossedBreak reports whether t is prev advanced across a break boundary.
func (t Timer) CrossedBreak(prev Timer) bool {
	return t.Elapsed > prev.Elapsed && t.SinceBreak == 0
}

// Toggle pauses or resumes counting without resetting Elapsed.
func (t Timer) Toggle() Timer {
	t.Active = !t.Active
	return t
}

// DismissBreak acknowledges a pending reminder.
func (t Timer) DismissBreak() Timer {
	t.BreakDue = false
	return t
}
