package domain

import (
	"encoding"
	"fmt"
)

// MasteryStatus is the 3-state classification of an item. The zero value is NotLearned
// and values are ordered: NotLearned < Learning < Mastered.
type MasteryStatus int

const (
	NotLearned MasteryStatus = iota
	Learning
	Mastered
)

var (
	statusNames  = [...]string{NotLearned: "not-learned", Learning: "learning", Mastered: "mastered"}
	statusByName = map[string]MasteryStatus{
		"not-learned": NotLearned,
		"learning":    Learning,
		"mastered":    Mastered,
	}
)

var (
	_ fmt.Stringer             = MasteryStatus(0)
	_ encoding.TextMarshaler   = MasteryStatus(0)
	_ encoding.TextUnmarshaler = (*MasteryStatus)(nil)
)

func (s MasteryStatus) valid() bool {
	return s >= NotLearned && s <= Mastered
}

func (s MasteryStatus) String() string {
	if s.valid() {
		return statusNames[s]
	}
	return fmt.Sprintf("MasteryStatus(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler; JSON uses it too.
func (s MasteryStatus) MarshalText() ([]byte, error) {
	if !s.valid() {
		return nil, fmt.Errorf("invalid mastery status: %d", int(s))
	}
	return []byte(statusNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *MasteryStatus) UnmarshalText(text []byte) error {
	v, ok := statusByName[string(text)]
	if !ok {
		return fmt.Errorf("invalid mastery status: %q", text)
	}
	*s = v
	return nil
}
