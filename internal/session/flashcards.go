package session

import (
	"math"
	"slices"
	"sort"

	"study-engine/internal/domain"
)

// Flashcards is the in-memory state of one pass through a deck.
//
// Invariants: 0 <= CurrentIndex < len(Items) while not completed and Items is
// non-empty; Known and Unknown are disjoint; len(History) never exceeds the
// number of graded marks.
type Flashcards struct {
	DeckID string
	// Order is the deck's original card order; it never changes during a session.
	Order []string
	// Items is the active subset in iteration order.
	Items        []string
	CurrentIndex int
	Known        []string
	Unknown      []string
	History      []domain.HistoryEntry
	Timer        Timer
	ReviewMode   bool
	Completed    bool
	Flipped      bool
	DialogOpen   bool

	undo *markFrame
}

// markFrame holds the pre-mark state so a single undo restores it exactly.
type markFrame struct {
	itemID  string
	index   int
	known   []string
	unknown []string
	history []domain.HistoryEntry
}

// NewFlashcards starts a fresh session over the full deck in original order.
func NewFlashcards(deck domain.Deck) Flashcards {
	order := deck.CardIDs()
	return Flashcards{
		DeckID:  deck.ID,
		Order:   order,
		Items:   slices.Clone(order),
		Known:   []string{},
		Unknown: []string{},
		Timer:   NewTimer(),
	}
}

// Current returns the id of the item at CurrentIndex.
func (s Flashcards) Current() (string, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Items) {
		return "", false
	}
	return s.Items[s.CurrentIndex], true
}

// CanUndo reports whether Undo would change the state.
func (s Flashcards) CanUndo() bool {
	return !s.Completed && s.undo != nil
}

// ReduceFlashcards applies one event and returns the next state plus the side
// effects the caller must run. The input state is never modified. Events that
// do not apply to the current state return it unchanged with no effects.
func ReduceFlashcards(s Flashcards, ev Event) (Flashcards, []Effect) {
	switch e := ev.(type) {
	case Flip:
		if s.DialogOpen {
			return s, nil
		}
		s.Flipped = !s.Flipped
		return s, nil
	case SetDialog:
		s.DialogOpen = e.Open
		return s, nil
	case Mark:
		return s.mark(e)
	case Undo:
		return s.undoMark()
	case Shuffle:
		return s.shuffle(e.Seed), nil
	case ResetOrder:
		return s.resetOrder(), nil
	case Restart:
		return s.restart(e.Statuses)
	case RestartWithUnknown:
		return s.restartWithUnknown()
	}
	if t, effects, ok := reduceTimer(s.Timer, s.Completed, ev); ok {
		s.Timer = t
		return s, effects
	}
	return s, nil
}

func (s Flashcards) clone() Flashcards {
	c := s
	c.Items = slices.Clone(s.Items)
	c.Known = slices.Clone(s.Known)
	c.Unknown = slices.Clone(s.Unknown)
	c.History = slices.Clone(s.History)
	return c
}

func (s Flashcards) mark(e Mark) (Flashcards, []Effect) {
	cur, ok := s.Current()
	if s.Completed || !ok || cur != e.ItemID {
		return s, nil
	}

	next := s.clone()
	next.undo = &markFrame{
		itemID:  cur,
		index:   s.CurrentIndex,
		known:   s.Known,
		unknown: s.Unknown,
		history: s.History,
	}
	next.Known = without(next.Known, cur)
	next.Unknown = without(next.Unknown, cur)
	outcome := domain.OutcomeUnknown
	if e.Known {
		next.Known = append(next.Known, cur)
		outcome = domain.OutcomeKnown
	} else {
		next.Unknown = append(next.Unknown, cur)
	}
	next.History = append(next.History, domain.HistoryEntry{ItemID: cur, Outcome: outcome, At: e.At})
	next.Flipped = false

	effects := []Effect{{Kind: EffectRecordMastery, ItemID: cur, Correct: e.Known}}
	if next.CurrentIndex == len(next.Items)-1 {
		next.Completed = true
		next.undo = nil
		effects = append(effects, Effect{Kind: EffectSaveCompleted})
	} else {
		next.CurrentIndex++
	}
	return next, effects
}

func (s Flashcards) undoMark() (Flashcards, []Effect) {
	f := s.undo
	if s.Completed || f == nil || s.CurrentIndex != f.index+1 || f.index >= len(s.Items) || s.Items[f.index] != f.itemID {
		return s, nil
	}
	next := s
	next.CurrentIndex = f.index
	next.Known = f.known
	next.Unknown = f.unknown
	next.History = f.history
	next.Flipped = false
	next.undo = nil
	return next, nil
}

// shuffle permutes Items; the current item stays current.
func (s Flashcards) shuffle(seed int64) Flashcards {
	cur, ok := s.Current()
	next := s.clone()
	next.undo = nil
	shuffleIDs(next.Items, seed)
	if ok {
		next.CurrentIndex = slices.Index(next.Items, cur)
	}
	return next
}

// resetOrder restores deck order over the active subset, partitioned as:
// answered items (original relative order), then the current item if it is
// unanswered, then the remaining unanswered items.
func (s Flashcards) resetOrder() Flashcards {
	cur, ok := s.Current()
	inItems := toSet(s.Items)
	answered := toSet(s.Known)
	for _, id := range s.Unknown {
		answered[id] = true
	}

	items := make([]string, 0, len(s.Items))
	var rest []string
	for _, id := range s.Order {
		if !inItems[id] {
			continue
		}
		switch {
		case answered[id]:
			items = append(items, id)
		case ok && id == cur:
			// placed after the answered items below
		default:
			rest = append(rest, id)
		}
	}
	if ok && !answered[cur] {
		items = append(items, cur)
	}
	items = append(items, rest...)

	next := s.clone()
	next.undo = nil
	next.Items = items
	if ok {
		next.CurrentIndex = slices.Index(items, cur)
	}
	return next
}

// restart clears the pass and orders the full deck by ascending mastery status,
// keeping deck order among equal statuses.
func (s Flashcards) restart(statuses map[string]domain.MasteryStatus) (Flashcards, []Effect) {
	items := slices.Clone(s.Order)
	sort.SliceStable(items, func(i, j int) bool {
		return statuses[items[i]] < statuses[items[j]]
	})
	next := s.fresh(items)
	next.ReviewMode = false
	return next, []Effect{{Kind: EffectClearProgress}}
}

func (s Flashcards) restartWithUnknown() (Flashcards, []Effect) {
	if len(s.Unknown) == 0 {
		return s, nil
	}
	unknown := toSet(s.Unknown)
	items := make([]string, 0, len(s.Unknown))
	for _, id := range s.Order {
		if unknown[id] {
			items = append(items, id)
		}
	}
	next := s.fresh(items)
	next.ReviewMode = true
	return next, []Effect{{Kind: EffectSaveSnapshot, Snapshot: next.Snapshot()}}
}

func (s Flashcards) fresh(items []string) Flashcards {
	return Flashcards{
		DeckID:  s.DeckID,
		Order:   s.Order,
		Items:   items,
		Known:   []string{},
		Unknown: []string{},
		Timer:   NewTimer(),
	}
}

// Snapshot projects the session onto the persisted schema. LastPosition is the
// current item's position in deck order.
func (s Flashcards) Snapshot() domain.ProgressSnapshot {
	snap := domain.ProgressSnapshot{
		CurrentCardIndex: s.CurrentIndex,
		KnownCardIDs:     nonNil(slices.Clone(s.Known)),
		UnknownCardIDs:   nonNil(slices.Clone(s.Unknown)),
		StudyTime:        s.Timer.Elapsed,
		IsReviewMode:     s.ReviewMode,
		IsCompleted:      s.Completed,
		ReviewingCardIDs: []string{},
	}
	if cur, ok := s.Current(); ok {
		if pos := slices.Index(s.Order, cur); pos >= 0 {
			snap.LastPosition = pos
		}
	}
	if s.ReviewMode {
		snap.ReviewingCardIDs = nonNil(slices.Clone(s.Items))
	}
	return snap
}

// FlashcardSummary is shown when a pass completes.
type FlashcardSummary struct {
	Total     int
	Known     int
	Unknown   int
	Percent   int
	StudyTime int
}

func (s Flashcards) Summary() FlashcardSummary {
	sum := FlashcardSummary{
		Total:     len(s.Items),
		Known:     len(s.Known),
		Unknown:   len(s.Unknown),
		StudyTime: s.Timer.Elapsed,
	}
	if sum.Total > 0 {
		sum.Percent = int(math.Round(float64(sum.Known) / float64(sum.Total) * 100))
	}
	return sum
}

// RestoreFlashcards rebuilds a session from a stored snapshot.
//
// A completed, non-review snapshot becomes a completed view listing all known
// items before all unknown items; the original marking order is not kept.
// Otherwise Items is the deck (or the reviewing subset), the index is clamped
// and Known/Unknown are the deck filtered by id membership.
func RestoreFlashcards(deck domain.Deck, snap domain.ProgressSnapshot) Flashcards {
	s := NewFlashcards(deck)
	s.Timer.Elapsed = snap.StudyTime
	inDeck := toSet(s.Order)

	if snap.IsCompleted && !snap.IsReviewMode {
		known := keep(snap.KnownCardIDs, inDeck)
		knownSet := toSet(known)
		var unknown []string
		for _, id := range keep(snap.UnknownCardIDs, inDeck) {
			if !knownSet[id] {
				unknown = append(unknown, id)
			}
		}
		s.Items = append(slices.Clone(known), unknown...)
		s.Known = nonNil(known)
		s.Unknown = nonNil(unknown)
		for _, id := range s.Known {
			s.History = append(s.History, domain.HistoryEntry{ItemID: id, Outcome: domain.OutcomeKnown})
		}
		for _, id := range s.Unknown {
			s.History = append(s.History, domain.HistoryEntry{ItemID: id, Outcome: domain.OutcomeUnknown})
		}
		s.Completed = true
		s.CurrentIndex = max(len(s.Items)-1, 0)
		return s
	}

	if snap.IsReviewMode {
		if review := keep(snap.ReviewingCardIDs, inDeck); len(review) > 0 {
			s.Items = review
			s.ReviewMode = true
		}
	}
	s.CurrentIndex = clamp(snap.CurrentCardIndex, 0, len(s.Items)-1)

	knownSet := toSet(snap.KnownCardIDs)
	unknownSet := toSet(snap.UnknownCardIDs)
	for _, id := range s.Order {
		switch {
		case knownSet[id]:
			s.Known = append(s.Known, id)
		case unknownSet[id]:
			s.Unknown = append(s.Unknown, id)
		}
	}
	return s
}

func without(ids []string, id string) []string {
	return slices.DeleteFunc(ids, func(x string) bool { return x == id })
}

func toSet(ids []string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

// keep returns ids present in allowed, first occurrence only, input order.
func keep(ids []string, allowed map[string]bool) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if allowed[id] && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}
