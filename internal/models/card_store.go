package models

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// DefaultUndoWindow bounds how long after a review the undo buffer entry
// stays eligible.
const DefaultUndoWindow = 5 * time.Second

// TransitionFunc computes a card's next scheduling state from its prior
// state and a quality rating. Wired to review.Schedule.
type TransitionFunc func(prior SchedulingState, quality int, now time.Time) SchedulingState

// UndoEntry pairs a card's latest review event with the scheduling state
// the card had before it. One entry per card, replaced on every new
// review; dropped on undo, expiry sweep, card removal, or clear.
type UndoEntry struct {
	Event      ReviewEvent
	PriorState SchedulingState
}

type sourceKey struct {
	sourceType SourceType
	sourceID   string
}

// CardStore holds the authoritative in-memory set of cards and packs,
// applies scheduling transitions and owns the undo buffer. Callers are
// expected to serialize mutations; the internal lock only keeps direct
// concurrent use (tests, gauges) safe.
type CardStore struct {
	mu         sync.RWMutex
	transition TransitionFunc
	undoWindow time.Duration
	cards      map[string]*Card
	source     map[sourceKey]string
	packs      map[string]*Pack
	packNames  map[string]string
	undo       map[string]*UndoEntry
}

func NewCardStore(transition TransitionFunc, undoWindow time.Duration) *CardStore {
	if undoWindow <= 0 {
		undoWindow = DefaultUndoWindow
	}
	return &CardStore{
		transition: transition,
		undoWindow: undoWindow,
		cards:      make(map[string]*Card),
		source:     make(map[sourceKey]string),
		packs:      make(map[string]*Pack),
		packNames:  make(map[string]string),
		undo:       make(map[string]*UndoEntry),
	}
}

// AddCard creates a card for the given content reference. The
// (sourceType, sourceID) pair must be unique in the store. A card added
// without pack memberships lands in the default pack, which is created
// on demand.
func (cs *CardStore) AddCard(sourceType SourceType, sourceID string, packIDs []string, now time.Time) (*Card, error) {
	if !sourceType.IsValid() {
		return nil, fmt.Errorf("%w: unknown source type %q", ErrValidation, sourceType)
	}
	if sourceID == "" {
		return nil, fmt.Errorf("%w: empty source id", ErrValidation)
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	key := sourceKey{sourceType, sourceID}
	if _, ok := cs.source[key]; ok {
		return nil, fmt.Errorf("%w: card already exists for %s %s", ErrValidation, sourceType, sourceID)
	}

	ids := make([]string, 0, len(packIDs))
	for _, id := range packIDs {
		if id == "" {
			continue
		}
		if _, ok := cs.packs[id]; !ok && id != DefaultPackID {
			return nil, fmt.Errorf("%w: pack %s", ErrPackNotFound, id)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		ids = []string{DefaultPackID}
	}
	for _, id := range ids {
		if id == DefaultPackID {
			cs.ensureDefaultPack(now)
		}
	}

	card := NewCard(sourceType, sourceID, ids, now)
	cs.cards[card.ID] = card
	cs.source[key] = card.ID
	return card.Clone(), nil
}

// EnsureDefaultPack creates the default pack if it is missing.
func (cs *CardStore) EnsureDefaultPack(now time.Time) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.ensureDefaultPack(now)
}

// ensureDefaultPack recreates the default pack if it was deleted.
// Callers must hold cs.mu.
func (cs *CardStore) ensureDefaultPack(now time.Time) {
	if _, ok := cs.packs[DefaultPackID]; ok {
		return
	}
	cs.packs[DefaultPackID] = &Pack{ID: DefaultPackID, Name: DefaultPackName, CreatedAt: now}
	cs.packNames[DefaultPackName] = DefaultPackID
}

func (cs *CardStore) RemoveCard(cardID string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	card, ok := cs.cards[cardID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCardNotFound, cardID)
	}
	delete(cs.cards, cardID)
	delete(cs.source, sourceKey{card.SourceType, card.SourceID})
	delete(cs.undo, cardID)
	return nil
}

func (cs *CardStore) Get(cardID string) (*Card, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	card, ok := cs.cards[cardID]
	if !ok {
		return nil, false
	}
	return card.Clone(), true
}

func (cs *CardStore) IsSaved(sourceType SourceType, sourceID string) bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	_, ok := cs.source[sourceKey{sourceType, sourceID}]
	return ok
}

// DueCards returns the cards ready for review, never-scheduled first,
// then by ascending next review date. Ties break on creation time and
// id so the order is stable for a given snapshot. A non-empty packID
// narrows the result to that pack's members.
func (cs *CardStore) DueCards(packID string, now time.Time) ([]*Card, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	if packID != "" {
		if _, ok := cs.packs[packID]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrPackNotFound, packID)
		}
	}

	out := make([]*Card, 0)
	for _, card := range cs.cards {
		if !card.IsDue(now) {
			continue
		}
		if packID != "" && !card.InPack(packID) {
			continue
		}
		out = append(out, card.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.NextReviewDate == nil && b.NextReviewDate != nil:
			return true
		case a.NextReviewDate != nil && b.NextReviewDate == nil:
			return false
		case a.NextReviewDate != nil && !a.NextReviewDate.Equal(*b.NextReviewDate):
			return a.NextReviewDate.Before(*b.NextReviewDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

// RecordReview applies the scheduling transition for one rating
// submission. The prior state is stashed in the undo buffer next to the
// resulting event. Quality outside [0,5] is rejected before any state
// changes.
func (cs *CardStore) RecordReview(cardID string, quality int, now time.Time) (ReviewEvent, *Card, error) {
	if quality < QualityMin || quality > QualityMax {
		return ReviewEvent{}, nil, fmt.Errorf("%w: quality %d outside [%d,%d]", ErrValidation, quality, QualityMin, QualityMax)
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	card, ok := cs.cards[cardID]
	if !ok {
		return ReviewEvent{}, nil, fmt.Errorf("%w: %s", ErrCardNotFound, cardID)
	}

	prior := card.SchedulingState()
	card.ApplySchedulingState(cs.transition(prior, quality, now))

	ev := ReviewEvent{
		CardID:    cardID,
		Quality:   quality,
		Timestamp: now,
		DayBucket: DayKeyOf(now),
	}
	cs.undo[cardID] = &UndoEntry{Event: ev, PriorState: prior}
	return ev, card.Clone(), nil
}

// UndoReview restores the card to its state before the latest review,
// provided that review is still inside the undo window. Ineligible undo
// is a quiet no-op: the zero event and false are returned, nothing
// changes.
func (cs *CardStore) UndoReview(cardID string, now time.Time) (ReviewEvent, *Card, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	entry, ok := cs.undo[cardID]
	if !ok {
		return ReviewEvent{}, nil, false
	}
	if now.Sub(entry.Event.Timestamp) > cs.undoWindow {
		delete(cs.undo, cardID)
		return ReviewEvent{}, nil, false
	}
	card, ok := cs.cards[cardID]
	if !ok {
		return ReviewEvent{}, nil, false
	}

	card.ApplySchedulingState(entry.PriorState)
	delete(cs.undo, cardID)
	return entry.Event, card.Clone(), true
}

// SweepUndo drops undo entries whose window has expired and reports how
// many were removed.
func (cs *CardStore) SweepUndo(now time.Time) int {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	removed := 0
	for id, entry := range cs.undo {
		if now.Sub(entry.Event.Timestamp) > cs.undoWindow {
			delete(cs.undo, id)
			removed++
		}
	}
	return removed
}

func (cs *CardStore) CreatePack(name string, now time.Time) (*Pack, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty pack name", ErrValidation)
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	if _, ok := cs.packNames[name]; ok {
		return nil, fmt.Errorf("%w: pack name %q already taken", ErrValidation, name)
	}
	pack := NewPack(name, now)
	cs.packs[pack.ID] = pack
	cs.packNames[name] = pack.ID
	return pack, nil
}

func (cs *CardStore) RenamePack(packID, name string) (*Pack, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty pack name", ErrValidation)
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	pack, ok := cs.packs[packID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPackNotFound, packID)
	}
	if other, ok := cs.packNames[name]; ok && other != packID {
		return nil, fmt.Errorf("%w: pack name %q already taken", ErrValidation, name)
	}
	delete(cs.packNames, pack.Name)
	pack.Name = name
	cs.packNames[name] = packID
	out := *pack
	return &out, nil
}

// DeletePack removes the pack and every membership pointing at it.
// Cards are never deleted with their pack; a card left without packs
// stays in the store orphaned.
func (cs *CardStore) DeletePack(packID string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	pack, ok := cs.packs[packID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPackNotFound, packID)
	}
	delete(cs.packs, packID)
	delete(cs.packNames, pack.Name)
	for _, card := range cs.cards {
		card.RemovePack(packID)
	}
	return nil
}

func (cs *CardStore) AssignCard(cardID, packID string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	card, ok := cs.cards[cardID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCardNotFound, cardID)
	}
	if _, ok := cs.packs[packID]; !ok {
		return fmt.Errorf("%w: %s", ErrPackNotFound, packID)
	}
	card.AddPack(packID)
	return nil
}

func (cs *CardStore) UnassignCard(cardID, packID string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	card, ok := cs.cards[cardID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCardNotFound, cardID)
	}
	if _, ok := cs.packs[packID]; !ok {
		return fmt.Errorf("%w: %s", ErrPackNotFound, packID)
	}
	card.RemovePack(packID)
	return nil
}

// Cards returns clones of every card, ordered by creation time then id.
func (cs *CardStore) Cards() []*Card {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	out := make([]*Card, 0, len(cs.cards))
	for _, card := range cs.cards {
		out = append(out, card.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Packs returns copies of every pack, ordered by creation time then id.
func (cs *CardStore) Packs() []*Pack {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	out := make([]*Pack, 0, len(cs.packs))
	for _, pack := range cs.packs {
		cp := *pack
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (cs *CardStore) CardCount() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.cards)
}

func (cs *CardStore) PackCount() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.packs)
}

func (cs *CardStore) DueCount(now time.Time) int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	n := 0
	for _, card := range cs.cards {
		if card.IsDue(now) {
			n++
		}
	}
	return n
}

// EarliestCreatedAt returns the creation time of the oldest card, nil
// when the store is empty.
func (cs *CardStore) EarliestCreatedAt() *time.Time {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	var earliest *time.Time
	for _, card := range cs.cards {
		if earliest == nil || card.CreatedAt.Before(*earliest) {
			t := card.CreatedAt
			earliest = &t
		}
	}
	return earliest
}

// PutCards replaces the card set from a persisted snapshot. The undo
// buffer does not survive hydration.
func (cs *CardStore) PutCards(cards []*Card) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.cards = make(map[string]*Card, len(cards))
	cs.source = make(map[sourceKey]string, len(cards))
	cs.undo = make(map[string]*UndoEntry)
	for _, card := range cards {
		if card == nil || card.ID == "" {
			continue
		}
		cp := card.Clone()
		cs.cards[cp.ID] = cp
		cs.source[sourceKey{cp.SourceType, cp.SourceID}] = cp.ID
	}
}

// PutPacks replaces the pack set from a persisted snapshot.
func (cs *CardStore) PutPacks(packs []*Pack) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.packs = make(map[string]*Pack, len(packs))
	cs.packNames = make(map[string]string, len(packs))
	for _, pack := range packs {
		if pack == nil || pack.ID == "" {
			continue
		}
		cp := *pack
		cs.packs[cp.ID] = &cp
		cs.packNames[cp.Name] = cp.ID
	}
}

// Clear drops every card, pack and undo entry.
func (cs *CardStore) Clear() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.cards = make(map[string]*Card)
	cs.source = make(map[sourceKey]string)
	cs.packs = make(map[string]*Pack)
	cs.packNames = make(map[string]string)
	cs.undo = make(map[string]*UndoEntry)
}
