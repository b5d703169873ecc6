package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var storeT0 = time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)

// stubTransition is a deterministic stand-in for the SM-2 scheduler so
// store tests exercise bookkeeping, not the algorithm.
func stubTransition(prior SchedulingState, quality int, now time.Time) SchedulingState {
	next := prior
	if quality >= QualityPassing {
		next.Repetitions = prior.Repetitions + 1
		next.Interval = prior.Interval + quality
	} else {
		next.Repetitions = 0
		next.Interval = 1
	}
	due := now.AddDate(0, 0, next.Interval)
	next.NextReviewDate = &due
	reviewed := now
	next.LastReviewedAt = &reviewed
	return next
}

func newStore() *CardStore {
	return NewCardStore(stubTransition, 5*time.Second)
}

func TestAddCard_Defaults(t *testing.T) {
	cs := newStore()
	card, err := cs.AddCard(SourceMilestone, "m-1", nil, storeT0)
	require.NoError(t, err)

	assert.NotEmpty(t, card.ID)
	assert.Equal(t, InitialEaseFactor, card.EaseFactor)
	assert.Equal(t, 0, card.Interval)
	assert.Equal(t, 0, card.Repetitions)
	assert.Nil(t, card.NextReviewDate)
	assert.Nil(t, card.LastReviewedAt)
	assert.True(t, card.IsDue(storeT0))
	assert.Equal(t, []string{DefaultPackID}, card.PackIDs)
}

func TestAddCard_CreatesDefaultPackOnDemand(t *testing.T) {
	cs := newStore()
	assert.Equal(t, 0, cs.PackCount())

	_, err := cs.AddCard(SourceConcept, "c-1", nil, storeT0)
	require.NoError(t, err)

	packs := cs.Packs()
	require.Len(t, packs, 1)
	assert.Equal(t, DefaultPackID, packs[0].ID)
	assert.Equal(t, DefaultPackName, packs[0].Name)
}

func TestAddCard_DuplicateSourceRejected(t *testing.T) {
	cs := newStore()
	_, err := cs.AddCard(SourceMilestone, "m-1", nil, storeT0)
	require.NoError(t, err)

	_, err = cs.AddCard(SourceMilestone, "m-1", nil, storeT0)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, 1, cs.CardCount())
}

func TestAddCard_SameSourceIDDifferentType(t *testing.T) {
	cs := newStore()
	_, err := cs.AddCard(SourceMilestone, "x", nil, storeT0)
	require.NoError(t, err)
	_, err = cs.AddCard(SourceConcept, "x", nil, storeT0)
	assert.NoError(t, err)
}

func TestAddCard_InvalidInput(t *testing.T) {
	cs := newStore()

	_, err := cs.AddCard("recipe", "m-1", nil, storeT0)
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = cs.AddCard(SourceMilestone, "", nil, storeT0)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestAddCard_UnknownPackRejected(t *testing.T) {
	cs := newStore()
	_, err := cs.AddCard(SourceMilestone, "m-1", []string{"ghost"}, storeT0)
	assert.True(t, errors.Is(err, ErrPackNotFound))
	assert.Equal(t, 0, cs.CardCount())
}

func TestAddCard_ExplicitPackMembership(t *testing.T) {
	cs := newStore()
	pack, err := cs.CreatePack("History", storeT0)
	require.NoError(t, err)

	card, err := cs.AddCard(SourceConcept, "c-1", []string{pack.ID}, storeT0)
	require.NoError(t, err)
	assert.Equal(t, []string{pack.ID}, card.PackIDs)
}

func TestIsSaved(t *testing.T) {
	cs := newStore()
	_, err := cs.AddCard(SourceMilestone, "m-1", nil, storeT0)
	require.NoError(t, err)

	assert.True(t, cs.IsSaved(SourceMilestone, "m-1"))
	assert.False(t, cs.IsSaved(SourceConcept, "m-1"))
	assert.False(t, cs.IsSaved(SourceMilestone, "m-2"))
}

func TestRemoveCard(t *testing.T) {
	cs := newStore()
	card, err := cs.AddCard(SourceMilestone, "m-1", nil, storeT0)
	require.NoError(t, err)

	require.NoError(t, cs.RemoveCard(card.ID))
	assert.Equal(t, 0, cs.CardCount())
	assert.False(t, cs.IsSaved(SourceMilestone, "m-1"))

	err = cs.RemoveCard(card.ID)
	assert.True(t, errors.Is(err, ErrCardNotFound))
}

func TestRemoveCard_DropsUndoEntry(t *testing.T) {
	cs := newStore()
	card, err := cs.AddCard(SourceMilestone, "m-1", nil, storeT0)
	require.NoError(t, err)
	_, _, err = cs.RecordReview(card.ID, QualityGood, storeT0)
	require.NoError(t, err)

	require.NoError(t, cs.RemoveCard(card.ID))

	_, _, ok := cs.UndoReview(card.ID, storeT0.Add(time.Second))
	assert.False(t, ok)
}

func TestDueCards_NeverScheduledFirst(t *testing.T) {
	cs := newStore()
	fresh, err := cs.AddCard(SourceMilestone, "fresh", nil, storeT0.Add(time.Hour))
	require.NoError(t, err)
	scheduled, err := cs.AddCard(SourceMilestone, "scheduled", nil, storeT0)
	require.NoError(t, err)

	// Review pushes "scheduled" one day out; query from the day after.
	_, _, err = cs.RecordReview(scheduled.ID, QualityAgain, storeT0)
	require.NoError(t, err)

	now := storeT0.AddDate(0, 0, 2)
	due, err := cs.DueCards("", now)
	require.NoError(t, err)

	require.Len(t, due, 2)
	assert.Equal(t, fresh.ID, due[0].ID)
	assert.Equal(t, scheduled.ID, due[1].ID)
}

func TestDueCards_ExcludesFutureCards(t *testing.T) {
	cs := newStore()
	card, err := cs.AddCard(SourceMilestone, "m-1", nil, storeT0)
	require.NoError(t, err)
	_, _, err = cs.RecordReview(card.ID, QualityEasy, storeT0)
	require.NoError(t, err)

	due, err := cs.DueCards("", storeT0.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestDueCards_PackFilter(t *testing.T) {
	cs := newStore()
	pack, err := cs.CreatePack("Focus", storeT0)
	require.NoError(t, err)

	inPack, err := cs.AddCard(SourceMilestone, "in", []string{pack.ID}, storeT0)
	require.NoError(t, err)
	_, err = cs.AddCard(SourceMilestone, "out", nil, storeT0)
	require.NoError(t, err)

	due, err := cs.DueCards(pack.ID, storeT0)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, inPack.ID, due[0].ID)
}

func TestDueCards_UnknownPack(t *testing.T) {
	cs := newStore()
	_, err := cs.DueCards("ghost", storeT0)
	assert.True(t, errors.Is(err, ErrPackNotFound))
}

func TestDueCards_StableOrder(t *testing.T) {
	cs := newStore()
	for _, src := range []string{"a", "b", "c", "d"} {
		_, err := cs.AddCard(SourceConcept, src, nil, storeT0)
		require.NoError(t, err)
	}

	first, err := cs.DueCards("", storeT0)
	require.NoError(t, err)
	second, err := cs.DueCards("", storeT0)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestRecordReview_AppliesTransition(t *testing.T) {
	cs := newStore()
	card, err := cs.AddCard(SourceMilestone, "m-1", nil, storeT0)
	require.NoError(t, err)

	ev, updated, err := cs.RecordReview(card.ID, QualityGood, storeT0)
	require.NoError(t, err)

	assert.Equal(t, card.ID, ev.CardID)
	assert.Equal(t, QualityGood, ev.Quality)
	assert.Equal(t, DayKeyOf(storeT0), ev.DayBucket)
	assert.Equal(t, 1, updated.Repetitions)
	assert.Equal(t, QualityGood, updated.Interval) // stub: interval+quality
	require.NotNil(t, updated.LastReviewedAt)
}

func TestRecordReview_QualityOutOfRange(t *testing.T) {
	cs := newStore()
	card, err := cs.AddCard(SourceMilestone, "m-1", nil, storeT0)
	require.NoError(t, err)

	for _, quality := range []int{-1, 6, 42} {
		_, _, err := cs.RecordReview(card.ID, quality, storeT0)
		assert.True(t, errors.Is(err, ErrValidation), "quality %d", quality)
	}

	fetched, ok := cs.Get(card.ID)
	require.True(t, ok)
	assert.Equal(t, 0, fetched.Repetitions)
	assert.Nil(t, fetched.LastReviewedAt)
}

func TestRecordReview_UnknownCard(t *testing.T) {
	cs := newStore()
	_, _, err := cs.RecordReview("ghost", QualityGood, storeT0)
	assert.True(t, errors.Is(err, ErrCardNotFound))
}

func TestUndoReview_RestoresPriorState(t *testing.T) {
	cs := newStore()
	card, err := cs.AddCard(SourceMilestone, "m-1", nil, storeT0)
	require.NoError(t, err)

	ev, _, err := cs.RecordReview(card.ID, QualityGood, storeT0)
	require.NoError(t, err)

	undoneEv, restored, ok := cs.UndoReview(card.ID, storeT0.Add(2*time.Second))
	require.True(t, ok)
	assert.Equal(t, ev, undoneEv)
	assert.Equal(t, 0, restored.Repetitions)
	assert.Equal(t, 0, restored.Interval)
	assert.Nil(t, restored.NextReviewDate)
	assert.Nil(t, restored.LastReviewedAt)
}

func TestUndoReview_SecondUndoIsNoop(t *testing.T) {
	cs := newStore()
	card, err := cs.AddCard(SourceMilestone, "m-1", nil, storeT0)
	require.NoError(t, err)
	_, _, err = cs.RecordReview(card.ID, QualityGood, storeT0)
	require.NoError(t, err)

	_, _, ok := cs.UndoReview(card.ID, storeT0.Add(time.Second))
	require.True(t, ok)

	_, _, ok = cs.UndoReview(card.ID, storeT0.Add(2*time.Second))
	assert.False(t, ok)
}

func TestUndoReview_WindowExpired(t *testing.T) {
	cs := newStore()
	card, err := cs.AddCard(SourceMilestone, "m-1", nil, storeT0)
	require.NoError(t, err)
	_, _, err = cs.RecordReview(card.ID, QualityGood, storeT0)
	require.NoError(t, err)

	_, _, ok := cs.UndoReview(card.ID, storeT0.Add(6*time.Second))
	assert.False(t, ok)

	// The card keeps its reviewed state.
	fetched, found := cs.Get(card.ID)
	require.True(t, found)
	assert.Equal(t, 1, fetched.Repetitions)
}

func TestUndoReview_OnlyLatestEventIsUndoable(t *testing.T) {
	cs := newStore()
	card, err := cs.AddCard(SourceMilestone, "m-1", nil, storeT0)
	require.NoError(t, err)

	_, _, err = cs.RecordReview(card.ID, QualityGood, storeT0)
	require.NoError(t, err)
	second := storeT0.Add(time.Second)
	_, afterSecond, err := cs.RecordReview(card.ID, QualityEasy, second)
	require.NoError(t, err)
	require.Equal(t, 2, afterSecond.Repetitions)

	// Undo restores to the state before the second review, not the first.
	_, restored, ok := cs.UndoReview(card.ID, second.Add(time.Second))
	require.True(t, ok)
	assert.Equal(t, 1, restored.Repetitions)
}

func TestUndoReview_NoEventIsNoop(t *testing.T) {
	cs := newStore()
	card, err := cs.AddCard(SourceMilestone, "m-1", nil, storeT0)
	require.NoError(t, err)

	_, _, ok := cs.UndoReview(card.ID, storeT0)
	assert.False(t, ok)
	_, _, ok = cs.UndoReview("ghost", storeT0)
	assert.False(t, ok)
}

func TestSweepUndo_RemovesExpiredOnly(t *testing.T) {
	cs := newStore()
	old, err := cs.AddCard(SourceMilestone, "old", nil, storeT0)
	require.NoError(t, err)
	recent, err := cs.AddCard(SourceMilestone, "recent", nil, storeT0)
	require.NoError(t, err)

	_, _, err = cs.RecordReview(old.ID, QualityGood, storeT0)
	require.NoError(t, err)
	_, _, err = cs.RecordReview(recent.ID, QualityGood, storeT0.Add(10*time.Second))
	require.NoError(t, err)

	removed := cs.SweepUndo(storeT0.Add(12 * time.Second))
	assert.Equal(t, 1, removed)

	_, _, ok := cs.UndoReview(recent.ID, storeT0.Add(13*time.Second))
	assert.True(t, ok)
}

func TestCreatePack_Validation(t *testing.T) {
	cs := newStore()

	_, err := cs.CreatePack("", storeT0)
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = cs.CreatePack("History", storeT0)
	require.NoError(t, err)
	_, err = cs.CreatePack("History", storeT0)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestRenamePack(t *testing.T) {
	cs := newStore()
	pack, err := cs.CreatePack("Histroy", storeT0)
	require.NoError(t, err)

	renamed, err := cs.RenamePack(pack.ID, "History")
	require.NoError(t, err)
	assert.Equal(t, "History", renamed.Name)

	// The old name is reusable again.
	_, err = cs.CreatePack("Histroy", storeT0)
	assert.NoError(t, err)
}

func TestRenamePack_Conflicts(t *testing.T) {
	cs := newStore()
	a, err := cs.CreatePack("A", storeT0)
	require.NoError(t, err)
	_, err = cs.CreatePack("B", storeT0)
	require.NoError(t, err)

	_, err = cs.RenamePack(a.ID, "B")
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = cs.RenamePack(a.ID, "")
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = cs.RenamePack("ghost", "C")
	assert.True(t, errors.Is(err, ErrPackNotFound))

	// Renaming to its own name is allowed.
	_, err = cs.RenamePack(a.ID, "A")
	assert.NoError(t, err)
}

func TestDeletePack_KeepsCards(t *testing.T) {
	cs := newStore()
	pack, err := cs.CreatePack("Doomed", storeT0)
	require.NoError(t, err)
	card, err := cs.AddCard(SourceMilestone, "m-1", []string{pack.ID}, storeT0)
	require.NoError(t, err)

	require.NoError(t, cs.DeletePack(pack.ID))

	fetched, ok := cs.Get(card.ID)
	require.True(t, ok)
	assert.Empty(t, fetched.PackIDs)
	assert.Equal(t, 1, cs.CardCount())

	err = cs.DeletePack(pack.ID)
	assert.True(t, errors.Is(err, ErrPackNotFound))
}

func TestAssignAndUnassignCard(t *testing.T) {
	cs := newStore()
	pack, err := cs.CreatePack("Extra", storeT0)
	require.NoError(t, err)
	card, err := cs.AddCard(SourceMilestone, "m-1", nil, storeT0)
	require.NoError(t, err)

	require.NoError(t, cs.AssignCard(card.ID, pack.ID))
	// Assigning twice is idempotent.
	require.NoError(t, cs.AssignCard(card.ID, pack.ID))

	fetched, _ := cs.Get(card.ID)
	assert.Equal(t, []string{DefaultPackID, pack.ID}, fetched.PackIDs)

	require.NoError(t, cs.UnassignCard(card.ID, pack.ID))
	fetched, _ = cs.Get(card.ID)
	assert.Equal(t, []string{DefaultPackID}, fetched.PackIDs)

	assert.True(t, errors.Is(cs.AssignCard("ghost", pack.ID), ErrCardNotFound))
	assert.True(t, errors.Is(cs.AssignCard(card.ID, "ghost"), ErrPackNotFound))
	assert.True(t, errors.Is(cs.UnassignCard("ghost", pack.ID), ErrCardNotFound))
	assert.True(t, errors.Is(cs.UnassignCard(card.ID, "ghost"), ErrPackNotFound))
}

func TestGet_ReturnsClone(t *testing.T) {
	cs := newStore()
	card, err := cs.AddCard(SourceMilestone, "m-1", nil, storeT0)
	require.NoError(t, err)

	clone, ok := cs.Get(card.ID)
	require.True(t, ok)
	clone.EaseFactor = 99
	clone.PackIDs = append(clone.PackIDs, "sneaky")

	fetched, _ := cs.Get(card.ID)
	assert.Equal(t, InitialEaseFactor, fetched.EaseFactor)
	assert.Equal(t, []string{DefaultPackID}, fetched.PackIDs)
}

func TestCounts(t *testing.T) {
	cs := newStore()
	assert.Nil(t, cs.EarliestCreatedAt())

	first, err := cs.AddCard(SourceMilestone, "m-1", nil, storeT0)
	require.NoError(t, err)
	_, err = cs.AddCard(SourceMilestone, "m-2", nil, storeT0.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 2, cs.CardCount())
	assert.Equal(t, 1, cs.PackCount())
	assert.Equal(t, 2, cs.DueCount(storeT0.Add(2*time.Hour)))

	earliest := cs.EarliestCreatedAt()
	require.NotNil(t, earliest)
	assert.True(t, earliest.Equal(storeT0))

	_, _, err = cs.RecordReview(first.ID, QualityEasy, storeT0.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, cs.DueCount(storeT0.Add(3*time.Hour)))
}

func TestPutCards_RebuildsIndexAndDropsUndo(t *testing.T) {
	cs := newStore()
	card, err := cs.AddCard(SourceMilestone, "m-1", nil, storeT0)
	require.NoError(t, err)
	_, _, err = cs.RecordReview(card.ID, QualityGood, storeT0)
	require.NoError(t, err)

	replacement := NewCard(SourceConcept, "c-9", []string{DefaultPackID}, storeT0)
	cs.PutCards([]*Card{replacement, nil, {}})

	assert.Equal(t, 1, cs.CardCount())
	assert.False(t, cs.IsSaved(SourceMilestone, "m-1"))
	assert.True(t, cs.IsSaved(SourceConcept, "c-9"))

	_, _, ok := cs.UndoReview(card.ID, storeT0.Add(time.Second))
	assert.False(t, ok)
}

func TestPutPacks_ReplacesSet(t *testing.T) {
	cs := newStore()
	_, err := cs.CreatePack("Old", storeT0)
	require.NoError(t, err)

	cs.PutPacks([]*Pack{{ID: "p1", Name: "New", CreatedAt: storeT0}})

	packs := cs.Packs()
	require.Len(t, packs, 1)
	assert.Equal(t, "New", packs[0].Name)

	// Restored names guard uniqueness again.
	_, err = cs.CreatePack("New", storeT0)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestClear_DropsEverything(t *testing.T) {
	cs := newStore()
	card, err := cs.AddCard(SourceMilestone, "m-1", nil, storeT0)
	require.NoError(t, err)
	_, _, err = cs.RecordReview(card.ID, QualityGood, storeT0)
	require.NoError(t, err)

	cs.Clear()

	assert.Equal(t, 0, cs.CardCount())
	assert.Equal(t, 0, cs.PackCount())
	_, _, ok := cs.UndoReview(card.ID, storeT0.Add(time.Second))
	assert.False(t, ok)
}
