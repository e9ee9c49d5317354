package progress

import (
	"reflect"
	"testing"
)

func TestPatchIsEmpty(t *testing.T) {
	if !(Patch{}).IsEmpty() {
		t.Error("zero patch not empty")
	}
	if (Patch{State: &StatePatch{}}).IsEmpty() {
		t.Error("patch with state group reported empty")
	}
	if (Patch{CardOptions: map[string]DistractorList{"c": {"x"}}}).IsEmpty() {
		t.Error("patch with card options reported empty")
	}
}

func TestPatchMergeLaterGroupsWin(t *testing.T) {
	var p Patch
	p.Merge(Patch{State: &StatePatch{CurrentIndex: 1, MasteredIDs: []string{"a"}}})
	p.Merge(Patch{State: &StatePatch{CurrentIndex: 4, MasteredIDs: []string{"a", "b"}}})

	if p.State.CurrentIndex != 4 {
		t.Errorf("CurrentIndex = %d, want 4", p.State.CurrentIndex)
	}
	if !reflect.DeepEqual(p.State.MasteredIDs, []string{"a", "b"}) {
		t.Errorf("MasteredIDs = %v, want replaced whole", p.State.MasteredIDs)
	}
}

func TestPatchMergeGroupsAreIndependent(t *testing.T) {
	prefs := DefaultPreferences()
	prefs.Shuffle = false

	var p Patch
	p.Merge(Patch{Preferences: &prefs})
	p.Merge(Patch{State: &StatePatch{CurrentIndex: 2}})

	if p.Preferences == nil || p.Preferences.Shuffle {
		t.Error("preference group lost when state group merged")
	}
	if p.State == nil || p.State.CurrentIndex != 2 {
		t.Error("state group missing after merge")
	}
}

func TestPatchMergeCardOptionsAccumulate(t *testing.T) {
	var p Patch
	p.Merge(Patch{CardOptions: map[string]DistractorList{"c1": {"a"}}})
	p.Merge(Patch{CardOptions: map[string]DistractorList{"c2": {"b"}}})

	if len(p.CardOptions) != 2 {
		t.Fatalf("CardOptions = %v, want both cards", p.CardOptions)
	}
}

func TestPatchApplyIsIdempotent(t *testing.T) {
	p := Patch{
		State: &StatePatch{
			MasteredIDs:  []string{"a", "b"},
			CurrentIndex: 3,
			HintLevel:    1,
			Hint:         "x",
		},
		CardOptions: map[string]DistractorList{"c1": {"w1", "w2"}},
	}

	rec := NewRecord()
	p.Apply(rec)
	first := *rec
	p.Apply(rec)

	if !reflect.DeepEqual(rec.MasteredIDs, first.MasteredIDs) ||
		rec.CurrentIndex != first.CurrentIndex ||
		rec.HintLevel != first.HintLevel {
		t.Errorf("second apply changed the record: %+v vs %+v", rec, first)
	}
}

func TestPatchApplyLeavesAbsentGroupsAlone(t *testing.T) {
	rec := NewRecord()
	rec.MasteredIDs = []string{"a"}
	rec.Preferences.Shuffle = false

	prefs := DefaultPreferences()
	Patch{Preferences: &prefs}.Apply(rec)

	if !rec.Preferences.Shuffle {
		t.Error("preferences not applied")
	}
	if len(rec.MasteredIDs) != 1 {
		t.Error("absent state group clobbered mastered IDs")
	}
}
