package progress

// StatePatch carries the progress fields that change as the learner works
// through a deck. It is always sent whole — the groups below are the unit
// of partial update, not individual fields.
type StatePatch struct {
	MasteredIDs  []string `json:"masteredIds"`
	IncorrectIDs []string `json:"incorrectIds"`
	CurrentIndex int      `json:"currentIndex"`
	HintLevel    int      `json:"hintLevel"`
	Hint         string   `json:"hint,omitempty"`
}

// Patch is a partial update to a stored Record. Only the top-level groups
// that are present are merged server-side; re-applying the same patch
// produces the same stored state.
type Patch struct {
	Preferences *Preferences              `json:"preferences,omitempty"`
	State       *StatePatch               `json:"progress,omitempty"`
	CardOptions map[string]DistractorList `json:"cardOptions,omitempty"`
}

// IsEmpty reports whether the patch carries nothing to persist.
func (p Patch) IsEmpty() bool {
	return p.Preferences == nil && p.State == nil && len(p.CardOptions) == 0
}

// Merge folds other into p, group by group. Later values win within a
// group; card options accumulate per card.
func (p *Patch) Merge(other Patch) {
	if other.Preferences != nil {
		prefs := *other.Preferences
		p.Preferences = &prefs
	}
	if other.State != nil {
		st := *other.State
		p.State = &st
	}
	if len(other.CardOptions) > 0 {
		if p.CardOptions == nil {
			p.CardOptions = make(map[string]DistractorList, len(other.CardOptions))
		}
		for cardID, opts := range other.CardOptions {
			p.CardOptions[cardID] = opts
		}
	}
}

// Apply merges the patch into a full record, the same merge the store
// performs on save.
func (p Patch) Apply(rec *Record) {
	if p.Preferences != nil {
		rec.Preferences = *p.Preferences
	}
	if p.State != nil {
		rec.MasteredIDs = append([]string(nil), p.State.MasteredIDs...)
		rec.IncorrectIDs = append([]string(nil), p.State.IncorrectIDs...)
		rec.CurrentIndex = p.State.CurrentIndex
		rec.HintLevel = p.State.HintLevel
		rec.Hint = p.State.Hint
	}
	if len(p.CardOptions) > 0 {
		if rec.CardOptions == nil {
			rec.CardOptions = make(map[string]DistractorList, len(p.CardOptions))
		}
		for cardID, opts := range p.CardOptions {
			rec.CardOptions[cardID] = opts
		}
	}
}
