package progress

// Preferences are the per-user, per-deck learn-mode settings.
// They persist across sessions and are applied before any derived session
// state is computed, since option shuffling and question-type selection
// depend on them.
type Preferences struct {
	TrackProgress       bool `json:"trackProgress"`
	ShowOptions         bool `json:"showOptions"`
	Shuffle             bool `json:"shuffle"`
	StudyStarredOnly    bool `json:"studyStarredOnly"`
	SoundEffects        bool `json:"soundEffects"`
	TextToSpeech        bool `json:"textToSpeech"`
	AllowMultipleChoice bool `json:"allowMultipleChoice"`
	AllowWritten        bool `json:"allowWritten"`
}

// DefaultPreferences returns the settings a user starts with before they
// have ever saved anything.
func DefaultPreferences() Preferences {
	return Preferences{
		TrackProgress:       true,
		ShowOptions:         true,
		Shuffle:             true,
		StudyStarredOnly:    false,
		SoundEffects:        false,
		TextToSpeech:        false,
		AllowMultipleChoice: true,
		AllowWritten:        true,
	}
}

// Record is the persisted learn-mode state for one (user, deck) pair.
//
// MasteredIDs and IncorrectIDs may overlap transiently — a card answered
// wrong and later corrected appears in both until the next correction — but
// a card currently mastered is excluded from the active rotation.
// CardOptions holds distractors only; the correct answer is appended at
// presentation time, never stored.
type Record struct {
	MasteredIDs  []string                  `json:"masteredIds"`
	IncorrectIDs []string                  `json:"incorrectIds"`
	CurrentIndex int                       `json:"currentIndex"`
	HintLevel    int                       `json:"hintLevel"`
	Hint         string                    `json:"hint,omitempty"`
	CardOptions  map[string]DistractorList `json:"cardOptions,omitempty"`
	Preferences  Preferences               `json:"preferences"`
}

// NewRecord returns an empty record with default preferences.
func NewRecord() *Record {
	return &Record{
		MasteredIDs:  []string{},
		IncorrectIDs: []string{},
		CardOptions:  map[string]DistractorList{},
		Preferences:  DefaultPreferences(),
	}
}
