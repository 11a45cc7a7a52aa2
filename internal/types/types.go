package types

// Card is one phrase on the board and whether the player has marked it.
type Card struct {
	Text     string `json:"text"`
	Selected bool   `json:"selected"`
}

// PhraseList is the on-disk shape of the phrase pool.
type PhraseList struct {
	Phrases []string `json:"phrases" yaml:"phrases"`
}

// Snapshot is the persisted form of a session. Field names match the
// snapshots written by earlier versions of the widget.
type Snapshot struct {
	Date     string `json:"date"`
	Phrases  []Card `json:"phrases"`
	WasBingo bool   `json:"wasBingo"`
}
