package textdata

// Semantics holds one codebook's ordered quantized token codes for a sentence.
type Semantics struct {
	Values []int64
}

// Sentence pairs sanitized text with its phoneme sequence and the per-codebook
// semantic token rows loaded from the feature file.
type Sentence struct {
	Text      string
	Phones    []string
	Semantics []Semantics
}

// Record is the unit written per frame: every sentence produced from one
// group, together with the group's identity.
type Record struct {
	Source    string
	Name      string
	Languages []string
	Sentences []Sentence
}
