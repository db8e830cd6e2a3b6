package identify

// MaxCandidates is the number of species phase 1 may propose.
const MaxCandidates = 3

// Candidate is one species proposed by phase 1.
type Candidate struct {
	ChineseName         string `json:"chinese_name"`
	EnglishName         string `json:"english_name"`
	KeyFeatures         string `json:"key_features"`
	DistinguishingMarks string `json:"distinguishing_marks"`
	Distribution        string `json:"distribution"`
	ConfidencePct       int    `json:"confidence_pct"`
}

// Exclusion is a similar species phase 1 ruled out.
type Exclusion struct {
	ChineseName string `json:"chinese_name"`
	Reason      string `json:"reason"`
}

// CandidateSet is the phase 1 outcome handed to phase 2. It is never
// persisted.
type CandidateSet struct {
	Candidates []Candidate `json:"candidates"`
	Excluded   []Exclusion `json:"excluded"`
}

// Empty reports whether phase 1 produced nothing usable.
func (c CandidateSet) Empty() bool {
	return len(c.Candidates) == 0 && len(c.Excluded) == 0
}
