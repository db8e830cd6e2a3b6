// Package identify runs the two-phase identification protocol against the
// vision model and turns its free-text answers into validated results.
package identify

// Confidence levels reported by the model.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Values used when the species or taxonomy is unknown.
const (
	UnknownChineseName = "未知鸟类"
	UnknownEnglishName = "unknown"
	UnknownOrder       = "未知目"
	UnknownFamily      = "未知科"
	UnknownTaxon       = "Unknown"

	fallbackComment = "识别失败"
)

// Dimension is one bounded sub-score of the photo quality rating.
type Dimension struct {
	Key string
	Max int
}

// Dimensions lists the six scoring dimensions; their maxima sum to 100.
var Dimensions = []Dimension{
	{"score_sharpness", 20},
	{"score_composition", 20},
	{"score_lighting", 20},
	{"score_background", 15},
	{"score_pose", 15},
	{"score_artistry", 10},
}

// Result is the outcome of identifying one photo.
type Result struct {
	ChineseName         string    `json:"chinese_name"`
	EnglishName         string    `json:"english_name"`
	OrderChinese        string    `json:"order_chinese"`
	OrderEnglish        string    `json:"order_english"`
	FamilyChinese       string    `json:"family_chinese"`
	FamilyEnglish       string    `json:"family_english"`
	Confidence          string    `json:"confidence"`
	IdentificationBasis string    `json:"identification_basis"`
	BirdDescription     string    `json:"bird_description"`
	BirdBBox            []float64 `json:"bird_bbox,omitempty"`
	Score               int       `json:"score"`
	ScoreSharpness      int       `json:"score_sharpness"`
	ScoreComposition    int       `json:"score_composition"`
	ScoreLighting       int       `json:"score_lighting"`
	ScoreBackground     int       `json:"score_background"`
	ScorePose           int       `json:"score_pose"`
	ScoreArtistry       int       `json:"score_artistry"`
	ScoreComment        string    `json:"score_comment"`

	// Set by the pipeline after identification.
	ShootDate    string `json:"shoot_date"`
	OriginalName string `json:"original_name"`
	Location     string `json:"location,omitempty"`
}

// dimension returns a pointer to the field backing a dimension key.
func (r *Result) dimension(key string) *int {
	switch key {
	case "score_sharpness":
		return &r.ScoreSharpness
	case "score_composition":
		return &r.ScoreComposition
	case "score_lighting":
		return &r.ScoreLighting
	case "score_background":
		return &r.ScoreBackground
	case "score_pose":
		return &r.ScorePose
	case "score_artistry":
		return &r.ScoreArtistry
	}
	return nil
}

// DimensionScores returns the six sub-scores in Dimensions order.
func (r Result) DimensionScores() []int {
	out := make([]int, len(Dimensions))
	for i, d := range Dimensions {
		out[i] = *r.dimension(d.Key)
	}
	return out
}

// SetDimension clamps v into [0, max] for the dimension and recomputes
// Score. Unknown keys are ignored.
func (r *Result) SetDimension(key string, v int) {
	for _, d := range Dimensions {
		if d.Key == key {
			*r.dimension(key) = clamp(v, 0, d.Max)
			r.recomputeScore()
			return
		}
	}
}

func (r *Result) recomputeScore() {
	total := 0
	for _, d := range Dimensions {
		total += *r.dimension(d.Key)
	}
	r.Score = total
}

// IsUnknown reports whether no species was identified.
func (r Result) IsUnknown() bool {
	return IsUnknownSpecies(r.ChineseName)
}

// IsUnknownSpecies reports whether a species name stands for "not identified".
func IsUnknownSpecies(name string) bool {
	return name == "" || name == UnknownChineseName || name == UnknownEnglishName
}

// Fallback returns the canonical result for a photo whose identification
// could not be parsed.
func Fallback() Result {
	return Result{
		ChineseName:   UnknownChineseName,
		EnglishName:   UnknownEnglishName,
		OrderChinese:  UnknownOrder,
		OrderEnglish:  UnknownTaxon,
		FamilyChinese: UnknownFamily,
		FamilyEnglish: UnknownTaxon,
		Confidence:    ConfidenceLow,
		ScoreComment:  fallbackComment,
	}
}

// Grade buckets a total score.
type Grade string

const (
	GradeExcellent Grade = "excellent"
	GradeGood      Grade = "good"
	GradeFair      Grade = "fair"
	GradePoor      Grade = "poor"
)

// GradeFor returns the grade of a total score.
func GradeFor(score int) Grade {
	switch {
	case score >= 90:
		return GradeExcellent
	case score >= 75:
		return GradeGood
	case score >= 60:
		return GradeFair
	}
	return GradePoor
}

// Grade returns the grade of the result's total score.
func (r Result) Grade() Grade {
	return GradeFor(r.Score)
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
