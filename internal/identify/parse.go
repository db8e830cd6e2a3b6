package identify

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/antonholmquist/jason"
	"github.com/k3a/html2text"
)

// ParseJudgment validates a phase 2 answer. Dimension scores are coerced to
// integers and clamped to their maxima, and the total is recomputed from
// them; the model's own total is ignored.
func ParseJudgment(text string) Outcome[Result] {
	obj, ok := extractObject(text)
	if !ok {
		return Malformed[Result](text)
	}

	r := Result{
		ChineseName:         stringOr(obj, UnknownChineseName, "chinese_name"),
		EnglishName:         stringOr(obj, UnknownEnglishName, "english_name"),
		OrderChinese:        stringOr(obj, UnknownOrder, "order_chinese"),
		OrderEnglish:        stringOr(obj, UnknownTaxon, "order_english"),
		FamilyChinese:       stringOr(obj, UnknownFamily, "family_chinese"),
		FamilyEnglish:       stringOr(obj, UnknownTaxon, "family_english"),
		Confidence:          normalizeConfidence(stringOr(obj, "", "confidence")),
		IdentificationBasis: cleanText(stringOr(obj, "", "identification_basis")),
		BirdDescription:     cleanText(stringOr(obj, "", "bird_description")),
		ScoreComment:        cleanText(stringOr(obj, "", "score_comment")),
		BirdBBox:            parseBBox(obj),
	}
	for _, d := range Dimensions {
		r.SetDimension(d.Key, intOr(obj, 0, d.Key))
	}
	return Parsed(r, text)
}

// ParseCandidates validates a phase 1 answer. At most MaxCandidates
// candidates are kept and entries without a name are dropped.
func ParseCandidates(text string) Outcome[CandidateSet] {
	obj, ok := extractObject(text)
	if !ok {
		return Malformed[CandidateSet](text)
	}

	var set CandidateSet
	if items, err := obj.GetObjectArray("candidates"); err == nil {
		for _, it := range items {
			c := Candidate{
				ChineseName:         stringOr(it, "", "chinese_name"),
				EnglishName:         stringOr(it, "", "english_name"),
				KeyFeatures:         cleanText(stringOr(it, "", "key_features")),
				DistinguishingMarks: cleanText(stringOr(it, "", "distinguishing_marks")),
				Distribution:        cleanText(stringOr(it, "", "distribution")),
				ConfidencePct:       clamp(intOr(it, 0, "confidence_pct"), 0, 100),
			}
			if c.ChineseName == "" && c.EnglishName == "" {
				continue
			}
			set.Candidates = append(set.Candidates, c)
			if len(set.Candidates) == MaxCandidates {
				break
			}
		}
	}
	if items, err := obj.GetObjectArray("excluded"); err == nil {
		for _, it := range items {
			e := Exclusion{
				ChineseName: stringOr(it, "", "chinese_name"),
				Reason:      cleanText(stringOr(it, "", "reason")),
			}
			if e.ChineseName != "" {
				set.Excluded = append(set.Excluded, e)
			}
		}
	}
	return Parsed(set, text)
}

func extractObject(text string) (*jason.Object, bool) {
	span, ok := ExtractJSON(text)
	if !ok {
		return nil, false
	}
	obj, err := jason.NewObjectFromBytes([]byte(span))
	if err != nil {
		return nil, false
	}
	return obj, true
}

// stringOr reads a string field, returning def when it is missing, not a
// string, or blank.
func stringOr(obj *jason.Object, def, key string) string {
	s, err := obj.GetString(key)
	if err != nil {
		return def
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

// intOr reads a numeric field that the model may send as a number or a
// numeric string. Fractions are truncated.
func intOr(obj *jason.Object, def int, key string) int {
	if n, err := obj.GetNumber(key); err == nil {
		return truncate(n)
	}
	if s, err := obj.GetString(key); err == nil {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return int(f)
		}
	}
	return def
}

func truncate(n json.Number) int {
	if i, err := n.Int64(); err == nil {
		return int(min(max(i, math.MinInt32), math.MaxInt32))
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(max(min(f, math.MaxInt32), math.MinInt32))
}

// parseBBox reads [x1, y1, x2, y2] in percent, clamped to 0-100. Anything
// else yields no box.
func parseBBox(obj *jason.Object) []float64 {
	vals, err := obj.GetValueArray("bird_bbox")
	if err != nil || len(vals) != 4 {
		return nil
	}
	box := make([]float64, 4)
	for i, v := range vals {
		f, err := v.Float64()
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		box[i] = min(max(f, 0), 100)
	}
	return box
}

func normalizeConfidence(s string) string {
	switch strings.ToLower(s) {
	case ConfidenceHigh:
		return ConfidenceHigh
	case ConfidenceMedium:
		return ConfidenceMedium
	}
	return ConfidenceLow
}

// cleanText strips markup the model sometimes wraps rationale in.
func cleanText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	return strings.TrimSpace(html2text.HTML2Text(s))
}
