package identify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, true},
		{"surrounding prose", `here you go {"a":1} hope it helps`, `{"a":1}`, true},
		{"markdown fence", "```json\n{\"a\": [1, 2]}\n```", `{"a": [1, 2]}`, true},
		{"nested object", `x {"a":{"b":2},"c":3} y`, `{"a":{"b":2},"c":3}`, true},
		{"braces inside strings", `{"comment":"nice } pose {","a":1}`, `{"comment":"nice } pose {","a":1}`, true},
		{"escaped quote in string", `{"q":"say \"}\" now"}`, `{"q":"say \"}\" now"}`, true},
		{"skips non-json braces", `use {curly} style then {"a":1}`, `{"a":1}`, true},
		{"first of two objects", `{"a":1} {"b":2}`, `{"a":1}`, true},
		{"unbalanced", `{"a":1`, "", false},
		{"prose only", "I could not identify this bird.", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSON(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseJudgmentClampsAndRecomputes(t *testing.T) {
	text := `here you go {"chinese_name":"白鹭","english_name":"Little Egret",` +
		`"order_chinese":"鹈形目","order_english":"Pelecaniformes",` +
		`"family_chinese":"鹭科","family_english":"Ardeidae","confidence":"HIGH",` +
		`"identification_basis":"黑喙黄脚","bird_description":"常见涉禽",` +
		`"bird_bbox":[10,20,60,-5],"score":99,"score_sharpness":25,"score_composition":"14",` +
		`"score_lighting":12.7,"score_background":-3,"score_pose":9,"score_artistry":4,` +
		`"score_comment":"<b>构图</b>不错 &amp; 光线柔和"}`

	out := ParseJudgment(text)
	r, ok := out.Get()
	require.True(t, ok)
	assert.Equal(t, text, out.Raw())

	assert.Equal(t, "白鹭", r.ChineseName)
	assert.Equal(t, "Ardeidae", r.FamilyEnglish)
	assert.Equal(t, ConfidenceHigh, r.Confidence)
	assert.Equal(t, 20, r.ScoreSharpness, "clamped to max")
	assert.Equal(t, 14, r.ScoreComposition, "numeric string coerced")
	assert.Equal(t, 12, r.ScoreLighting, "fraction truncated")
	assert.Equal(t, 0, r.ScoreBackground, "negative clamped to zero")
	assert.Equal(t, 20+14+12+0+9+4, r.Score)
	assert.NotEqual(t, 99, r.Score)
	assert.Equal(t, []float64{10, 20, 60, 0}, r.BirdBBox)
	assert.Equal(t, "构图不错 & 光线柔和", r.ScoreComment)
}

func TestParseJudgmentDefaults(t *testing.T) {
	r, ok := ParseJudgment(`{"confidence":"certain","bird_bbox":[1,2,3]}`).Get()
	require.True(t, ok)

	assert.Equal(t, UnknownChineseName, r.ChineseName)
	assert.Equal(t, UnknownOrder, r.OrderChinese)
	assert.Equal(t, UnknownTaxon, r.FamilyEnglish)
	assert.Equal(t, ConfidenceLow, r.Confidence)
	assert.Nil(t, r.BirdBBox)
	assert.Zero(t, r.Score)
}

func TestParseJudgmentMalformed(t *testing.T) {
	out := ParseJudgment("Sorry, the image is too blurry to identify.")
	assert.False(t, out.IsParsed())
	assert.Equal(t, "Sorry, the image is too blurry to identify.", out.Raw())
}

func TestScoreInvariantHolds(t *testing.T) {
	for _, v := range []int{-100, -1, 0, 7, 14, 21, 1000} {
		var r Result
		for _, d := range Dimensions {
			r.SetDimension(d.Key, v)
		}
		sum := 0
		for i, s := range r.DimensionScores() {
			assert.GreaterOrEqual(t, s, 0)
			assert.LessOrEqual(t, s, Dimensions[i].Max)
			sum += s
		}
		assert.Equal(t, sum, r.Score)
	}

	total := 0
	for _, d := range Dimensions {
		total += d.Max
	}
	assert.Equal(t, 100, total)
}

func TestParseCandidates(t *testing.T) {
	text := `候选如下：{"candidates":[` +
		`{"chinese_name":"黄腰柳莺","english_name":"Pallas's Leaf Warbler","key_features":"黄色腰","confidence_pct":70},` +
		`{"chinese_name":"","english_name":""},` +
		`{"chinese_name":"黄眉柳莺","english_name":"Yellow-browed Warbler","confidence_pct":"140"},` +
		`{"chinese_name":"极北柳莺","english_name":"Arctic Warbler","confidence_pct":5},` +
		`{"chinese_name":"冕柳莺","english_name":"Eastern Crowned Warbler","confidence_pct":1}],` +
		`"excluded":[{"chinese_name":"褐柳莺","reason":"无翼斑"},{"reason":"no name"}]}`

	set, ok := ParseCandidates(text).Get()
	require.True(t, ok)
	require.Len(t, set.Candidates, MaxCandidates)
	assert.Equal(t, "黄腰柳莺", set.Candidates[0].ChineseName)
	assert.Equal(t, 100, set.Candidates[1].ConfidencePct)
	assert.Equal(t, "极北柳莺", set.Candidates[2].ChineseName)
	require.Len(t, set.Excluded, 1)
	assert.Equal(t, "无翼斑", set.Excluded[0].Reason)

	empty, ok := ParseCandidates("no json here").Get()
	assert.False(t, ok)
	assert.True(t, empty.Empty())
}

func TestFallbackAndGrades(t *testing.T) {
	f := Fallback()
	assert.Equal(t, "未知鸟类", f.ChineseName)
	assert.Equal(t, "unknown", f.EnglishName)
	assert.Equal(t, "未知目", f.OrderChinese)
	assert.Equal(t, "Unknown", f.OrderEnglish)
	assert.Equal(t, ConfidenceLow, f.Confidence)
	assert.Equal(t, "识别失败", f.ScoreComment)
	assert.Zero(t, f.Score)
	assert.True(t, f.IsUnknown())

	assert.Equal(t, GradeExcellent, GradeFor(90))
	assert.Equal(t, GradeGood, GradeFor(89))
	assert.Equal(t, GradeGood, GradeFor(75))
	assert.Equal(t, GradeFair, GradeFor(60))
	assert.Equal(t, GradePoor, GradeFor(59))
	assert.Equal(t, GradePoor, Result{}.Grade())
}
