// Package records persists identification results for later listing and
// ranking. Two backends implement Store: a PostgREST style REST collection
// and a local SQL database through gorm.
package records

import (
	"encoding/json"
	"time"

	"github.com/birdeye-app/birdeye/internal/identify"
)

// ID is a server-assigned record identifier. Remote stores may use numeric
// or textual keys; both decode to a string.
type ID string

// UnmarshalJSON accepts a JSON string, number or null.
func (id *ID) UnmarshalJSON(b []byte) error {
	switch {
	case string(b) == "null":
		*id = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// Record is the persisted subset of an identification result.
type Record struct {
	ID        ID        `json:"id,omitempty" gorm:"primaryKey;size:64"`
	CreatedAt time.Time `json:"created_at,omitzero" gorm:"index"`

	UserNickname  string `json:"user_nickname" gorm:"index;size:64"`
	ChineseName   string `json:"chinese_name"`
	EnglishName   string `json:"english_name"`
	OrderChinese  string `json:"order_chinese"`
	FamilyChinese string `json:"family_chinese"`
	Confidence    string `json:"confidence"`

	Score            int `json:"score"`
	ScoreSharpness   int `json:"score_sharpness"`
	ScoreComposition int `json:"score_composition"`
	ScoreLighting    int `json:"score_lighting"`
	ScoreBackground  int `json:"score_background"`
	ScorePose        int `json:"score_pose"`
	ScoreArtistry    int `json:"score_artistry"`

	ShootDate       string `json:"shoot_date"`
	OriginalName    string `json:"original_name"`
	Location        string `json:"location"`
	ThumbnailBase64 string `json:"thumbnail_base64,omitempty" gorm:"type:text"`
}

// FromResult projects a result onto a new record owned by nickname.
// thumbnail is a base64 JPEG and may be empty.
func FromResult(r identify.Result, nickname, thumbnail string) Record {
	return Record{
		UserNickname:     nickname,
		ChineseName:      r.ChineseName,
		EnglishName:      r.EnglishName,
		OrderChinese:     r.OrderChinese,
		FamilyChinese:    r.FamilyChinese,
		Confidence:       r.Confidence,
		Score:            r.Score,
		ScoreSharpness:   r.ScoreSharpness,
		ScoreComposition: r.ScoreComposition,
		ScoreLighting:    r.ScoreLighting,
		ScoreBackground:  r.ScoreBackground,
		ScorePose:        r.ScorePose,
		ScoreArtistry:    r.ScoreArtistry,
		ShootDate:        r.ShootDate,
		OriginalName:     r.OriginalName,
		Location:         r.Location,
		ThumbnailBase64:  thumbnail,
	}
}
