package models

import (
	"time"

	"github.com/google/uuid"
)

// WardrobeItem is one garment persisted from a processed photo. A row exists
// iff both the crop upload and the insert succeeded; the item id doubles as
// the storage key suffix, so no two rows ever reference the same blob.
type WardrobeItem struct {
	ID      uuid.UUID `db:"id"       json:"id"`
	OwnerID uuid.UUID `db:"owner_id" json:"owner_id"`
	JobID   uuid.UUID `db:"job_id"   json:"job_id"`
	Name    string    `db:"name"     json:"name"`

	Category          string  `db:"category"           json:"category"`
	SegmentLabel      string  `db:"segment_label"      json:"segment_label"`
	SegmentConfidence float32 `db:"segment_confidence" json:"segment_confidence"`

	AICategory           string  `db:"ai_category"            json:"ai_category"`
	AICategoryConfidence float32 `db:"ai_category_confidence" json:"ai_category_confidence"`
	AIStyle              string  `db:"ai_style"               json:"ai_style"`
	AIStyleConfidence    float32 `db:"ai_style_confidence"    json:"ai_style_confidence"`
	AIColor              string  `db:"ai_color"               json:"ai_color"`
	AIColorConfidence    float32 `db:"ai_color_confidence"    json:"ai_color_confidence"`
	AIPattern            string  `db:"ai_pattern"             json:"ai_pattern"`
	AIPatternConfidence  float32 `db:"ai_pattern_confidence"  json:"ai_pattern_confidence"`
	AIMaterial           string  `db:"ai_material"            json:"ai_material"`
	AIMaterialConfidence float32 `db:"ai_material_confidence" json:"ai_material_confidence"`
	AISeason             string  `db:"ai_season"              json:"ai_season"`
	AISeasonConfidence   float32 `db:"ai_season_confidence"   json:"ai_season_confidence"`

	Tags            []string  `db:"tags"              json:"tags"`
	ImageURL        string    `db:"image_url"         json:"image_url"`
	CroppedImageURL string    `db:"cropped_image_url" json:"cropped_image_url"`
	Embedding       []float32 `db:"embedding"         json:"-"`
	AIProcessedAt   time.Time `db:"ai_processed_at"   json:"ai_processed_at"`
	CreatedAt       time.Time `db:"created_at"        json:"created_at"`
}
