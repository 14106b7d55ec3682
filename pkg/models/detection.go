package models

// Attribute is one classifier output: a label with its confidence.
type Attribute struct {
	Label      string  `json:"label"`
	Confidence float32 `json:"confidence"`
}

// Detection is one garment found by the vision pipeline within a submitted
// image. It is consumed during the per-item save loop and never stored as-is;
// the crop bytes and attributes end up in storage and a WardrobeItem row.
type Detection struct {
	SegmentLabel      string      `json:"segment_label"`
	SegmentConfidence float32     `json:"segment_confidence"`
	Category          Attribute   `json:"category"`
	TopCategories     []Attribute `json:"top_categories"`
	Style             Attribute   `json:"style"`
	Color             Attribute   `json:"color"`
	Pattern           Attribute   `json:"pattern"`
	Material          Attribute   `json:"material"`
	Season            Attribute   `json:"season"`
	Tags              []string    `json:"tags"`
	Embedding         []float32   `json:"embedding"`

	// CroppedImageBase64 is the isolated garment PNG produced by the
	// pipeline's segmentation stage, still in transport encoding.
	CroppedImageBase64 string `json:"cropped_image_base64"`
}
