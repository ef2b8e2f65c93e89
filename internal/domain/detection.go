package domain

import "time"

// Unknown is the identity given to faces that could not be matched to a known person.
const Unknown = "Unknown"

// BoundingBox is an axis-aligned box in coordinates normalized to [0,1] of the image.
type BoundingBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Valid reports whether the box has a positive area.
func (b BoundingBox) Valid() bool {
	return b.X2 > b.X1 && b.Y2 > b.Y1
}

// Detection is a clothing item found by the detection provider.
type Detection struct {
	Class      string      `json:"class"`
	Confidence float64     `json:"confidence"` // 0..1
	BBox       BoundingBox `json:"bbox"`
}

// FaceResult is a face found by the face identification provider.
type FaceResult struct {
	Name       string      `json:"name"`
	Confidence float64     `json:"confidence"` // 0..100
	BBox       BoundingBox `json:"bbox"`
	UserID     string      `json:"user_id,omitempty"`
}

// IsUnknown reports whether the face is not attributed to a known person.
func (f FaceResult) IsUnknown() bool {
	return f.Name == "" || f.Name == Unknown
}

// ComplianceInfo is the compliance classifier verdict for one image.
type ComplianceInfo struct {
	IsCompliant       bool     `json:"is_compliant"`
	NonCompliantItems []string `json:"non_compliant_items"`
}

// ViolationRecord is a persisted violation, mirrored to the history store.
type ViolationRecord struct {
	ID         string       `json:"id"`
	Filename   string       `json:"filename"`
	Filepath   string       `json:"-"`
	Identities []string     `json:"identities"`
	Items      []string     `json:"items"`
	Faces      []FaceResult `json:"faces"`
	LoggedAt   time.Time    `json:"logged_at"`
}
