package inference

// DetectRequest for POST /detect
type DetectRequest struct {
	Image      string  `json:"image"`      // base64 encoded image
	Confidence float64 `json:"confidence"` // detector threshold, 0..1
}

// DetectResponse from POST /detect
type DetectResponse struct {
	Detections []DetectionResult `json:"detections"`
	Width      int               `json:"width"`
	Height     int               `json:"height"`
}

// DetectionResult carries a box as [x1, y1, x2, y2] in pixels
type DetectionResult struct {
	Class      string     `json:"class"`
	Confidence float64    `json:"confidence"`
	BBox       [4]float64 `json:"bbox"`
}

// IdentifyRequest for POST /identify
type IdentifyRequest struct {
	Image string `json:"image"`
}

// IdentifyResponse from POST /identify
type IdentifyResponse struct {
	Faces  []FaceMatch `json:"faces"`
	Width  int         `json:"width"`
	Height int         `json:"height"`
}

// FaceMatch is one face; Confidence is 0..100
type FaceMatch struct {
	Name       string   `json:"name"`
	Confidence float64  `json:"confidence"`
	Box        FaceArea `json:"bbox"`
	UserID     *string  `json:"user_id"`
}

// FaceArea is a face location in pixels
type FaceArea struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// HealthResponse from GET /health
type HealthResponse struct {
	Status string `json:"status"`
}
