package rekognition

// Config holds configuration for AWS Rekognition provider
type Config struct {
	// Region is the AWS region where Rekognition service will be used (e.g., "us-east-1")
	Region string

	// CollectionID is the face collection searched when identifying people
	CollectionID string

	// MinLabelConfidence drops labels below this score (0-100)
	MinLabelConfidence float32

	// FaceMatchThreshold is the minimum similarity for a match (0-100)
	FaceMatchThreshold float32

	// MaxLabels caps the labels returned per image
	MaxLabels int32
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		Region:             "us-east-1",
		CollectionID:       "dressguard-faces",
		MinLabelConfidence: 50,
		FaceMatchThreshold: 80,
		MaxLabels:          50,
	}
}
