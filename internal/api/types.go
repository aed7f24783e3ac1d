package api

import (
	jsoniter "github.com/json-iterator/go"

	"region-obliterator/internal/opencv/memory"
	"region-obliterator/internal/timing"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ProcessRequest is the body of /api/blur and /api/inpaint. Image and Mask
// carry raw base64 or a data URI.
type ProcessRequest struct {
	Image      string   `json:"image"`
	Mask       string   `json:"mask"`
	KernelSize *float64 `json:"kernel_size,omitempty"`
}

type ProcessResponse struct {
	Success bool   `json:"success"`
	Result  string `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

type HealthResponse struct {
	Status        string                    `json:"status"`
	OpenCVVersion string                    `json:"opencv_version"`
	GoVersion     string                    `json:"go_version"`
	Memory        memory.Stats              `json:"memory"`
	Operations    map[string]timing.Summary `json:"operations"`
}
