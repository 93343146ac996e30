// Package gen defines the uniform generation contract shared by the
// text, image and video provider services.
package gen

import "time"

// MaxReferenceImages bounds the ordered reference image list of a request.
const MaxReferenceImages = 3

// PlaceholderBackend is the backend name reported when every configured
// backend failed and a synthetic asset was written instead.
const PlaceholderBackend = "placeholder"

// Request represents a single generation request. Immutable once issued.
type Request struct {
	Prompt          string            `json:"prompt"`
	NegativePrompt  string            `json:"negative_prompt,omitempty"`
	OutputPath      string            `json:"output_path"`
	ReferenceImages []string          `json:"reference_images,omitempty"` // ordered, ≤ MaxReferenceImages
	AspectRatio     string            `json:"aspect_ratio,omitempty"`     // 16:9, 9:16, 1:1
	Duration        float64           `json:"duration,omitempty"`         // seconds, video only
	EndFrame        string            `json:"end_frame,omitempty"`        // target last frame, dual-endpoint video only
	Model           string            `json:"model,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// Result is the uniform outcome of a generation call. When Degraded is set the
// asset at AssetPath is a synthetic placeholder and DegradedCause carries the
// error that exhausted the backend chain, for diagnostics only.
type Result struct {
	AssetPath     string    `json:"asset_path"`
	Backend       string    `json:"backend"`
	Model         string    `json:"model"`
	Cost          float64   `json:"cost"`
	FallbackUsed  bool      `json:"fallback_used"`
	Degraded      bool      `json:"degraded"`
	DegradedCause error     `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

// BackendRoute is the outcome of the per-call active backend resolution step.
type BackendRoute int

const (
	RoutePrimary BackendRoute = iota
	RouteFallback
	RoutePlaceholder
)

func (r BackendRoute) String() string {
	switch r {
	case RoutePrimary:
		return "primary"
	case RouteFallback:
		return "fallback"
	default:
		return PlaceholderBackend
	}
}
