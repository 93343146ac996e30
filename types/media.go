package types

// MediaKind identifies the asset class a generation produces.
type MediaKind string

const (
	MediaText  MediaKind = "text"
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// AssetStatus tracks the lifecycle of a single shot asset.
type AssetStatus string

const (
	AssetPending AssetStatus = "pending"
	AssetReady   AssetStatus = "ready"
	AssetFailed  AssetStatus = "failed"
)

// Script is the 4-section structured marketing script every text generation
// must produce. All four sections must be non-empty for the script to be valid.
type Script struct {
	Hook     string `json:"hook"`
	Problem  string `json:"problem"`
	Solution string `json:"solution"`
	CTA      string `json:"cta"`
}

// Sections returns the sections in narrative order.
func (s *Script) Sections() []string {
	return []string{s.Hook, s.Problem, s.Solution, s.CTA}
}

// Valid reports whether every section is present and non-empty.
func (s *Script) Valid() bool {
	for _, sec := range s.Sections() {
		if sec == "" {
			return false
		}
	}
	return true
}
