package manifest

// Manifest is the parsed manifest.json of an extension package or theme.
type Manifest struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Version       string `json:"version"`
	MinAppVersion string `json:"minAppVersion,omitempty"`
	Description   string `json:"description,omitempty"`
	Author        string `json:"author,omitempty"`
	AuthorURL     string `json:"authorUrl,omitempty"`
	IsDesktopOnly bool   `json:"isDesktopOnly,omitempty"`
}

// Reasons a package fails validation.
const (
	ReasonMalformed       = "malformed-manifest"
	ReasonMissingField    = "missing-field"
	ReasonCollision       = "identifier-collision"
	ReasonMissingRequired = "missing-required-asset"
)
