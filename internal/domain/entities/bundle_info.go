package entities

// BundleInfo holds metadata read from a bundle's Info.plist
type BundleInfo struct {
	BundleID   string `json:"bundleId,omitempty"`
	Name       string `json:"name,omitempty"`
	Version    string `json:"version,omitempty"`
	Executable string `json:"executable,omitempty"`
	MinimumOS  string `json:"minimumOs,omitempty"`
}
