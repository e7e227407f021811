package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID     = "build_id"
	KeyStage       = "stage"
	KeyDurationMS  = "duration_ms"
	KeyHTMLFile    = "html_file"
	KeyAssetURL    = "asset_url"
	KeyAssetPath   = "asset_path"
	KeyAssetType   = "asset_type"
	KeyBundlePath  = "bundle_path"
	KeyGroupIndex  = "group_index"
	KeyGroupSize   = "group_size"
	KeyPath        = "path"
	KeyLine        = "line"
	KeyColumn      = "column"
	KeyFileCount   = "files"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func HTMLFile(p string) slog.Attr      { return slog.String(KeyHTMLFile, p) }
func AssetURL(u string) slog.Attr      { return slog.String(KeyAssetURL, u) }
func AssetPath(p string) slog.Attr     { return slog.String(KeyAssetPath, p) }
func AssetType(t string) slog.Attr     { return slog.String(KeyAssetType, t) }
func BundlePath(p string) slog.Attr    { return slog.String(KeyBundlePath, p) }
func GroupIndex(i int) slog.Attr       { return slog.Int(KeyGroupIndex, i) }
func GroupSize(n int) slog.Attr        { return slog.Int(KeyGroupSize, n) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Line(n int) slog.Attr             { return slog.Int(KeyLine, n) }
func Column(n int) slog.Attr           { return slog.Int(KeyColumn, n) }
func FileCount(n int) slog.Attr        { return slog.Int(KeyFileCount, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
