package debugfmt

// Registry maps a debug format's command-line name to its Formatter and
// the file extension it writes.
var Registry = map[string]struct {
	Formatter Formatter
	Extension string
}{
	"mlb":   {MlbFormat{}, ".mlb"},
	"rgbds": {RgbdsFormat{}, ".sym"},
	"wla":   {WlaFormat{}, ".sym"},
}

// Lookup returns the formatter and extension registered under name.
func Lookup(name string) (Formatter, string, bool) {
	entry, ok := Registry[name]
	return entry.Formatter, entry.Extension, ok
}
