package paper

import "strings"

var unsafeName = strings.NewReplacer(
	"/", "_", `\`, "_", ":", "_", "*", "_", "?", "_",
	`"`, "_", "<", "_", ">", "_", "|", "_",
)

// FileNameForKey maps a document key (usually a DOI) to a flat .txt file name.
func FileNameForKey(key string) string {
	return unsafeName.Replace(key) + ".txt"
}

// KeyFromFileName reverses FileNameForKey for DOIs, whose only unsafe
// character is "/".
func KeyFromFileName(name string) string {
	name = strings.TrimSuffix(name, ".txt")
	return strings.ReplaceAll(name, "_", "/")
}
