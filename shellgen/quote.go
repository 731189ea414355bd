package shellgen

import "strings"

var psEscaper = strings.NewReplacer(
	"`", "``",
	`"`, "`\"",
	"$", "`$",
	"\r", "",
	"\n", " ",
)

// psQuote escapes s for use inside a double quoted PowerShell string.
// Line breaks are flattened so a value never spans statements.
func psQuote(s string) string {
	return psEscaper.Replace(s)
}
