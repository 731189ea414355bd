package shellgen

import (
	"fmt"
	"strings"
)

// ClientKind is the class of an inbound caller
type ClientKind int

// Client kinds
const (
	ClientBrowser ClientKind = iota
	ClientInteractive
)

// String implements the fmt.Stringer interface
func (k ClientKind) String() string {
	if k == ClientInteractive {
		return "interactive-client"
	}
	return "browser"
}

// interactiveSignatures are user agent fragments of command line clients
var interactiveSignatures = []string{
	"PowerShell",
	"curl",
	"Wget",
	"WindowsPowerShell",
}

// Classify returns the ClientKind for a user agent. It only selects the
// content served and is not an access control.
func Classify(userAgent string) ClientKind {
	for _, sig := range interactiveSignatures {
		if strings.Contains(userAgent, sig) {
			return ClientInteractive
		}
	}
	return ClientBrowser
}

// Action is the response chosen by Dispatch: either a redirect target or a
// script body
type Action struct {
	Redirect string
	Script   string
}

// Dispatch decides how to answer a request to the loader root
func Dispatch(userAgent, origin string) Action {
	origin = strings.TrimRight(origin, "/")
	if Classify(userAgent) == ClientBrowser {
		return Action{Redirect: origin + "/login"}
	}
	return Action{Script: LoaderScript(origin)}
}

const loaderTemplate = `# PowerShell Scripts Manager Loader
$culture = (Get-Culture).Name
if ($culture -like "zh*") {
    $lang = "zh"
    Write-Host "%s" -ForegroundColor Cyan
} else {
    $lang = "en"
    Write-Host "%s" -ForegroundColor Cyan
}
irm "%s/s/menu/$lang" | iex
`

// LoaderScript returns the locale sniffing loader served to command line
// clients
func LoaderScript(origin string) string {
	return fmt.Sprintf(
		loaderTemplate,
		psQuote(T(LangZH, MsgLoadingLanguage, "lang", LangZH)),
		psQuote(T(LangEN, MsgLoadingLanguage, "lang", LangEN)),
		psQuote(strings.TrimRight(origin, "/")),
	)
}
