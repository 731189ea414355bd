package shellgen

import (
	"fmt"
	"sort"
	"strings"
)

// MenuCategory is the category of a menu entry
type MenuCategory struct {
	ID    string
	Name  string
	Order int
}

// MenuScript is a catalog entry of the menu
type MenuScript struct {
	ID          string
	Name        string
	Description string
	// Category is nil for uncategorized scripts
	Category *MenuCategory
}

// MenuGroup is a category together with its sorted scripts
type MenuGroup struct {
	Category MenuCategory
	Scripts  []MenuScript
}

// MenuLayout is the numbered structure of a menu
type MenuLayout struct {
	// Uncategorized holds the scripts numbered 1..len(Uncategorized)
	Uncategorized []MenuScript
	// Groups holds the categories numbered after the uncategorized scripts
	Groups []MenuGroup
}

// CategoryNumber returns the main menu number of the i-th group
func (l MenuLayout) CategoryNumber(i int) int {
	return len(l.Uncategorized) + i + 1
}

// Empty reports whether the layout has no entries
func (l MenuLayout) Empty() bool {
	return len(l.Uncategorized) == 0 && len(l.Groups) == 0
}

// Layout partitions and orders a catalog.
// Categories are ordered by Order, then case-insensitive name, then ID.
// Scripts are ordered by case-insensitive name, then ID.
func Layout(catalog []MenuScript) MenuLayout {
	var layout MenuLayout
	groups := make(map[string]*MenuGroup)
	for _, s := range catalog {
		if s.Category == nil {
			layout.Uncategorized = append(layout.Uncategorized, s)
			continue
		}
		g, ok := groups[s.Category.ID]
		if !ok {
			g = &MenuGroup{Category: *s.Category}
			groups[s.Category.ID] = g
		}
		g.Scripts = append(g.Scripts, s)
	}
	sortScripts(layout.Uncategorized)
	for _, g := range groups {
		sortScripts(g.Scripts)
		layout.Groups = append(layout.Groups, *g)
	}
	sort.SliceStable(
		layout.Groups, func(i, j int) bool {
			return categoryLess(layout.Groups[i].Category, layout.Groups[j].Category)
		},
	)
	return layout
}

func categoryLess(a, b MenuCategory) bool {
	if a.Order != b.Order {
		return a.Order < b.Order
	}
	if an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name); an != bn {
		return an < bn
	}
	return a.ID < b.ID
}

func sortScripts(scripts []MenuScript) {
	sort.SliceStable(
		scripts, func(i, j int) bool {
			an, bn := strings.ToLower(scripts[i].Name), strings.ToLower(scripts[j].Name)
			if an != bn {
				return an < bn
			}
			return scripts[i].ID < scripts[j].ID
		},
	)
}

// NoScriptsNotice is the complete menu served for an empty catalog
func NoScriptsNotice(lang Lang) string {
	return fmt.Sprintf("Write-Host \"%s\" -ForegroundColor Yellow", psQuote(T(lang, MsgNoScriptsAvailable)))
}

// MenuErrorNotice is served instead of a menu when the catalog cannot be
// loaded. It is a valid script printing the error.
func MenuErrorNotice(lang Lang) string {
	return fmt.Sprintf("Write-Host \"%s\" -ForegroundColor Red", psQuote(T(lang, MsgErrorLoading)))
}

// SynthesizeMenu renders the interactive menu script for catalog
func SynthesizeMenu(catalog []MenuScript, lang Lang, baseURL string) string {
	layout := Layout(catalog)
	if layout.Empty() {
		return NoScriptsNotice(lang)
	}
	m := menuWriter{lang: lang, baseURL: baseURL}
	m.line(0, "# %s", T(LangEN, MsgScriptsManager))
	for i, s := range layout.Uncategorized {
		m.uncategorizedFunction(i+1, s)
	}
	for i, g := range layout.Groups {
		m.categoryFunction(i+1, g)
	}
	m.mainMenu(layout)
	m.blank()
	m.line(0, "# Start the menu")
	m.line(0, "Show-MainMenu")
	return m.String()
}

type menuWriter struct {
	strings.Builder
	lang    Lang
	baseURL string
}

func (m *menuWriter) line(indent int, format string, args ...any) {
	m.WriteString(strings.Repeat("    ", indent))
	fmt.Fprintf(m, format, args...)
	m.WriteByte('\n')
}

func (m *menuWriter) blank() {
	m.WriteByte('\n')
}

func (m *menuWriter) host(indent int, text, color string) {
	if color == "" {
		m.line(indent, `Write-Host "%s"`, psQuote(text))
		return
	}
	m.line(indent, `Write-Host "%s" -ForegroundColor %s`, psQuote(text), color)
}

func (m *menuWriter) header(title string) {
	const rule = "========================================"
	m.line(1, "Clear-Host")
	m.host(1, rule, "Cyan")
	m.host(1, "     "+title, "Cyan")
	m.host(1, rule, "Cyan")
	m.host(1, "", "")
	m.blank()
}

func (m *menuWriter) entry(indent, number int, s MenuScript) {
	m.host(indent, fmt.Sprintf("[%d] %s", number, s.Name), "Green")
	if s.Description != "" {
		m.host(indent, "    "+s.Description, "Gray")
	}
}

// execute writes the fetch, run and pause sequence for s followed by a call
// to returnTo
func (m *menuWriter) execute(indent int, s MenuScript, returnTo string) {
	m.host(indent, "", "")
	m.host(indent, T(m.lang, MsgExecuting, "name", s.Name), "Yellow")
	m.host(indent, "", "")
	m.line(indent, "try {")
	m.line(indent+1, `$scriptContent = Invoke-RestMethod -Uri "%s"`, psQuote(RunURL(m.baseURL, s.ID)))
	m.line(indent+1, "Invoke-Expression $scriptContent")
	m.line(indent, "} catch {")
	m.line(indent+1, `Write-Host "%s$_" -ForegroundColor Red`, psQuote(T(m.lang, MsgErrorExecuting, "error", "")))
	m.line(indent, "}")
	m.host(indent, "", "")
	m.host(indent, T(m.lang, MsgPressAnyKey), "")
	m.line(indent, `$null = $Host.UI.RawUI.ReadKey("NoEcho,IncludeKeyDown")`)
	m.line(indent, "%s", returnTo)
}

func (m *menuWriter) invalid(indent int, again string) {
	m.line(indent, "default {")
	m.host(indent+1, T(m.lang, MsgInvalidSelection), "Red")
	m.line(indent+1, "Start-Sleep -Seconds 1")
	m.line(indent+1, "%s", again)
	m.line(indent, "}")
}

func (m *menuWriter) uncategorizedFunction(n int, s MenuScript) {
	m.blank()
	m.line(0, "function Execute-UncategorizedScript%d {", n)
	m.execute(1, s, "Show-MainMenu")
	m.line(0, "}")
}

func (m *menuWriter) categoryFunction(n int, g MenuGroup) {
	self := fmt.Sprintf("Show-Category%d", n)
	m.blank()
	m.line(0, "function %s {", self)
	m.header(g.Category.Name)
	for i, s := range g.Scripts {
		m.entry(1, i+1, s)
	}
	m.host(1, "", "")
	m.host(1, "[0] "+T(m.lang, MsgBackToCategories), "Yellow")
	m.host(1, "", "")
	m.blank()
	m.line(1, `$choice = Read-Host "%s"`, psQuote(T(m.lang, MsgSelectScript)))
	m.blank()
	m.line(1, "switch ($choice) {")
	for i, s := range g.Scripts {
		m.line(2, `"%d" {`, i+1)
		m.execute(3, s, self)
		m.line(2, "}")
	}
	m.line(2, `"0" {`)
	m.line(3, "Show-MainMenu")
	m.line(2, "}")
	m.invalid(2, self)
	m.line(1, "}")
	m.line(0, "}")
}

func (m *menuWriter) mainMenu(layout MenuLayout) {
	m.blank()
	m.line(0, "function Show-MainMenu {")
	m.header(T(m.lang, MsgScriptsManager))
	for i, s := range layout.Uncategorized {
		m.entry(1, i+1, s)
	}
	if len(layout.Uncategorized) > 0 && len(layout.Groups) > 0 {
		m.host(1, "", "")
	}
	for i, g := range layout.Groups {
		count := len(g.Scripts)
		countText := T(m.lang, MsgScriptsCountPlural, "count", count)
		if count == 1 {
			countText = T(m.lang, MsgScriptsCount, "count", count)
		}
		m.host(1, fmt.Sprintf("[%d] %s (%s)", layout.CategoryNumber(i), g.Category.Name, countText), "Cyan")
	}
	m.host(1, "", "")
	m.host(1, "[0] "+T(m.lang, MsgExit), "Red")
	m.host(1, "", "")
	m.blank()
	m.line(1, `$choice = Read-Host "%s"`, psQuote(T(m.lang, MsgSelectScript)))
	m.blank()
	m.line(1, "switch ($choice) {")
	for i := range layout.Uncategorized {
		m.line(2, `"%d" {`, i+1)
		m.line(3, "Execute-UncategorizedScript%d", i+1)
		m.line(2, "}")
	}
	for i := range layout.Groups {
		m.line(2, `"%d" {`, layout.CategoryNumber(i))
		m.line(3, "Show-Category%d", i+1)
		m.line(2, "}")
	}
	m.line(2, `"0" {`)
	m.host(3, T(m.lang, MsgGoodbye), "Yellow")
	m.line(3, "return")
	m.line(2, "}")
	m.invalid(2, "Show-MainMenu")
	m.line(1, "}")
	m.line(0, "}")
}
