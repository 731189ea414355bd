package shellgen

import (
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCatalog() []MenuScript {
	tools := &MenuCategory{ID: "c-tools", Name: "Tools", Order: 0}
	net := &MenuCategory{ID: "c-net", Name: "Network", Order: 1}
	return []MenuScript{
		{ID: "u2", Name: "zeta cleanup"},
		{ID: "n1", Name: "Ping", Category: net},
		{ID: "t2", Name: "defrag", Category: tools},
		{ID: "u1", Name: "Alpha setup", Description: "First run"},
		{ID: "t1", Name: "Backup", Category: tools},
		{ID: "t3", Name: "Cleanup", Category: tools},
	}
}

var mainCaseRE = regexp.MustCompile(`(?m)^ {8}"(\d+)" \{\n {12}(\S+)$`)

func mainMenuCases(t *testing.T, menu string) map[string]string {
	t.Helper()
	start := strings.Index(menu, "function Show-MainMenu {")
	require.NotEqual(t, -1, start)
	cases := make(map[string]string)
	for _, m := range mainCaseRE.FindAllStringSubmatch(menu[start:], -1) {
		cases[m[1]] = m[2]
	}
	return cases
}

func TestMenuNumbering(t *testing.T) {
	menu := SynthesizeMenu(sampleCatalog(), LangEN, testBaseURL)

	assert.Equal(
		t, map[string]string{
			"1": "Execute-UncategorizedScript1",
			"2": "Execute-UncategorizedScript2",
			"3": "Show-Category1",
			"4": "Show-Category2",
		}, mainMenuCases(t, menu),
	)
	assert.Contains(t, menu, `Write-Host "[1] Alpha setup" -ForegroundColor Green`)
	assert.Contains(t, menu, `Write-Host "    First run" -ForegroundColor Gray`)
	assert.Contains(t, menu, `Write-Host "[2] zeta cleanup" -ForegroundColor Green`)
	assert.Contains(t, menu, `Write-Host "[3] Tools (3 scripts)" -ForegroundColor Cyan`)
	assert.Contains(t, menu, `Write-Host "[4] Network (1 script)" -ForegroundColor Cyan`)
}

func TestMenuUncategorizedFunctionsFollowSortedOrder(t *testing.T) {
	menu := SynthesizeMenu(sampleCatalog(), LangEN, testBaseURL)
	fn1 := menu[strings.Index(menu, "function Execute-UncategorizedScript1"):]
	assert.Contains(t, fn1[:strings.Index(fn1, "\n}\n")], testBaseURL+"/api/run/u1")
	fn2 := menu[strings.Index(menu, "function Execute-UncategorizedScript2"):]
	assert.Contains(t, fn2[:strings.Index(fn2, "\n}\n")], testBaseURL+"/api/run/u2")
}

func TestMenuCategorySubmenu(t *testing.T) {
	menu := SynthesizeMenu(sampleCatalog(), LangEN, testBaseURL)
	start := strings.Index(menu, "function Show-Category1 {")
	require.NotEqual(t, -1, start)
	body := menu[start : start+strings.Index(menu[start:], "\n}\n")]

	assert.Contains(t, body, `Write-Host "     Tools" -ForegroundColor Cyan`)
	// scripts sorted case-insensitively within the category
	iBackup := strings.Index(body, `"[1] Backup"`)
	iCleanup := strings.Index(body, `"[2] Cleanup"`)
	iDefrag := strings.Index(body, `"[3] defrag"`)
	assert.True(t, iBackup >= 0 && iBackup < iCleanup && iCleanup < iDefrag)
	assert.Contains(t, body, testBaseURL+"/api/run/t1")
	assert.Contains(t, body, "        \"0\" {\n            Show-MainMenu\n        }")
	assert.Contains(t, body, "Start-Sleep -Seconds 1\n            Show-Category1")
	assert.Contains(t, body, `Write-Host "[0] Back to Categories" -ForegroundColor Yellow`)
}

func TestMenuZeroExits(t *testing.T) {
	menu := SynthesizeMenu(sampleCatalog(), LangEN, testBaseURL)
	assert.Contains(
		t, menu,
		"        \"0\" {\n            Write-Host \"Goodbye!\" -ForegroundColor Yellow\n            return\n        }",
	)
	assert.Contains(t, menu, "Start-Sleep -Seconds 1\n            Show-MainMenu")
	assert.True(t, strings.HasPrefix(menu, "# PowerShell Scripts Manager\n"))
	assert.True(t, strings.HasSuffix(menu, "# Start the menu\nShow-MainMenu\n"))
}

func TestMenuEmptyCatalog(t *testing.T) {
	assert.Equal(t, `Write-Host "No scripts available" -ForegroundColor Yellow`, SynthesizeMenu(nil, LangEN, testBaseURL))
	zh := SynthesizeMenu([]MenuScript{}, LangZH, testBaseURL)
	assert.Equal(t, `Write-Host "没有可用的脚本" -ForegroundColor Yellow`, zh)
	assert.NotContains(t, zh, "function")
}

func TestMenuLocale(t *testing.T) {
	menu := SynthesizeMenu(sampleCatalog(), LangZH, testBaseURL)
	assert.Contains(t, menu, "PowerShell 脚本管理器")
	assert.Contains(t, menu, `Write-Host "[3] Tools (3 个脚本)" -ForegroundColor Cyan`)
	assert.Contains(t, menu, `Read-Host "请选择脚本编号"`)
	assert.Contains(t, menu, `Write-Host "正在执行：Ping..." -ForegroundColor Yellow`)

	unknown := SynthesizeMenu(sampleCatalog(), ParseLang("fr"), testBaseURL)
	if diff := cmp.Diff(SynthesizeMenu(sampleCatalog(), LangEN, testBaseURL), unknown); diff != "" {
		t.Errorf("unknown locale must fall back to en (-want +got):\n%s", diff)
	}
}

func TestLayoutCategoryTieBreak(t *testing.T) {
	catalog := []MenuScript{
		{ID: "1", Name: "one", Category: &MenuCategory{ID: "b", Name: "beta", Order: 5}},
		{ID: "2", Name: "two", Category: &MenuCategory{ID: "a", Name: "Alpha", Order: 5}},
		{ID: "3", Name: "three", Category: &MenuCategory{ID: "z", Name: "first", Order: 1}},
		{ID: "4", Name: "four", Category: &MenuCategory{ID: "d", Name: "alpha", Order: 5}},
	}
	layout := Layout(catalog)
	var got []string
	for _, g := range layout.Groups {
		got = append(got, g.Category.ID)
	}
	// equal order: case-insensitive name, then ID
	assert.Equal(t, []string{"z", "a", "d", "b"}, got)
	assert.Equal(t, 1, layout.CategoryNumber(0))
}

func TestMenuEscapesNames(t *testing.T) {
	menu := SynthesizeMenu([]MenuScript{{ID: "x", Name: `Say "hi" $env:USER`}}, LangEN, testBaseURL)
	assert.Contains(t, menu, "Write-Host \"[1] Say `\"hi`\" `$env:USER\" -ForegroundColor Green")
}

func TestMenuErrorNotice(t *testing.T) {
	assert.Equal(t, `Write-Host "Error loading scripts" -ForegroundColor Red`, MenuErrorNotice(LangEN))
}
