// Package shellgen renders the PowerShell payloads served to remote
// clients: single script wrappers, the interactive menu and the loader.
package shellgen

import (
	"fmt"
	"strings"
)

// ScriptSource is the part of a script record the synthesizer reads
type ScriptSource struct {
	ID                    string
	Content               string
	RequireAdmin          bool
	BypassExecutionPolicy bool
}

// Stage renders one section of a wrapper script. An empty result omits the
// section.
type Stage struct {
	Name   string
	Render func(script ScriptSource, baseURL string) string
}

// Stage names
const (
	StageBypass    = "bypass"
	StageElevation = "elevation"
	StageDomain    = "domain"
	StageHelpers   = "helpers"
	StagePayload   = "payload"
)

// ScriptStages returns the wrapper stages in emission order
func ScriptStages() []Stage {
	return []Stage{
		{Name: StageBypass, Render: renderBypass},
		{Name: StageElevation, Render: renderElevation},
		{Name: StageDomain, Render: renderDomain},
		{Name: StageHelpers, Render: renderHelpers},
		{Name: StagePayload, Render: renderPayload},
	}
}

// Synthesize renders the wrapper script for script as served from baseURL
func Synthesize(script ScriptSource, baseURL string) string {
	return render(ScriptStages(), script, baseURL)
}

func render(stages []Stage, script ScriptSource, baseURL string) string {
	var b strings.Builder
	for _, s := range stages {
		b.WriteString(s.Render(script, baseURL))
	}
	return b.String()
}

// RunURL returns the delivery URL of a script
func RunURL(baseURL, id string) string {
	return strings.TrimRight(baseURL, "/") + "/api/run/" + id
}

// ElevatedParam is the query parameter the elevation stage adds when it
// fetches the script again in the elevated shell. That fetch is not a new run.
const ElevatedParam = "elevated"

// ElevatedRunURL is RunURL marked as the elevated re-fetch
func ElevatedRunURL(baseURL, id string) string {
	return RunURL(baseURL, id) + "?" + ElevatedParam + "=1"
}

func renderBypass(script ScriptSource, _ string) string {
	if !script.BypassExecutionPolicy {
		return ""
	}
	return `# Bypass Execution Policy
Set-ExecutionPolicy Bypass -Scope Process -Force

`
}

const elevationTemplate = `# Check Admin Rights
if (-NOT ([Security.Principal.WindowsPrincipal][Security.Principal.WindowsIdentity]::GetCurrent()).IsInRole([Security.Principal.WindowsBuiltInRole] "Administrator")) {
    Write-Host "Administrator rights required, restarting elevated..." -ForegroundColor Yellow
    try {
        Start-Process powershell -Verb RunAs -ArgumentList "-NoProfile -ExecutionPolicy Bypass -Command ""irm %s | iex""" -ErrorAction Stop
    } catch {
        Write-Host ""
        Write-Host "========================================" -ForegroundColor Red
        Write-Host "  Administrator Rights Required" -ForegroundColor Red
        Write-Host "========================================" -ForegroundColor Red
        Write-Host ""
        Write-Host "This script requires administrator privileges." -ForegroundColor Yellow
        Write-Host "Please run your PowerShell as Administrator and try again." -ForegroundColor Yellow
        Write-Host ""
    }
    return
}

Write-Host "Running with administrator privileges" -ForegroundColor Green
Write-Host ""

`

func renderElevation(script ScriptSource, baseURL string) string {
	if !script.RequireAdmin {
		return ""
	}
	return fmt.Sprintf(elevationTemplate, psQuote(ElevatedRunURL(baseURL, script.ID)))
}

func renderDomain(_ ScriptSource, baseURL string) string {
	return fmt.Sprintf("$domain = \"%s\"\n\n", psQuote(strings.TrimRight(baseURL, "/")))
}

func renderHelpers(ScriptSource, string) string {
	return `# Helper Functions
function Download-File {
    param(
        [string]$Url,
        [string]$OutputPath
    )
    try {
        Write-Host "Downloading from $Url..." -ForegroundColor Cyan
        Invoke-WebRequest -Uri $Url -OutFile $OutputPath -UseBasicParsing
        Write-Host "Downloaded to $OutputPath" -ForegroundColor Green
    } catch {
        Write-Host "Download failed: $_" -ForegroundColor Red
    }
}

`
}

func renderPayload(script ScriptSource, _ string) string {
	return "# User Script\n" + script.Content + "\n"
}
