package shellgen

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://scripts.example.com"

func markers() map[string]string {
	return map[string]string{
		StageBypass:    "# Bypass Execution Policy",
		StageElevation: "# Check Admin Rights",
		StageDomain:    `$domain = "`,
		StageHelpers:   "# Helper Functions",
		StagePayload:   "# User Script",
	}
}

func TestSynthesizeStageOrder(t *testing.T) {
	out := Synthesize(
		ScriptSource{
			ID:                    "abc",
			Content:               "Write-Host 'hello'",
			RequireAdmin:          true,
			BypassExecutionPolicy: true,
		}, testBaseURL,
	)
	last := -1
	for _, stage := range ScriptStages() {
		idx := strings.Index(out, markers()[stage.Name])
		require.NotEqual(t, -1, idx, "stage %s missing", stage.Name)
		assert.Greater(t, idx, last, "stage %s out of order", stage.Name)
		last = idx
	}
	assert.True(t, strings.HasSuffix(out, "# User Script\nWrite-Host 'hello'\n"))
}

func TestSynthesizePlainScript(t *testing.T) {
	out := Synthesize(ScriptSource{ID: "abc", Content: "Get-Date"}, testBaseURL)

	assert.NotContains(t, out, "Set-ExecutionPolicy")
	assert.NotContains(t, out, "Administrator")
	assert.NotContains(t, out, "RunAs")

	want := `$domain = "https://scripts.example.com"

` + renderHelpers(ScriptSource{}, "") + `# User Script
Get-Date
`
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("Synthesize() mismatch (-want +got):\n%s", diff)
	}
}

func TestSynthesizeStagesOmitted(t *testing.T) {
	tests := []struct {
		name    string
		script  ScriptSource
		present []string
		absent  []string
	}{
		{
			name:    "bypass only",
			script:  ScriptSource{BypassExecutionPolicy: true},
			present: []string{StageBypass, StageDomain, StageHelpers, StagePayload},
			absent:  []string{StageElevation},
		},
		{
			name:    "admin only",
			script:  ScriptSource{RequireAdmin: true},
			present: []string{StageElevation, StageDomain, StageHelpers, StagePayload},
			absent:  []string{StageBypass},
		},
	}
	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				out := Synthesize(tt.script, testBaseURL)
				for _, s := range tt.present {
					assert.Contains(t, out, markers()[s])
				}
				for _, s := range tt.absent {
					assert.NotContains(t, out, markers()[s])
				}
			},
		)
	}
}

func TestSynthesizeElevationReinvokesSelf(t *testing.T) {
	out := Synthesize(ScriptSource{ID: "s-42", RequireAdmin: true}, testBaseURL+"/")
	assert.Contains(t, out, "Start-Process powershell -Verb RunAs")
	assert.Contains(t, out, `irm https://scripts.example.com/api/run/s-42?elevated=1 | iex`)

	elevation := out[strings.Index(out, "# Check Admin Rights"):strings.Index(out, "$domain")]
	assert.Contains(t, elevation, "return\n}")
	assert.Contains(t, elevation, "Please run your PowerShell as Administrator")
}

func TestSynthesizeDeterministic(t *testing.T) {
	s := ScriptSource{ID: "x", Content: "dir", RequireAdmin: true, BypassExecutionPolicy: true}
	assert.Equal(t, Synthesize(s, testBaseURL), Synthesize(s, testBaseURL))
}

func TestSynthesizeKeepsContentVerbatim(t *testing.T) {
	content := "$x = \"`$notexpanded\"\r\nWrite-Host $x"
	out := Synthesize(ScriptSource{Content: content}, testBaseURL)
	assert.True(t, strings.HasSuffix(out, "# User Script\n"+content+"\n"))
}

func TestDomainIsEscaped(t *testing.T) {
	out := renderDomain(ScriptSource{}, `http://evil"$(calc)`)
	assert.Equal(t, "$domain = \"http://evil`\"`$(calc)\"\n\n", out)
}
