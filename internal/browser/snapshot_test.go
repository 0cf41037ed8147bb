package browser

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loginPage = `<html>
<head><title>Broker Portal</title><script>var x = 1;</script></head>
<body>
	<nav><a href="/help">Help</a></nav>
	<h1>Producer Login</h1>
	<form>
		<input type="text" id="username" placeholder="User ID">
		<input type="password" name="password">
		<input type="hidden" name="csrf" value="tok">
		<button id="login-btn">Log In</button>
	</form>
	<select name="agency"><option>Main</option></select>
</body>
</html>`

func TestCandidates_LoginPage(t *testing.T) {
	cands, err := Candidates(loginPage)
	require.NoError(t, err)

	selectors := make(map[string]Candidate)
	for _, c := range cands {
		selectors[c.Selector] = c
	}

	assert.Contains(t, selectors, "#username")
	assert.Contains(t, selectors, `input[name="password"]`)
	assert.Contains(t, selectors, "#login-btn")
	assert.Contains(t, selectors, `select[name="agency"]`)
	assert.Contains(t, selectors, `a[href="/help"]`)

	// Hidden inputs are excluded.
	assert.NotContains(t, selectors, `input[name="csrf"]`)

	assert.Equal(t, "Log In", selectors["#login-btn"].Text)
	assert.Equal(t, "User ID", selectors["#username"].Text)
	assert.Equal(t, "password", selectors[`input[name="password"]`].Name)
}

func TestPageText_StripsNoise(t *testing.T) {
	text, err := PageText(loginPage)
	require.NoError(t, err)

	assert.Contains(t, text, "Producer Login")
	assert.NotContains(t, text, "var x = 1")
}

func TestPageText_InvalidHTMLStillParses(t *testing.T) {
	// net/html is lenient; even fragments parse.
	text, err := PageText("<p>hello")
	require.NoError(t, err)
	assert.Contains(t, text, "hello")
}

func TestSelectorFallbackIsPositional(t *testing.T) {
	cands, err := Candidates(`<body><button>A</button><button>B</button></body>`)
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, "button:nth-of-type(1)", cands[0].Selector)
	assert.Equal(t, "button:nth-of-type(2)", cands[1].Selector)
}

func TestTruncateKeepsValidUTF8(t *testing.T) {
	// A long accented label must not be cut mid-rune.
	label := strings.Repeat("é", maxCandidateText+10)
	cands, err := Candidates(`<body><button>` + label + `</button></body>`)
	require.NoError(t, err)
	require.Len(t, cands, 1)

	assert.True(t, utf8.ValidString(cands[0].Text))
	assert.Equal(t, maxCandidateText, len([]rune(cands[0].Text)))

	// Short strings pass through untouched.
	assert.Equal(t, "ok", truncate("ok", maxCandidateText))
}

func TestValidateAgainstSchema(t *testing.T) {
	schema := `{"type":"object","properties":{"date":{"type":"string"}},"required":["date"]}`

	assert.NoError(t, ValidateAgainstSchema(`{"date":"2024-05-01"}`, schema))

	err := ValidateAgainstSchema(`{"wrong":true}`, schema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "date")
}

func TestValidateAgainstSchema_ActionSchema(t *testing.T) {
	assert.NoError(t, ValidateAgainstSchema(`{"selector":"#login-btn","action":"click"}`, ActionSchema))
	assert.NoError(t, ValidateAgainstSchema(`{"selector":"#user","action":"type","value":"jdoe"}`, ActionSchema))
	assert.Error(t, ValidateAgainstSchema(`{"selector":"#x","action":"hover"}`, ActionSchema))
	assert.Error(t, ValidateAgainstSchema(`{"action":"click"}`, ActionSchema))
}

func TestBuildExtractionPrompt_ContainsAllParts(t *testing.T) {
	prompt := BuildExtractionPrompt("list the statements", `{"type":"object"}`, "Statement 2024-05-01")
	assert.Contains(t, prompt, "list the statements")
	assert.Contains(t, prompt, `{"type":"object"}`)
	assert.Contains(t, prompt, "Statement 2024-05-01")
}
