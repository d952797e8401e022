package docgen

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Sentence carries the rendered sections plus the case header data used by
// the document template.
type Sentence struct {
	NumeroProcesso string
	Reclamante     string
	Reclamada      string
	Relatorio      string
	Fundamentacao  string
	Dispositivo    string
}

const sentenceTemplate = `# SENTENÇA

**Processo nº {{.NumeroProcesso}}**

**Reclamante:** {{.Reclamante}}
**Reclamada:** {{.Reclamada}}

## I — RELATÓRIO

{{.Relatorio}}

## II — FUNDAMENTAÇÃO

{{.Fundamentacao}}

## III — DISPOSITIVO

{{.Dispositivo}}
`

var sentenceTmpl = template.Must(template.New("sentence").Parse(sentenceTemplate))

// Render assembles the final sentence document as Markdown.
func Render(s Sentence) (string, error) {
	var buf bytes.Buffer
	if err := sentenceTmpl.Execute(&buf, s); err != nil {
		return "", fmt.Errorf("render sentence: %w", err)
	}
	return buf.String(), nil
}

var partyCaser = cases.Title(language.BrazilianPortuguese)

// FormatPartyName normalizes a party name for the document header. Names
// arrive from extraction in inconsistent casing (all caps in petitions,
// lowercase in transcripts).
func FormatPartyName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return name
	}
	return partyCaser.String(strings.ToLower(name))
}
