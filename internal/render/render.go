package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// HTML writes the full page
func HTML(w io.Writer, v View) error {
	if err := pageTemplate.ExecuteTemplate(w, "page.html", v); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

// Text writes a terminal rendering of the same branches as the HTML page
func Text(w io.Writer, v View) error {
	var b strings.Builder

	if v.Loading {
		fmt.Fprintf(&b, "… %s\n", LoadingText)
	}
	if v.Error != "" {
		fmt.Fprintf(&b, "⚠️  %s\n", v.Error)
	}
	if v.Answer != "" {
		fmt.Fprintf(&b, "%s\n\n%s\n", AnswerHeading, v.Answer)
		if len(v.Chips) > 0 {
			fmt.Fprintf(&b, "\n%s\n", SourcesHeading)
			for _, c := range v.Chips {
				fmt.Fprintf(&b, "  [%s]\n", c)
			}
		}
	}
	if v.ShowSamples && v.Answer == "" && !v.Loading {
		fmt.Fprintf(&b, "%s\n", SamplesHeading)
		for i, s := range v.Samples {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, s)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
