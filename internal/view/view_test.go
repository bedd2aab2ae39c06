package view

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplates_DefinesPages(t *testing.T) {
	tmpl, err := Templates()
	require.NoError(t, err)

	for _, name := range []string{"header", "footer", "dashboard.html", "section.html", "form.html", "detail.html", "error.html"} {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}
}

func TestTemplates_ErrorPage(t *testing.T) {
	tmpl := MustTemplates()

	var buf bytes.Buffer
	err := tmpl.ExecuteTemplate(&buf, "error.html", map[string]interface{}{
		"Title":   "Not Found",
		"Active":  "",
		"Kinds":   nil,
		"Status":  404,
		"Message": `resource "nurses" not found`,
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "<title>Not Found | Clinic Console</title>")
	assert.Contains(t, out, "resource &#34;nurses&#34; not found")
}
