package httpapi

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strings"
)

// TemplateID names an embedded index page.
type TemplateID string

const (
	TemplateEN TemplateID = "index_en.html"
	TemplateZH TemplateID = "index.html"

	defaultTemplate = TemplateEN
)

// localePrefixes lists the Accept-Language prefixes that select a
// non-default page.
var localePrefixes = []struct {
	prefix string
	id     TemplateID
}{
	{"zh", TemplateZH},
}

// SelectTemplate picks the index page for an Accept-Language header. Any
// comma-separated entry starting with a known prefix wins; quality values
// are ignored.
func SelectTemplate(header string) TemplateID {
	for _, part := range strings.Split(header, ",") {
		tag := strings.ToLower(strings.TrimSpace(part))
		for _, lp := range localePrefixes {
			if strings.HasPrefix(tag, lp.prefix) {
				return lp.id
			}
		}
	}
	return defaultTemplate
}

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// pageData is passed to every index template.
type pageData struct {
	MaxUploadMB int64
	Extensions  []string
}

// renderPage executes the page for id, falling back to the default page
// when id is unknown or fails to render.
func renderPage(w http.ResponseWriter, tmpl *template.Template, id TemplateID, data pageData) {
	var buf bytes.Buffer
	if err := executePage(&buf, tmpl, id, data); err != nil {
		logf(LevelError, "render %s: %v", id, err)
		buf.Reset()
		if id == defaultTemplate {
			writeJSONError(w, http.StatusInternalServerError, msgInternal)
			return
		}
		if err := executePage(&buf, tmpl, defaultTemplate, data); err != nil {
			logf(LevelError, "render %s: %v", defaultTemplate, err)
			writeJSONError(w, http.StatusInternalServerError, msgInternal)
			return
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func executePage(buf *bytes.Buffer, tmpl *template.Template, id TemplateID, data pageData) error {
	t := tmpl.Lookup(string(id))
	if t == nil {
		return errUnknownTemplate(id)
	}
	return t.Execute(buf, data)
}

type errUnknownTemplate TemplateID

func (e errUnknownTemplate) Error() string { return "unknown template " + string(e) }
