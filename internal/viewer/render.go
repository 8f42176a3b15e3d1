package viewer

import (
	"embed"
	"html/template"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"qdadoc/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{"pretext": preText}

var (
	indexTmpl    = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/index.html"))
	documentTmpl = template.Must(template.New("document").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/document.html"))
)

// preText escapes s for the body of a <pre> element so that the parsed text
// node equals s. The parser drops one newline directly after <pre> and turns
// CR and CRLF into LF, so a leading newline is emitted and every CR is written
// as a character reference, which the parser leaves alone.
func preText(s string) template.HTML {
	esc := template.HTMLEscapeString(s)
	return template.HTML("\n" + strings.ReplaceAll(esc, "\r", "&#13;"))
}

// IndexPage is the data behind the upload form and document list.
type IndexPage struct {
	Documents []model.DocumentSummary
	Total     int
	// Prev and Next are offsets of neighbouring pages, nil when there is none.
	Prev, Next *int
}

// RenderIndex writes the document list page.
func RenderIndex(w io.Writer, p IndexPage) error {
	return indexTmpl.ExecuteTemplate(w, "index.html", struct {
		IndexPage
		Title string
	}{p, "Documents"})
}

// RenderDocument writes the viewer page for doc. The text node of the
// preformatted block is exactly doc.Content, so code-point offsets taken in the
// browser address the stored text.
func RenderDocument(w io.Writer, doc *model.Document) error {
	return documentTmpl.ExecuteTemplate(w, "document.html", struct {
		Title     string
		Document  *model.Document
		SizeHuman string
	}{doc.Name, doc, humanize.IBytes(uint64(doc.Size))})
}
