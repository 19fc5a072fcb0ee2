package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"strings"

	proposaldomain "github.com/ngoinfo/copilot/internal/proposal/domain"
)

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

// DOCX renders the proposal as a minimal WordprocessingML package: one
// document part with title, summary and content paragraphs.
func DOCX(p *proposaldomain.Proposal) ([]byte, error) {
	var body strings.Builder
	writeParagraph(&body, p.Title, true)
	if summary := strings.TrimSpace(p.ExecutiveSummary); summary != "" {
		writeParagraph(&body, "Executive Summary", true)
		writeParagraph(&body, summary, false)
	}
	for _, b := range splitBlocks(p.Content) {
		writeParagraph(&body, b.text, b.heading)
	}

	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>` + body.String() + `</w:body>
</w:document>`

	var buf bytes.Buffer
	archive := zip.NewWriter(&buf)
	parts := []struct {
		name string
		data string
	}{
		{"[Content_Types].xml", docxContentTypes},
		{"_rels/.rels", docxRels},
		{"word/document.xml", document},
	}
	for _, part := range parts {
		w, err := archive.Create(part.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(part.data)); err != nil {
			return nil, err
		}
	}
	if err := archive.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeParagraph(b *strings.Builder, content string, bold bool) {
	b.WriteString("<w:p><w:r>")
	if bold {
		b.WriteString("<w:rPr><w:b/></w:rPr>")
	}
	b.WriteString(`<w:t xml:space="preserve">`)
	_ = xml.EscapeText(b, []byte(content))
	b.WriteString("</w:t></w:r></w:p>")
}
