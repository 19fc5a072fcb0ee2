// Package render turns proposals into downloadable document bytes.
package render

import (
	"strings"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	proposaldomain "github.com/ngoinfo/copilot/internal/proposal/domain"
)

// PDF renders the proposal as a paginated document.
func PDF(p *proposaldomain.Proposal) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(14,
		text.NewCol(12, p.Title, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(14,
		col.New(12).Add(
			text.New("Status: "+p.Status, props.Text{Size: 9, Top: 0}),
			text.New("Generated: "+p.GenerationTimestamp.UTC().Format(time.RFC3339), props.Text{Size: 9, Top: 4}),
			text.New("Model: "+p.AIModelUsed, props.Text{Size: 9, Top: 8}),
		),
	)

	if summary := strings.TrimSpace(p.ExecutiveSummary); summary != "" {
		m.AddRow(8,
			text.NewCol(12, "Executive Summary", props.Text{
				Size:  12,
				Style: fontstyle.Bold,
			}),
		)
		m.AddRow(blockHeight(summary),
			text.NewCol(12, summary, props.Text{Size: 10}),
		)
	}

	for _, block := range splitBlocks(p.Content) {
		if block.heading {
			m.AddRow(8,
				text.NewCol(12, block.text, props.Text{
					Size:  12,
					Style: fontstyle.Bold,
				}),
			)
			continue
		}
		m.AddRow(blockHeight(block.text),
			text.NewCol(12, block.text, props.Text{Size: 10}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

// blockHeight estimates the row height for a wrapped paragraph.
func blockHeight(paragraph string) float64 {
	lines := len(paragraph)/90 + 1
	return float64(lines*5 + 3)
}

type block struct {
	text    string
	heading bool
}

// splitBlocks breaks markdown-ish content into headings and paragraphs.
// Heading markers are stripped; blank lines separate paragraphs.
func splitBlocks(content string) []block {
	var blocks []block
	var paragraph []string

	flush := func() {
		if len(paragraph) > 0 {
			blocks = append(blocks, block{text: strings.Join(paragraph, " ")})
			paragraph = nil
		}
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "#"):
			flush()
			blocks = append(blocks, block{
				text:    strings.TrimSpace(strings.TrimLeft(line, "#")),
				heading: true,
			})
		default:
			paragraph = append(paragraph, line)
		}
	}
	flush()

	return blocks
}
