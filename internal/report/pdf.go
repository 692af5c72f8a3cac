package report

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"taskboard/internal/category"
	"taskboard/internal/model"
)

// fontFamily is a UTF-8 TrueType family; core PDF fonts cannot draw Cyrillic.
const fontFamily = "DejaVu"

var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	fontRegular []byte
	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	fontBold []byte
	//go:embed fonts/DejaVuSansCondensed-Oblique.ttf
	fontItalic []byte
)

// BuildTaskPDF renders tasks as an A4 checklist. names maps category ids to labels.
func BuildTaskPDF(title string, tasks []model.Task, names map[string]string) ([]byte, error) {
	p := newTaskDocument(title, tasks, names)

	var buf bytes.Buffer
	if err := p.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func newTaskDocument(title string, tasks []model.Task, names map[string]string) *gofpdf.Fpdf {
	p := gofpdf.New("P", "mm", "A4", "")
	p.AddUTF8FontFromBytes(fontFamily, "", fontRegular)
	p.AddUTF8FontFromBytes(fontFamily, "B", fontBold)
	p.AddUTF8FontFromBytes(fontFamily, "I", fontItalic)
	p.AddPage()

	p.SetFont(fontFamily, "B", 16)
	p.Cell(40, 10, title)
	p.Ln(14)

	p.SetFont(fontFamily, "", 12)
	if len(tasks) == 0 {
		p.Cell(40, 8, "Задач нет")
		p.Ln(8)
	}
	for i, t := range tasks {
		head, meta := taskLines(i+1, t, names)
		p.MultiCell(0, 7, head, "", "L", false)
		p.SetFont(fontFamily, "I", 9)
		p.Cell(40, 5, meta)
		p.Ln(8)
		p.SetFont(fontFamily, "", 12)
	}
	return p
}

func taskLines(n int, t model.Task, names map[string]string) (head, meta string) {
	mark := "[ ]"
	if t.Completed {
		mark = "[x]"
	}
	head = fmt.Sprintf("%d. %s %s", n, mark, t.Details)
	meta = fmt.Sprintf("%s | создана %s | изменена %s",
		category.Label(t.CategoryID, names),
		t.Created.Format("02.01.2006 15:04"),
		t.Updated.Format("02.01.2006 15:04"),
	)
	return head, meta
}
