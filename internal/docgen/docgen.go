// Package docgen renders the PDF documents of a candidacy: authorizations,
// invitation letters, minutes, convocations, diplomas and summaries.
package docgen

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"hu-tracker/internal/models"
)

const ContentTypePDF = "application/pdf"

// Template identifies a document layout
type Template string

const (
	InscriptionAuthorization Template = "inscription_authorization"
	DefenseAuthorization     Template = "defense_authorization"
	InvitationLetter         Template = "invitation_letter"
	CommissionMinutes        Template = "commission_minutes"
	Convocation              Template = "convocation"
	Diploma                  Template = "diploma"
	CandidateSummary         Template = "candidate_summary"
	EvaluationReport         Template = "evaluation_report"
)

// Category is the document category recorded for a generated file
func (t Template) Category() models.DocumentCategory {
	switch t {
	case InscriptionAuthorization, DefenseAuthorization:
		return models.CategoryAuthorization
	case InvitationLetter:
		return models.CategoryInvitation
	case CommissionMinutes:
		return models.CategoryPV
	case Convocation:
		return models.CategoryConvocation
	case Diploma:
		return models.CategoryDiploma
	case EvaluationReport:
		return models.CategoryReport
	}
	return models.CategoryOther
}

// Institution is printed in the header of every document
type Institution struct {
	Country    string
	University string
	Faculty    string
	City       string
}

// Artifact is a rendered document
type Artifact struct {
	Template    Template
	Title       string
	Data        []byte
	Filename    string
	ContentType string
}

// Renderer turns entity snapshots into PDF artifacts. It holds no state
// besides the institution and the clock and is safe for concurrent use.
type Renderer struct {
	inst Institution
	now  func() time.Time
}

// NewRenderer creates a renderer for inst
func NewRenderer(inst Institution) *Renderer {
	return &Renderer{inst: inst, now: time.Now}
}

// filename builds e.g. "convocation_12_1718000000000.pdf"
func (r *Renderer) filename(prefix string, ids ...uint) string {
	parts := []string{prefix}
	for _, id := range ids {
		parts = append(parts, fmt.Sprint(id))
	}
	parts = append(parts, fmt.Sprint(r.now().UnixMilli()))
	return strings.Join(parts, "_") + ".pdf"
}

// page wraps an fpdf document. The core fonts only cover cp1252, so every
// string goes through tr first.
type page struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (r *Renderer) newPage(title string) *page {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 15, 20)
	pdf.SetAutoPageBreak(true, 25)
	pdf.AliasNbPages("")
	pdf.SetTitle(title, true)
	pdf.SetAuthor(r.inst.Faculty, true)
	pdf.SetSubject("Habilitation Universitaire", true)
	pdf.SetCreator("HU Tracker", true)
	pdf.SetCreationDate(r.now())

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-18)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(148, 163, 184)
		pdf.CellFormat(0, 4, tr(r.inst.Faculty+" - "+r.inst.City), "", 1, "C", false, 0, "")
		pdf.CellFormat(0, 4, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})
	pdf.AddPage()
	return &page{pdf: pdf, tr: tr}
}

func (p *page) officialHeader(inst Institution) {
	pdf := p.pdf
	w, _ := pdf.GetPageSize()
	pdf.SetFillColor(248, 250, 252)
	pdf.Rect(0, 0, w, 40, "F")

	pdf.SetTextColor(30, 64, 175)
	pdf.SetY(8)
	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(0, 8, p.tr(inst.Country), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 7, p.tr(inst.University), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, p.tr(inst.Faculty), "", 1, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	pdf.SetDrawColor(226, 232, 240)
	pdf.Line(20, 38, w-20, 38)
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetY(48)
}

func (p *page) title(text, subtitle string) {
	p.pdf.SetFont("Helvetica", "B", 18)
	p.pdf.CellFormat(0, 10, p.tr(text), "", 1, "C", false, 0, "")
	if subtitle != "" {
		p.pdf.SetFont("Helvetica", "B", 13)
		p.pdf.CellFormat(0, 8, p.tr(subtitle), "", 1, "C", false, 0, "")
	}
	p.pdf.Ln(8)
}

func (p *page) section(text string) {
	p.pdf.Ln(3)
	p.pdf.SetFont("Helvetica", "BU", 13)
	p.pdf.CellFormat(0, 8, p.tr(text), "", 1, "L", false, 0, "")
	p.pdf.SetFont("Helvetica", "", 11)
}

// text writes a wrapped paragraph
func (p *page) text(s string) {
	p.pdf.SetFont("Helvetica", "", 11)
	p.pdf.MultiCell(0, 6, p.tr(s), "", "L", false)
}

func (p *page) bold(s string) {
	p.pdf.SetFont("Helvetica", "B", 11)
	p.pdf.MultiCell(0, 6, p.tr(s), "", "L", false)
	p.pdf.SetFont("Helvetica", "", 11)
}

func (p *page) centered(s, style string, size float64) {
	p.pdf.SetFont("Helvetica", style, size)
	p.pdf.MultiCell(0, size*0.6, p.tr(s), "", "C", false)
	p.pdf.SetFont("Helvetica", "", 11)
}

func (p *page) right(s string) {
	p.pdf.SetFont("Helvetica", "", 11)
	p.pdf.CellFormat(0, 6, p.tr(s), "", 1, "R", false, 0, "")
}

// field writes "Label: value" with a bold label
func (p *page) field(label, value string) {
	p.pdf.SetFont("Helvetica", "B", 11)
	l := p.tr(label + " : ")
	p.pdf.CellFormat(p.pdf.GetStringWidth(l)+1, 6, l, "", 0, "L", false, 0, "")
	p.pdf.SetFont("Helvetica", "", 11)
	p.pdf.MultiCell(0, 6, p.tr(value), "", "L", false)
}

func (p *page) bullet(s string) {
	p.text("• " + s)
}

func (p *page) ln(h float64) {
	p.pdf.Ln(h)
}

// signatures prints one signature block per label, side by side
func (p *page) signatures(labels ...string) {
	if len(labels) == 0 {
		return
	}
	pdf := p.pdf
	w, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	col := (w - left - right) / float64(len(labels))

	pdf.Ln(10)
	y := pdf.GetY()
	pdf.SetFont("Helvetica", "", 11)
	for i, l := range labels {
		pdf.SetXY(left+float64(i)*col, y)
		pdf.CellFormat(col, 6, p.tr(l), "", 0, "C", false, 0, "")
		pdf.SetXY(left+float64(i)*col, y+20)
		pdf.CellFormat(col, 6, "_____________________", "", 0, "C", false, 0, "")
	}
	pdf.SetXY(left, y+30)
}

func (p *page) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) artifact(t Template, title, filename string, p *page) (*Artifact, error) {
	data, err := p.bytes()
	if err != nil {
		return nil, err
	}
	return &Artifact{
		Template:    t,
		Title:       title,
		Data:        data,
		Filename:    filename,
		ContentType: ContentTypePDF,
	}, nil
}

const notSpecified = "Non spécifié"

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// frDate formats like fr-FR toLocaleDateString: 02/01/2006
func frDate(t *time.Time, def string) string {
	if t == nil || t.IsZero() {
		return def
	}
	return t.Format("02/01/2006")
}

// academicYear returns "2024-2025" style years; a year starts in September
func academicYear(now time.Time) string {
	y := now.Year()
	if now.Month() < time.September {
		y--
	}
	return fmt.Sprintf("%d-%d", y, y+1)
}
