package report

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
)

const timeLayout = "2006-01-02 15:04:05"

// Markdown renders the document as markdown.
func (d Document) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", d.Title)
	fmt.Fprintf(&b, "- **Generated:** %s\n", d.GeneratedAt.Format(timeLayout))
	fmt.Fprintf(&b, "- **Query:** %s\n", d.Query)
	fmt.Fprintf(&b, "- **Molecule/Therapy Area:** %s\n\n", d.Subject)
	fmt.Fprintf(&b, "## Executive Summary\n\n%s\n", d.ExecutiveSummary)

	for _, sec := range d.Sections {
		fmt.Fprintf(&b, "\n## %s\n\n", sec.Title)
		if sec.Missing {
			b.WriteString(NoData + "\n")
			continue
		}
		if sec.Summary != "" {
			fmt.Fprintf(&b, "**Summary:** %s\n", sec.Summary)
		}
		if len(sec.Fields) > 0 {
			b.WriteString("\n")
		}
		for _, f := range sec.Fields {
			fmt.Fprintf(&b, "- **%s:** %s\n", f.Label, f.Value)
		}
	}
	return b.String()
}

// Text renders the document as plain text.
func (d Document) Text() string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(d.Title) + "\n")
	fmt.Fprintf(&b, "Generated: %s\n", d.GeneratedAt.Format(timeLayout))
	fmt.Fprintf(&b, "Query: %s\n", d.Query)
	fmt.Fprintf(&b, "Molecule/Therapy Area: %s\n\n", d.Subject)
	fmt.Fprintf(&b, "EXECUTIVE SUMMARY\n%s\n", d.ExecutiveSummary)

	for _, sec := range d.Sections {
		fmt.Fprintf(&b, "\n%s\n", strings.ToUpper(sec.Title))
		if sec.Missing {
			b.WriteString(NoData + "\n")
			continue
		}
		if sec.Summary != "" {
			fmt.Fprintf(&b, "Summary: %s\n", sec.Summary)
		}
		for _, f := range sec.Fields {
			fmt.Fprintf(&b, "%s: %s\n", f.Label, f.Value)
		}
	}
	return b.String()
}

// HTML renders the markdown rendering to a standalone HTML page.
func (d Document) HTML() (string, error) {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(d.Markdown()), &body); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s: %s</title>\n", html.EscapeString(d.Title), html.EscapeString(d.Subject))
	b.WriteString("</head>\n<body>\n")
	b.Write(body.Bytes())
	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}

// SheetName is the worksheet the xlsx rendering writes to.
const SheetName = "Report"

// XLSX renders the document as a single-sheet workbook: a header block
// followed by one row per section field.
func (d Document) XLSX() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	rows := [][]any{
		{d.Title},
		{"Generated", d.GeneratedAt.Format(timeLayout)},
		{"Query", d.Query},
		{"Molecule/Therapy Area", d.Subject},
		{"Executive Summary", d.ExecutiveSummary},
		{},
		{"Section", "Field", "Value"},
	}
	headerRow := len(rows)
	for _, sec := range d.Sections {
		if sec.Missing {
			rows = append(rows, []any{sec.Title, "", NoData})
			continue
		}
		rows = append(rows, []any{sec.Title, "Status", string(sec.Status)})
		rows = append(rows, []any{sec.Title, "Summary", sec.Summary})
		for _, fld := range sec.Fields {
			rows = append(rows, []any{sec.Title, fld.Label, fld.Value})
		}
	}

	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetCellValue(SheetName, cell, value); err != nil {
				return nil, fmt.Errorf("write %s: %w", cell, err)
			}
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "A1", bold); err != nil {
		return nil, fmt.Errorf("style title: %w", err)
	}
	hdrStart, _ := excelize.CoordinatesToCellName(1, headerRow)
	hdrEnd, _ := excelize.CoordinatesToCellName(3, headerRow)
	if err := f.SetCellStyle(SheetName, hdrStart, hdrEnd, bold); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}
	if err := f.SetColWidth(SheetName, "A", "B", 28); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(SheetName, "C", "C", 100); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}
