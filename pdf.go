package main

import (
	"fmt"
	"path"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/jung-kurt/gofpdf"
)

const (
	pdfPageWidth  = 210 // A4 width in mm
	pdfMargin     = 10  // Margin in mm
	pdfLineHeight = 5   // Line height in mm
	pdfFontSize   = 9
	pdfTabWidth   = 4 // Number of spaces for a tab
)

// generatePDF renders the aggregated files as a syntax-highlighted PDF, one
// file per page, followed by a summary.
func generatePDF(agg *Aggregate, langData *LoadedLanguageData, outputPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	style := styles.Get("github")
	if style == nil {
		style = styles.Fallback
	}

	for _, e := range agg.Entries {
		pdf.AddPage()

		pdf.SetFont("Helvetica", "B", pdfFontSize+1)
		pdf.SetTextColor(0, 0, 0)
		pdf.MultiCell(pdfPageWidth-2*pdfMargin, pdfLineHeight, tr(markerPrefix+e.RelPath), "", "L", false)
		pdf.Ln(pdfLineHeight / 2)

		pdf.SetFont("Helvetica", "", pdfFontSize-1)
		meta := fmt.Sprintf("%s tokens, %d bytes", tokenCount(e.Tokens, e.TokensOK), e.Bytes)
		pdf.MultiCell(pdfPageWidth-2*pdfMargin, pdfLineHeight, meta, "", "L", false)
		pdf.Line(pdfMargin, pdf.GetY(), pdfPageWidth-pdfMargin, pdf.GetY())
		pdf.Ln(pdfLineHeight / 2)

		if err := writeHighlightedCode(pdf, tr, style, e.Content, e.RelPath, langData); err != nil {
			logger.Warnw("syntax highlighting failed, writing plain text", "path", e.RelPath, "error", err)
			pdf.SetFont("Courier", "", pdfFontSize)
			pdf.SetTextColor(0, 0, 0)
			pdf.MultiCell(pdfPageWidth-2*pdfMargin, pdfLineHeight, tr(e.Content), "", "L", false)
		}
	}

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", pdfFontSize+1)
	pdf.SetTextColor(0, 0, 0)
	pdf.MultiCell(pdfPageWidth-2*pdfMargin, pdfLineHeight, "--- Summary ---", "", "L", false)
	pdf.Ln(pdfLineHeight / 2)
	pdf.SetFont("Helvetica", "", pdfFontSize)
	s := agg.Summary
	summary := fmt.Sprintf("Total files: %d\nTotal size: %d bytes\nTotal tokens: %s",
		s.TotalFiles, s.TotalSize, tokenCount(s.TotalTokens, s.TokensAvailable))
	pdf.MultiCell(pdfPageWidth-2*pdfMargin, pdfLineHeight, summary, "", "L", false)

	if err := pdf.OutputFileAndClose(outputPath); err != nil {
		return fmt.Errorf("failed to save PDF to %s: %w", outputPath, err)
	}
	return nil
}

// pickLexer prefers the language table, then chroma's filename rules, then
// content analysis.
func pickLexer(content, relPath string, langData *LoadedLanguageData) chroma.Lexer {
	var lexer chroma.Lexer
	if name := langData.LexerFor(relPath); name != "" {
		lexer = lexers.Get(name)
	}
	if lexer == nil {
		lexer = lexers.Match(path.Base(relPath))
	}
	if lexer == nil {
		lexer = lexers.Analyse(content)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

// writeHighlightedCode tokenizes content and writes it with per-token styles.
func writeHighlightedCode(pdf *gofpdf.Fpdf, tr func(string) string, style *chroma.Style, content, relPath string, langData *LoadedLanguageData) error {
	iterator, err := pickLexer(content, relPath, langData).Tokenise(nil, content)
	if err != nil {
		return fmt.Errorf("tokenization failed: %w", err)
	}

	pdf.SetFont("Courier", "", pdfFontSize)
	fg := style.Get(chroma.Text).Colour

	for token := iterator(); token != chroma.EOF; token = iterator() {
		entry := style.Get(token.Type)
		styleStr := ""
		if entry.Bold == chroma.Yes {
			styleStr += "B"
		}
		if entry.Italic == chroma.Yes {
			styleStr += "I"
		}
		pdf.SetFontStyle(styleStr)

		switch {
		case entry.Colour.IsSet():
			pdf.SetTextColor(int(entry.Colour.Red()), int(entry.Colour.Green()), int(entry.Colour.Blue()))
		case fg.IsSet():
			pdf.SetTextColor(int(fg.Red()), int(fg.Green()), int(fg.Blue()))
		default:
			pdf.SetTextColor(0, 0, 0)
		}

		value := strings.ReplaceAll(token.Value, "\t", strings.Repeat(" ", pdfTabWidth))
		pdf.Write(pdfLineHeight, tr(value))
	}
	pdf.Ln(-1)
	return nil
}
