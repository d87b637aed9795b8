package main

import (
	"path"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

func isHTMLFile(relPath string) bool {
	switch strings.ToLower(path.Ext(relPath)) {
	case ".html", ".htm", ".xhtml":
		return true
	}
	return false
}

// htmlToMarkdown converts an HTML document to Markdown, dropping scripts,
// styles and other non-content elements first.
func htmlToMarkdown(src string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, iframe, svg").Remove()

	converter := md.NewConverter("", true, nil)
	return converter.Convert(doc.Selection), nil
}
