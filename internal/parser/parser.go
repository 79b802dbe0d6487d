// Package parser decodes input files into document outlines.
package parser

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docrank/internal/outline"
)

// Parser converts raw document bytes into an outline.
type Parser interface {
	Parse(r io.Reader, filename string) (*outline.Document, error)
}

// Options tune format-specific behaviour.
type Options struct {
	// FallbackPdftotext shells out to pdftotext when the Go PDF decoder fails.
	FallbackPdftotext bool
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.FallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Parse picks a parser by filename and runs it. Panics raised inside
// third-party decoders are returned as errors.
func Parse(r io.Reader, filename string, opts Options) (doc *outline.Document, err error) {
	p, err := ForFile(filename, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rec := recover(); rec != nil {
			doc, err = nil, fmt.Errorf("decode %s: panic: %v", filename, rec)
		}
	}()
	return p.Parse(r, filename)
}

// ExtractFile parses the file at path and never fails: an unreadable or
// undecodable file is logged and reported with UnknownTitle and no sections.
func ExtractFile(path string, opts Options, log *slog.Logger) *outline.Document {
	name := filepath.Base(path)
	f, err := os.Open(path)
	if err != nil {
		log.Warn("open document failed", "document", name, "error", err)
		return outline.Unknown()
	}
	defer f.Close()

	return ExtractReader(f, name, opts, log)
}

// ExtractReader is ExtractFile for an already open document.
func ExtractReader(r io.Reader, filename string, opts Options, log *slog.Logger) *outline.Document {
	doc, err := Parse(r, filename, opts)
	if err != nil {
		log.Warn("parse document failed", "document", filename, "error", err)
		return outline.Unknown()
	}
	return doc
}

func stem(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
