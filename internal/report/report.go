// Package report assembles and writes the ranked section summary.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dgallion1/docrank/internal/rank"
)

// Metadata describes the run that produced a report.
type Metadata struct {
	InputDocuments      []string `json:"input_documents"`
	Persona             string   `json:"persona"`
	JobToBeDone         string   `json:"job_to_be_done"`
	IntelligentQuery    string   `json:"intelligent_query"`
	ChallengeID         string   `json:"challenge_id,omitempty"`
	TestCaseName        string   `json:"test_case_name,omitempty"`
	ProcessingTimestamp string   `json:"processing_timestamp"`
	ConfigUsed          string   `json:"config_used"`
}

// ExtractedSection is one ranked section.
type ExtractedSection struct {
	Document       string `json:"document"`
	SectionTitle   string `json:"section_title"`
	ImportanceRank int    `json:"importance_rank"`
	PageNumber     int    `json:"page_number"`
}

// Subsection is the excerpt paired with an extracted section.
type Subsection struct {
	Document    string `json:"document"`
	RefinedText string `json:"refined_text"`
	PageNumber  int    `json:"page_number"`
}

// Output is the full report. ExtractedSections and SubsectionAnalysis are
// aligned index for index.
type Output struct {
	Metadata           Metadata           `json:"metadata"`
	ExtractedSections  []ExtractedSection `json:"extracted_sections"`
	SubsectionAnalysis []Subsection       `json:"subsection_analysis"`
}

type reducedSubsection struct {
	Document   string `json:"document"`
	PageNumber int    `json:"page_number"`
}

type reducedOutput struct {
	Metadata           Metadata            `json:"metadata"`
	ExtractedSections  []ExtractedSection  `json:"extracted_sections"`
	SubsectionAnalysis []reducedSubsection `json:"subsection_analysis"`
}

// Timestamp formats the processing time recorded in Metadata.
func Timestamp(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.000000")
}

// Build turns ranked sections into a report, assigning ranks from 1.
// Section titles are expected to be cleaned already.
func Build(meta Metadata, ranked []rank.Scored) *Output {
	out := &Output{
		Metadata:           meta,
		ExtractedSections:  make([]ExtractedSection, 0, len(ranked)),
		SubsectionAnalysis: make([]Subsection, 0, len(ranked)),
	}
	if out.Metadata.InputDocuments == nil {
		out.Metadata.InputDocuments = []string{}
	}
	for i, s := range ranked {
		out.ExtractedSections = append(out.ExtractedSections, ExtractedSection{
			Document:       s.Document,
			SectionTitle:   s.SectionTitle,
			ImportanceRank: i + 1,
			PageNumber:     s.PageNumber,
		})
		out.SubsectionAnalysis = append(out.SubsectionAnalysis, Subsection{
			Document:    s.Document,
			RefinedText: Refine(Clean(s.Text)),
			PageNumber:  s.PageNumber,
		})
	}
	return out
}

func (o *Output) reduced() reducedOutput {
	r := reducedOutput{
		Metadata:           o.Metadata,
		ExtractedSections:  o.ExtractedSections,
		SubsectionAnalysis: make([]reducedSubsection, len(o.SubsectionAnalysis)),
	}
	for i, s := range o.SubsectionAnalysis {
		r.SubsectionAnalysis[i] = reducedSubsection{Document: s.Document, PageNumber: s.PageNumber}
	}
	return r
}

// Encode writes v as indented JSON without HTML escaping.
func Encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

type createFunc func(path string) (io.WriteCloser, error)

func createFile(path string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.Create(path)
}

// Save writes the report to path. If that fails, a reduced report without
// excerpts is written instead; an error is returned only when both fail.
func Save(path string, out *Output, log *slog.Logger) error {
	return save(createFile, path, out, log)
}

func save(create createFunc, path string, out *Output, log *slog.Logger) error {
	err := writeJSON(create, path, out)
	if err == nil {
		return nil
	}
	log.Warn("writing report failed, retrying without excerpts", "path", path, "error", err)

	if rerr := writeJSON(create, path, out.reduced()); rerr != nil {
		return errors.Join(
			fmt.Errorf("write report %s: %w", path, err),
			fmt.Errorf("write reduced report %s: %w", path, rerr),
		)
	}
	log.Warn("reduced report written", "path", path)
	return nil
}

func writeJSON(create createFunc, path string, v any) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
