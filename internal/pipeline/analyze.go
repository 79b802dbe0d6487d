package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/docrank/internal/challenge"
	"github.com/dgallion1/docrank/internal/outline"
	"github.com/dgallion1/docrank/internal/parser"
	"github.com/dgallion1/docrank/internal/rank"
	"github.com/dgallion1/docrank/internal/relevance"
	"github.com/dgallion1/docrank/internal/report"
)

// Source opens the documents a challenge names.
type Source interface {
	Open(name string) (io.ReadCloser, error)
}

// DirSource reads documents from a directory.
type DirSource string

func (d DirSource) Open(name string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(string(d), filepath.Base(name)))
}

// MemSource serves uploaded documents held in memory, keyed by DocumentKey.
type MemSource map[string][]byte

func (m MemSource) Open(name string) (io.ReadCloser, error) {
	data, ok := m[DocumentKey(name)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, os.ErrNotExist)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// DocumentKey is the name an uploaded document is stored under: its base
// name with path separators and ".." replaced. Challenge names and upload
// names go through it so they meet on the same key.
func DocumentKey(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}

// Observer is told about progress during an analysis. Job implements it for
// the server; the CLI drives its progress bar with it.
type Observer interface {
	DocumentParsed(name string, sections int)
	Ranking(candidates int)
}

type nopObserver struct{}

func (nopObserver) DocumentParsed(string, int) {}
func (nopObserver) Ranking(int)                {}

// Analyzer runs one challenge end to end: parse every document, filter and
// rank the sections, and build the report.
type Analyzer struct {
	ranker *rank.Ranker
	tables *relevance.Tables
	opts   parser.Options
	log    *slog.Logger
	now    func() time.Time
}

func NewAnalyzer(ranker *rank.Ranker, tables *relevance.Tables, opts parser.Options, log *slog.Logger) *Analyzer {
	if log == nil {
		log = slog.Default()
	}
	return &Analyzer{ranker: ranker, tables: tables, opts: opts, log: log, now: time.Now}
}

// Analyze ranks the sections of every document in the challenge. Documents
// that cannot be opened or parsed contribute no sections; only a ranking
// failure is returned as an error.
func (a *Analyzer) Analyze(ctx context.Context, in *challenge.Input, src Source, obs Observer) (*report.Output, error) {
	if obs == nil {
		obs = nopObserver{}
	}

	var candidates []rank.Candidate
	for _, name := range in.Filenames() {
		doc := a.extract(src, name)
		obs.DocumentParsed(name, len(doc.Sections))
		candidates = append(candidates, Candidates(name, doc)...)
	}
	a.log.Info("documents parsed", "documents", len(in.Documents), "sections", len(candidates))

	query := a.tables.BuildQuery(in.Persona.Role, in.Job.Task)
	selected, _ := a.ranker.Select(candidates, in.Job.Task)
	obs.Ranking(len(selected))

	ranked, err := a.ranker.Rank(ctx, query, selected)
	if err != nil {
		return nil, fmt.Errorf("rank sections: %w", err)
	}

	return report.Build(report.Metadata{
		InputDocuments:      in.Filenames(),
		Persona:             in.Persona.Role,
		JobToBeDone:         in.Job.Task,
		IntelligentQuery:    query,
		ChallengeID:         in.Info.ChallengeID,
		TestCaseName:        in.Info.TestCaseName,
		ProcessingTimestamp: report.Timestamp(a.now()),
		ConfigUsed:          a.tables.Source,
	}, ranked), nil
}

func (a *Analyzer) extract(src Source, name string) *outline.Document {
	rc, err := src.Open(name)
	if err != nil {
		a.log.Warn("document unavailable", "document", name, "error", err)
		return outline.Unknown()
	}
	defer rc.Close()
	return parser.ExtractReader(rc, name, a.opts, a.log)
}

// Candidates converts a document's sections into ranking candidates with
// sanitized titles and text.
func Candidates(document string, doc *outline.Document) []rank.Candidate {
	out := make([]rank.Candidate, 0, len(doc.Sections))
	for _, s := range doc.Sections {
		out = append(out, rank.Candidate{
			Document:     document,
			SectionTitle: report.Clean(s.Title),
			Text:         report.Clean(s.Content),
			PageNumber:   s.Page,
		})
	}
	return out
}
