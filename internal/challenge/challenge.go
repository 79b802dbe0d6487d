// Package challenge reads the batch request describing which documents to
// rank and for whom.
package challenge

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	UnknownPersona = "Unknown Persona"
	UnknownTask    = "Unknown Task"
)

// Info identifies the challenge.
type Info struct {
	ChallengeID  string `json:"challenge_id"`
	TestCaseName string `json:"test_case_name"`
	Description  string `json:"description,omitempty"`
}

// DocumentRef names one input document.
type DocumentRef struct {
	Filename string `json:"filename"`
	Title    string `json:"title"`
}

type Persona struct {
	Role string `json:"role"`
}

type Job struct {
	Task string `json:"task"`
}

// Input is a challenge request.
type Input struct {
	Info      Info          `json:"challenge_info"`
	Documents []DocumentRef `json:"documents"`
	Persona   Persona       `json:"persona"`
	Job       Job           `json:"job_to_be_done"`
}

// Load reads a challenge file.
func Load(path string) (*Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open challenge: %w", err)
	}
	defer f.Close()
	in, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return in, nil
}

// Decode parses a challenge and fills in placeholder persona and task.
func Decode(r io.Reader) (*Input, error) {
	var in Input
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("decode challenge: %w", err)
	}
	if strings.TrimSpace(in.Persona.Role) == "" {
		in.Persona.Role = UnknownPersona
	}
	if strings.TrimSpace(in.Job.Task) == "" {
		in.Job.Task = UnknownTask
	}
	for i, d := range in.Documents {
		if strings.TrimSpace(d.Filename) == "" {
			return nil, fmt.Errorf("decode challenge: document %d has no filename", i)
		}
	}
	return &in, nil
}

// Filenames lists the document filenames in request order.
func (in *Input) Filenames() []string {
	out := make([]string, len(in.Documents))
	for i, d := range in.Documents {
		out[i] = d.Filename
	}
	return out
}

// ErrNoDocuments is returned by Validate for a challenge without documents.
var ErrNoDocuments = errors.New("challenge lists no documents")

// Validate reports structural problems that make a run pointless.
func (in *Input) Validate() error {
	if len(in.Documents) == 0 {
		return ErrNoDocuments
	}
	return nil
}
