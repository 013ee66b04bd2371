// Package catalog reads catalog exam definitions from YAML files.
package catalog

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/stemsi/examenv-backend/internal/examenv"
	"github.com/stemsi/examenv-backend/internal/model"
	"gopkg.in/yaml.v2"
)

// File is the top-level layout of a catalog file.
type File struct {
	Exams []Exam `yaml:"exams"`
}

// Exam is one catalog exam as written in YAML. The id is kept as text so a
// malformed id is reported with the exam it belongs to.
type Exam struct {
	ID                string `yaml:"id"`
	model.CatalogExam `yaml:",inline"`
}

// Load reads and validates every exam in the file at path.
func Load(path string) ([]model.CatalogExam, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads and validates every exam in r. Exam ids must be unique.
func Decode(r io.Reader) ([]model.CatalogExam, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var file File
	if err := yaml.UnmarshalStrict(raw, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	exams := make([]model.CatalogExam, 0, len(file.Exams))
	seen := make(map[uuid.UUID]struct{}, len(file.Exams))
	for i, doc := range file.Exams {
		id, err := uuid.Parse(doc.ID)
		if err != nil {
			return nil, fmt.Errorf("exam #%d: invalid id %q: %w", i+1, doc.ID, err)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("exam #%d: duplicate id %s", i+1, id)
		}
		seen[id] = struct{}{}

		exam := doc.CatalogExam
		exam.ID = id
		if err := examenv.ValidateCatalogExam(&exam); err != nil {
			return nil, fmt.Errorf("exam %s (%s): %w", id, exam.Config.Name, err)
		}
		exams = append(exams, exam)
	}
	return exams, nil
}
