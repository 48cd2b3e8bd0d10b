// Package report builds and persists per-run summaries of the mining pipeline.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Failure records a single record that could not be processed
type Failure struct {
	Record string `yaml:"record"`
	Reason string `yaml:"reason"`
}

// Report captures the outcome of one pipeline run
type Report struct {
	RunID               string    `yaml:"runid"`
	CorpusDir           string    `yaml:"corpusdir"`
	Started             time.Time `yaml:"started"`
	Finished            time.Time `yaml:"finished"`
	DownloadedArchives  int       `yaml:"downloadedarchives,omitempty"`
	UnpackedArchives    int       `yaml:"unpackedarchives,omitempty"`
	ViableRecords       int       `yaml:"viablerecords"`
	RemovedRecords      int       `yaml:"removedrecords"`
	RecordsProcessed    int       `yaml:"recordsprocessed"`
	RecordsFailed       int       `yaml:"recordsfailed"`
	Figures             int       `yaml:"figures"`
	Sentences           int       `yaml:"sentences"`
	CorrelatedRows      int       `yaml:"correlatedrows"`
	RemovedFiles        int       `yaml:"removedfiles,omitempty"`
	SurvivingExtensions []string  `yaml:"survivingextensions,omitempty"`
	Failures            []Failure `yaml:"failures,omitempty"`
}

// New creates a report for a run over the given corpus directory
func New(corpusDir string) *Report {
	return &Report{
		RunID:     uuid.New().String(),
		CorpusDir: corpusDir,
		Started:   time.Now(),
	}
}

// AddFailure records a per-record processing error
func (r *Report) AddFailure(record, reason string) {
	r.RecordsFailed++
	r.Failures = append(r.Failures, Failure{Record: record, Reason: reason})
}

// Save stamps the finish time and writes the report as YAML into dir,
// returning the path of the written file
func (r *Report) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	r.Finished = time.Now()

	data, err := yaml.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	timestamp := r.Finished.Format("2006-01-02_15-04-05")
	filename := filepath.Join(dir, fmt.Sprintf("run_report_%s.yaml", timestamp))
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}

	return filename, nil
}
