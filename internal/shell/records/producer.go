package records

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileProducer serves verification content from a build output
// directory, where the compiler drops one standard-json-input document
// per artifact name. It implements the orchestrator's
// VerificationProducer port.
type FileProducer struct {
	buildDir string
}

// NewFileProducer creates a producer reading from buildDir.
func NewFileProducer(buildDir string) *FileProducer {
	return &FileProducer{buildDir: buildDir}
}

// Generate returns the canonical verification document for an artifact
// name, freshly produced by the current build.
func (p *FileProducer) Generate(_ context.Context, name string) ([]byte, error) {
	path := filepath.Join(p.buildDir, name+".json")
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read build verification input for %s: %w", name, err)
	}
	return content, nil
}
