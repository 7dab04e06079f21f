package orchestration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// FileSource reads the deployment state from a file on every query, so
// edits by the orchestrator are visible without a restart.
type FileSource struct {
	path string
}

// NewFileSource creates a source for path. The format follows the
// extension: .yaml/.yml, .toml or .json.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// CurrentState reads and parses the file.
func (f *FileSource) CurrentState(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	state, err := decodeState(filepath.Ext(f.path), data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, f.path, err)
	}
	return state, nil
}

func decodeState(ext string, data []byte) (State, error) {
	state := State{}
	var err error
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &state)
	case ".toml":
		err = toml.Unmarshal(data, &state)
	case ".json":
		err = sonic.Unmarshal(data, &state)
	default:
		return nil, fmt.Errorf("unsupported state file format %q", ext)
	}
	if err != nil {
		return nil, err
	}
	return state, nil
}
