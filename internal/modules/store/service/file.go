package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"pump_bot/internal/models"
)

type format int

const (
	formatJSON format = iota
	formatYAML
)

// File хранит снапшот одним файлом. Формат по расширению: .yaml/.yml — YAML, иначе JSON.
type File struct {
	path   string
	format format

	mu sync.Mutex
}

func NewFile(path string) *File {
	f := &File{path: path, format: formatJSON}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f.format = formatYAML
	}
	return f
}

func (f *File) Load(_ context.Context) (models.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.EmptySnapshot(), nil
		}
		return models.Snapshot{}, errors.Wrapf(err, "read %s", f.path)
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return models.EmptySnapshot(), nil
	}

	var snap models.Snapshot
	switch f.format {
	case formatYAML:
		err = yaml.Unmarshal(b, &snap)
	default:
		err = sonic.Unmarshal(b, &snap)
	}
	if err != nil {
		return models.Snapshot{}, errors.Wrapf(err, "decode %s", f.path)
	}
	snap = normalize(snap)
	fillTradeIDs(snap.ClosedTrades)
	return snap, nil
}

func (f *File) Save(_ context.Context, snap models.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap = normalize(snap)

	var (
		b   []byte
		err error
	)
	switch f.format {
	case formatYAML:
		b, err = yaml.Marshal(&snap)
	default:
		b, err = sonic.ConfigStd.MarshalIndent(&snap, "", "  ")
	}
	if err != nil {
		return errors.Wrap(err, "encode snapshot")
	}

	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "mkdir %s", dir)
		}
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", tmp)
	}
	// атомарно
	return errors.Wrap(os.Rename(tmp, f.path), "rename snapshot")
}
