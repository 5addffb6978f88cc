package persist

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// fileVersion is bumped whenever the on-disk document schema changes in a
// way old readers can't tolerate.
const fileVersion = 1

// snapshot is the file envelope around one ModelDocument: a version tag
// Load rejects on mismatch, plus the document itself.
type snapshot struct {
	Version int            `json:"version"`
	Model   *ModelDocument `json:"model"`
}

// Save writes doc to path as the current snapshot, carrying doc's own
// Generation. The write is atomic: it encodes to a temp file in path's
// directory, then renames over path, so a crash mid-write never corrupts an
// existing checkpoint.
func Save(path string, doc *ModelDocument) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("persist: create checkpoint dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("persist: create checkpoint temp: %w", err)
	}

	snap := &snapshot{Version: fileVersion, Model: doc}
	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("persist: encode checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("persist: close checkpoint temp: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("persist: persist checkpoint: %w", err)
	}

	log.Debug().Str("path", path).Str("name", doc.Name).Int("generation", doc.Generation).Msg("checkpoint saved")
	return nil
}

// Load reads and validates a snapshot previously written by Save, returning
// its ModelDocument. An unreadable file, a version mismatch, or an unknown
// node "type" anywhere in the tree is a wrapped error -- the caller
// discards the load attempt and keeps whatever model it already has,
// per the persistence error policy (I/O errors are reported, not fatal).
func Load(path string) (*ModelDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("persist: open checkpoint: %w", err)
	}
	defer f.Close()

	doc, err := decodeSnapshot(f)
	if err != nil {
		return nil, fmt.Errorf("persist: %s: %w", path, err)
	}
	return doc, nil
}

func decodeSnapshot(r io.Reader) (*ModelDocument, error) {
	var snap snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	if snap.Version != fileVersion {
		return nil, fmt.Errorf("unsupported checkpoint version %d, want %d", snap.Version, fileVersion)
	}
	if snap.Model == nil {
		return nil, fmt.Errorf("checkpoint has no model document")
	}
	if err := validate(snap.Model); err != nil {
		return nil, err
	}
	return snap.Model, nil
}

// validate walks the document tree confirming every node carries the type
// tag its position in the schema requires, per §7's "Expected type X"
// persistence error taxonomy -- checked before DecodeModel touches the
// tree, so a malformed document fails with one clear error instead of a
// handful scattered across nested Decode* calls.
func validate(doc *ModelDocument) error {
	if doc.Type != typeModel {
		return fmt.Errorf("expected type %q, got %q", typeModel, doc.Type)
	}
	stacks := map[string]*StackDocument{
		"b":      doc.Board,
		"l":      doc.Trunk,
		"in":     doc.CardIn,
		"you_in": doc.YouCardIn,
		"out":    doc.CardOut,
	}
	for key, s := range stacks {
		if s == nil {
			return fmt.Errorf("missing %q", key)
		}
		if s.Type != typeReluLayers {
			return fmt.Errorf("%s: expected type %q, got %q", key, typeReluLayers, s.Type)
		}
		for i, l := range s.Data {
			if l.Type != typeLayer {
				return fmt.Errorf("%s.data[%d]: expected type %q, got %q", key, i, typeLayer, l.Type)
			}
		}
	}
	if doc.Pass == nil {
		return fmt.Errorf("missing %q", "p")
	}
	if doc.Pass.Type != typeLayer {
		return fmt.Errorf("p: expected type %q, got %q", typeLayer, doc.Pass.Type)
	}
	return nil
}
