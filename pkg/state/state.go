// Package state persists the expand/collapse state of a tree across sessions.
//
// File format (JSON):
//
//	{
//	  "version": 1,
//	  "expanded": {
//	    "project/src": true,       // explicitly expanded
//	    "project/vendor": false    // explicitly collapsed
//	  }
//	}
//
// Keys are node paths from the list root (see tree.Node.Path). Only states
// that differ from the default are stored: a node is expanded by default when
// its level is below the configured expand depth. A missing or corrupt file
// means defaults.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/sharptree/pkg/debug"
	"github.com/vanderheijden86/sharptree/pkg/tree"
)

// Version is the current schema version.
const Version = 1

// TreeState is the persisted expansion state of one tree.
type TreeState struct {
	Version  int             `json:"version"`
	Expanded map[string]bool `json:"expanded"` // node path -> explicitly set state
}

// New returns an empty state.
func New() *TreeState {
	return &TreeState{
		Version:  Version,
		Expanded: make(map[string]bool),
	}
}

// PathFor returns the state file for the tree identified by id (a directory
// or document path) inside stateDir.
func PathFor(stateDir, id string) string {
	sum := sha256.Sum256([]byte(id))
	return filepath.Join(stateDir, "trees", hex.EncodeToString(sum[:8])+".json")
}

// Load reads the state file at path. A missing file yields an empty state; a
// corrupt one is reported with a warning and also yields an empty state.
func Load(path string) *TreeState {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("warning: cannot read tree state %s: %v", path, err)
		}
		return New()
	}

	var s TreeState
	if err := json.Unmarshal(data, &s); err != nil {
		log.Printf("warning: invalid tree state file, using defaults: %v", err)
		return New()
	}
	if s.Version != Version {
		debug.Log("state: ignoring %s with version %d", path, s.Version)
		return New()
	}
	if s.Expanded == nil {
		s.Expanded = make(map[string]bool)
	}
	return &s
}

// Save writes the state to path, creating its directory.
func Save(path string, s *TreeState) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling tree state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing tree state: %w", err)
	}
	debug.Log("state: saved %d entries to %s", len(s.Expanded), path)
	return nil
}

// Capture records the expansion state of every materialized node under root
// that differs from the default for depth.
func Capture(root *tree.Node, depth int) *TreeState {
	s := New()
	for _, n := range root.DescendantsAndSelf() {
		if !n.HasChildren() && !n.LazyLoading() {
			continue
		}
		if n.IsExpanded() != (n.Level() < depth) {
			s.Expanded[n.Path()] = n.IsExpanded()
		}
	}
	return s
}

// Apply expands and collapses nodes under root in document order, following
// the recorded states and falling back to the default for depth. It only
// descends into nodes that end up expanded, so collapsed lazy folders are not
// loaded. Load failures are collected and the walk continues.
func (s *TreeState) Apply(root *tree.Node, depth int) error {
	var errs []error
	var walk func(n *tree.Node)
	walk = func(n *tree.Node) {
		want := n.Level() < depth
		if v, ok := s.Expanded[n.Path()]; ok {
			want = v
		}
		if !want {
			n.Collapse()
			return
		}
		if !n.HasChildren() && !n.LazyLoading() {
			return
		}
		if err := n.Expand(); err != nil {
			errs = append(errs, err)
			return
		}
		for _, c := range n.Children().Nodes() {
			walk(c)
		}
	}
	walk(root)
	return errors.Join(errs...)
}
