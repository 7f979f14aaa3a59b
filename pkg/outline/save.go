package outline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/sharptree/pkg/tree"
)

// Save writes the document and every included file that was loaded.
func (d *Document) Save() error {
	return d.SaveTo(d.path)
}

// SaveTo writes the document to path. Included files are written in place.
func (d *Document) SaveTo(path string) error {
	var errs []error
	rec := snapshot(d.root, &errs)
	if err := writeFile(path, rec); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// snapshot converts a subtree into records. Loaded includes are written to
// their own files and kept as references.
func snapshot(n *tree.Node, errs *[]error) *record {
	rec := &record{Text: n.Text(), Checked: n.IsChecked()}
	it := Of(n)
	if it != nil && it.include != "" {
		rec.Include = it.include
		if !n.LazyLoading() {
			inc := &record{Text: it.text, Children: children(n, errs)}
			if err := writeFile(it.includePath(), inc); err != nil {
				*errs = append(*errs, err)
			}
		}
		return rec
	}
	rec.Children = children(n, errs)
	return rec
}

func children(n *tree.Node, errs *[]error) []*record {
	var out []*record
	for _, c := range n.Children().Nodes() {
		out = append(out, snapshot(c, errs))
	}
	return out
}

func writeFile(path string, rec *record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating outline directory: %w", err)
	}
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling outline: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing outline: %w", err)
	}
	return nil
}
