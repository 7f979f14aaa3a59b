package export

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// GenerateMarkdown renders the rows as a nested Markdown list. Checkable rows
// become task list items.
func GenerateMarkdown(rows []Row, title string) string {
	var sb strings.Builder

	if title != "" {
		sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	}
	for _, r := range rows {
		sb.WriteString(strings.Repeat("  ", r.Depth))
		sb.WriteString("- ")
		if r.Checkable {
			if r.Checked {
				sb.WriteString("[x] ")
			} else {
				sb.WriteString("[ ] ")
			}
		}
		sb.WriteString(escapeMarkdown(r.Text))
		if r.Expandable && !r.Expanded {
			sb.WriteString(" …")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// escapeMarkdown keeps list text from being read as markup.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := strings.NewReplacer(`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`)
	return r.Replace(s)
}

// SaveMarkdownToFile writes the Markdown outline to a file.
func SaveMarkdownToFile(rows []Row, title, filename string) error {
	return os.WriteFile(filename, []byte(GenerateMarkdown(rows, title)), 0o644)
}

// WriteText prints the rows with guide lines and expander markers, the way
// the tree looks on screen.
func WriteText(w io.Writer, rows []Row) error {
	for _, r := range rows {
		check := ""
		if r.Checkable {
			check = "[ ] "
			if r.Checked {
				check = "[x] "
			}
		}
		if _, err := fmt.Fprintf(w, "%s%s %s%s\n", Guide(r), Marker(r), check, r.Text); err != nil {
			return err
		}
	}
	return nil
}
