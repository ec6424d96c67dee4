package supervisor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// projectContextCandidates are the filenames checked at each directory
// level, in priority order (original_source's
// ContextLoader::find_context_file).
var projectContextCandidates = []string{"AGENTS.md", "CLAUDE.md", ".cursorrules", ".windsurfrules"}

// loadProjectContext walks startDir upward to the filesystem root,
// collecting the first matching candidate file at each level, and
// aggregates their contents top-most-parent first (spec §4.7 step 3:
// "load recursively discovered project-context files"). A missing or
// unreadable file is skipped rather than erroring: project context is
// optional enrichment, never load-bearing.
func loadProjectContext(startDir string) string {
	var found []string

	dir := startDir
	for {
		if file := findContextFile(dir); file != "" {
			found = append(found, file)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	var b strings.Builder
	for i := len(found) - 1; i >= 0; i-- {
		content, err := os.ReadFile(found[i])
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "\n--- Context from %s ---\n", found[i])
		b.Write(content)
		b.WriteString("\n")
	}
	return b.String()
}

func findContextFile(dir string) string {
	for _, candidate := range projectContextCandidates {
		path := filepath.Join(dir, candidate)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}
