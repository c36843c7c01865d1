package formatter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kataras/onshape-exporter/pkg/exporter"
)

// Pattern returns the file name pattern of the exported STL files:
// the part name followed by the selected parameter names in combination order.
func Pattern(partName, parameterNames string) string {
	return partName + "-" + parameterNames
}

// WriteSummary writes "<partName>-<parameterNames>.txt" into dir with one line
// describing how the exported files are named, and returns its path.
func WriteSummary(dir, partName, parameterNames string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %q: %w", dir, err)
	}

	path := filepath.Join(dir, exporter.BuildFileName(partName, parameterNames, "txt"))
	content := "File name pattern:\n" + Pattern(partName, parameterNames) + "\n"

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write summary %q: %w", path, err)
	}

	return path, nil
}

// Report renders the outcome of an export run as plain text.
func Report(result *exporter.ExportResult) string {
	var sb strings.Builder

	downloaded := result.Downloaded()
	skipped := result.Skipped()

	sb.WriteString(fmt.Sprintf("Combinations: %d\n", len(result.Outcomes)))
	sb.WriteString(fmt.Sprintf("Downloaded: %d\n", len(downloaded)))
	sb.WriteString(fmt.Sprintf("Skipped: %d\n", len(skipped)))

	for _, o := range skipped {
		sb.WriteString(fmt.Sprintf("  - %s: %v\n", o.Combination.Name, o.Err))
	}

	return sb.String()
}
