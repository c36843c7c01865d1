package exporter

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/kataras/onshape-exporter/pkg/combos"
	"github.com/kataras/onshape-exporter/pkg/onshape"
)

// API is the part of the Onshape client the exporter needs.
type API interface {
	EncodeConfiguration(ref onshape.DocumentRef, assignments []onshape.ParameterAssignment) (*onshape.EncodedConfiguration, error)
	ExportSTL(ref onshape.DocumentRef, partID, configuration string) (string, error)
	Download(downloadURL string) (io.ReadCloser, error)
}

// ExportConfig holds configuration for STL export.
type ExportConfig struct {
	OutputDir string // local directory, default "out"
}

// Outcome is the result of exporting one combination. Err is nil when the file was
// written to Path; otherwise the combination was skipped for the reason in Err.
type Outcome struct {
	Combination combos.Combination
	FileName    string
	Path        string
	Renamed     bool // FileName got a numeric suffix because an earlier combination used the name
	Err         error
}

// Skipped reports whether the combination was not downloaded.
func (o Outcome) Skipped() bool {
	return o.Err != nil
}

// ExportResult holds the outcome of every combination processed, in order.
type ExportResult struct {
	Outcomes []Outcome
}

// Downloaded returns the outcomes that produced a file.
func (r *ExportResult) Downloaded() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.Skipped() {
			out = append(out, o)
		}
	}
	return out
}

// Skipped returns the outcomes that were skipped.
func (r *ExportResult) Skipped() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Skipped() {
			out = append(out, o)
		}
	}
	return out
}

// ExportSTLs exports part once per combination, one at a time.
// A combination whose encode, export or download request is answered with an unusable
// response (see onshape.RequestError), or whose file cannot be written, is recorded as
// skipped and the batch continues. Any other failure stops the batch; the result then
// holds the outcomes so far.
// notify, when non-nil, is called after each combination.
func ExportSTLs(api API, ref onshape.DocumentRef, part onshape.Part, seq iter.Seq[combos.Combination], config ExportConfig, notify func(Outcome)) (*ExportResult, error) {
	if config.OutputDir == "" {
		config.OutputDir = "out"
	}
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %q: %w", config.OutputDir, err)
	}

	result := &ExportResult{}
	usedNames := make(map[string]bool) // track filename collisions

	for combo := range seq {
		fileName := BuildFileName(part.Name, combo.Name, "stl")
		outcome := Outcome{Combination: combo}

		// Different option names can sanitize to the same file name.
		if usedNames[fileName] {
			ext := filepath.Ext(fileName)
			base := strings.TrimSuffix(fileName, ext)
			for n := 2; usedNames[fileName]; n++ {
				fileName = fmt.Sprintf("%s-%d%s", base, n, ext)
			}
			outcome.Renamed = true
		}
		usedNames[fileName] = true

		outcome.FileName = fileName
		outcome.Path = filepath.Join(config.OutputDir, fileName)

		err := exportOne(api, ref, part.PartID, combo, outcome.Path)
		if err != nil {
			var reqErr *onshape.RequestError
			if !errors.As(err, &reqErr) && !errors.Is(err, errWrite) {
				return result, fmt.Errorf("export %q: %w", combo.Name, err)
			}
			outcome.Err = err
		}

		result.Outcomes = append(result.Outcomes, outcome)
		if notify != nil {
			notify(outcome)
		}
	}

	return result, nil
}

// errWrite marks a failure to create or fill the output file of one combination.
var errWrite = errors.New("cannot write file")

func exportOne(api API, ref onshape.DocumentRef, partID string, combo combos.Combination, destPath string) error {
	encoded, err := api.EncodeConfiguration(ref, combo.Assignments)
	if err != nil {
		return err
	}

	downloadURL, err := api.ExportSTL(ref, partID, encoded.EncodedID)
	if err != nil {
		return err
	}

	body, err := api.Download(downloadURL)
	if err != nil {
		return err
	}
	defer body.Close()

	return writeFile(body, destPath)
}

// writeFile streams r into destPath, replacing any existing file.
// A partially written file is left in place when the stream fails.
func writeFile(r io.Reader, destPath string) error {
	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("%w: failed to create file %q: %w", errWrite, destPath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("%w: failed to write file %q: %w", errWrite, destPath, err)
	}

	return nil
}

// BuildFileName creates "<partName>-<suffix>.<ext>" with characters that are
// invalid in file names on common filesystems replaced by "_".
func BuildFileName(partName, suffix, ext string) string {
	name := SanitizeFileName(partName + "-" + suffix)
	if ext == "" {
		return name
	}
	return name + "." + ext
}

// maxNameBytes bounds a sanitized name, leaving room for a collision suffix and
// an extension under the common 255-byte file name limit.
const maxNameBytes = 200

// SanitizeFileName replaces path separators, characters reserved on Windows and
// control characters with "_", cuts the result to maxNameBytes on a rune boundary,
// and trims trailing dots and spaces. Spaces and the " x " separator are kept.
func SanitizeFileName(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r < 0x20 || r == 0x7f:
			sb.WriteRune('_')
		case strings.ContainsRune(`/\:*?"<>|`, r):
			sb.WriteRune('_')
		default:
			sb.WriteRune(r)
		}
	}

	s := sb.String()
	if len(s) > maxNameBytes {
		cut := maxNameBytes
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}

	s = strings.TrimRight(s, ". ")
	if s == "" {
		return "export"
	}
	return s
}
