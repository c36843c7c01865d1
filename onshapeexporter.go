package onshapeexporter

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/kataras/onshape-exporter/pkg/combos"
	"github.com/kataras/onshape-exporter/pkg/exporter"
	"github.com/kataras/onshape-exporter/pkg/formatter"
	"github.com/kataras/onshape-exporter/pkg/onshape"
)

// DefaultConfirmThreshold is the number of combinations above which Run asks
// for confirmation before exporting.
const DefaultConfirmThreshold = 42

var (
	// ErrAborted is returned when the user declines a large export. Nothing is written.
	ErrAborted = errors.New("export aborted by user")
	// ErrNoParts is returned when the element has no parts.
	ErrNoParts = errors.New("element has no parts")
	// ErrNoParameters is returned when the element has no configuration parameters.
	ErrNoParameters = errors.New("element has no configuration parameters")
)

// Options configures the export.
type Options struct {
	Credentials      onshape.Credentials
	DocumentURL      string // Onshape document URL
	BaseURL          string // empty = onshape.DefaultBaseURL
	OutputDir        string // empty = "out"
	ConfirmThreshold int    // 0 = DefaultConfirmThreshold
	Selector         Selector
	HTTPClient       *http.Client // nil = client without timeout
	Logger           Logger       // nil = no logging
}

// Selector picks the part and the configuration parameters to export.
// prompt.Prompter is the interactive implementation.
type Selector interface {
	SelectPart(parts []onshape.Part) (onshape.Part, error)
	SelectParameters(params []onshape.ConfigParameter) ([]onshape.ConfigParameter, error)
	ConfirmCombinations(total int) (bool, error)
}

// Logger receives progress messages. A nil Logger means silent operation.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Successf(format string, args ...any)
	Progressf(format string, args ...any)
}

// Result contains the export output.
type Result struct {
	Document    onshape.DocumentRef
	Part        onshape.Part
	Parameters  []onshape.ConfigParameter // selected parameters, in combination order
	Export      *exporter.ExportResult
	SummaryPath string
}

func (o *Options) logInfo(f string, a ...any) {
	if o.Logger != nil {
		o.Logger.Infof(f, a...)
	}
}

func (o *Options) logWarn(f string, a ...any) {
	if o.Logger != nil {
		o.Logger.Warnf(f, a...)
	}
}

func (o *Options) logError(f string, a ...any) {
	if o.Logger != nil {
		o.Logger.Errorf(f, a...)
	}
}

func (o *Options) logSuccess(f string, a ...any) {
	if o.Logger != nil {
		o.Logger.Successf(f, a...)
	}
}

func (o *Options) logProgress(f string, a ...any) {
	if o.Logger != nil {
		o.Logger.Progressf(f, a...)
	}
}

// Run executes the export pipeline and returns the result.
func Run(opts Options) (*Result, error) {
	// Apply defaults.
	if opts.OutputDir == "" {
		opts.OutputDir = "out"
	}
	if opts.ConfirmThreshold <= 0 {
		opts.ConfirmThreshold = DefaultConfirmThreshold
	}
	if opts.Credentials.WVM == "" {
		opts.Credentials.WVM = "w"
	}
	if opts.Selector == nil {
		return nil, errors.New("no selector configured")
	}

	ref, err := onshape.ParseDocumentURL(opts.DocumentURL, opts.Credentials.WVM)
	if err != nil {
		return nil, fmt.Errorf("resolve document URL: %w", err)
	}

	clientOpts := []onshape.Option{}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, onshape.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, onshape.WithHTTPClient(opts.HTTPClient))
	}
	client := onshape.NewClient(opts.Credentials.Token(), clientOpts...)

	part, err := selectPart(&opts, client, ref)
	if err != nil {
		return nil, err
	}

	params, err := client.GetConfiguration(ref)
	if err != nil {
		return nil, fmt.Errorf("fetch configuration: %w", err)
	}
	if len(params) == 0 {
		return nil, ErrNoParameters
	}

	chosen, err := opts.Selector.SelectParameters(params)
	if err != nil {
		return nil, fmt.Errorf("select configuration: %w", err)
	}

	for _, skipped := range combos.Unusable(chosen) {
		opts.logWarn("Option %q of %q has no value and is left out", skipped.OptionName, skipped.ParameterName)
	}

	total := combos.Count(chosen)
	if total == 0 {
		opts.logWarn("Selected configuration inputs produce no combinations")
	}
	if total > opts.ConfirmThreshold {
		ok, err := opts.Selector.ConfirmCombinations(total)
		if err != nil {
			return nil, fmt.Errorf("confirm combinations: %w", err)
		}
		if !ok {
			opts.logInfo("Exiting.")
			return nil, ErrAborted
		}
	}
	opts.logInfo("Downloading %d combinations...", total)

	exportResult, err := exporter.ExportSTLs(client, ref, part, combos.Enumerate(chosen),
		exporter.ExportConfig{OutputDir: opts.OutputDir}, func(o exporter.Outcome) {
			if o.Renamed {
				opts.logWarn("File name of %q is already taken, using %s", o.Combination.Name, o.FileName)
			}
			if !o.Skipped() {
				opts.logProgress("Downloaded: %s", o.FileName)
				return
			}
			logSkipped(&opts, o)
		})
	if err != nil {
		return nil, err
	}

	summaryPath, err := formatter.WriteSummary(opts.OutputDir, part.Name, combos.Names(chosen))
	if err != nil {
		return nil, err
	}

	if skipped := len(exportResult.Skipped()); skipped > 0 {
		opts.logWarn("%d of %d combinations were skipped.", skipped, len(exportResult.Outcomes))
	} else {
		opts.logSuccess("All selected configurations are downloaded.")
	}

	return &Result{
		Document:    ref,
		Part:        part,
		Parameters:  chosen,
		Export:      exportResult,
		SummaryPath: summaryPath,
	}, nil
}

func selectPart(opts *Options, client *onshape.Client, ref onshape.DocumentRef) (onshape.Part, error) {
	parts, err := client.GetParts(ref)
	if err != nil {
		return onshape.Part{}, fmt.Errorf("fetch parts: %w", err)
	}

	switch len(parts) {
	case 0:
		return onshape.Part{}, ErrNoParts
	case 1:
		opts.logInfo("Found only one part: %s. Skip choose", parts[0].Name)
		return parts[0], nil
	}

	part, err := opts.Selector.SelectPart(parts)
	if err != nil {
		return onshape.Part{}, fmt.Errorf("select part: %w", err)
	}
	return part, nil
}

func logSkipped(opts *Options, o exporter.Outcome) {
	var reqErr *onshape.RequestError
	if errors.As(o.Err, &reqErr) {
		opts.logError("Skipped %s: %s failed", o.Combination.Name, reqErr.Op)
		opts.logError("Status: %d", reqErr.Status)
		if reqErr.URL != "" {
			opts.logError("URL: %s", reqErr.URL)
		}
		if reqErr.Message != "" {
			opts.logError("Reason: %s", reqErr.Message)
		}
		if reqErr.Body != "" {
			opts.logError("Body: %s", reqErr.Body)
		}
		return
	}
	opts.logError("Skipped %s: %v", o.Combination.Name, o.Err)
}
