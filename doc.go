// Package onshapeexporter batch-exports STL files from a configured Onshape
// part studio, one file per combination of the selected configuration
// parameters' options.
//
// The CLI lives in cmd/onshape-exporter; this root package exposes the same
// pipeline as a Go API so that callers can drive the export with their own
// selection logic instead of the interactive prompts.
//
// # Import
//
// The module path contains a hyphen but Go package names cannot, so the
// package is named onshapeexporter:
//
//	import "github.com/kataras/onshape-exporter" // package onshapeexporter
//
// # Quick start
//
//	creds, err := onshape.LoadCredentials("secrets.env")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := onshapeexporter.Run(onshapeexporter.Options{
//	    Credentials: creds,
//	    DocumentURL: "https://cad.onshape.com/documents/<did>/w/<wid>/e/<eid>",
//	    Selector:    prompt.New(os.Stdin, os.Stdout),
//	})
//	if errors.Is(err, onshapeexporter.ErrAborted) {
//	    return
//	}
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(formatter.Report(result.Export))
//
// # Logging
//
// Pass a [Logger] implementation in [Options.Logger] to receive progress
// messages. A nil Logger silences all output.
//
// # Failures
//
// A combination whose export request is answered without a redirect, or whose
// download returns a non-success status, is skipped and reported in
// [Result.Export]; the remaining combinations are still exported. Any other
// failure ends the run with an error.
package onshapeexporter
