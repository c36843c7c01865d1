package main

import (
	"errors"
	"fmt"
	"os"

	onshapeexporter "github.com/kataras/onshape-exporter"
	"github.com/kataras/onshape-exporter/pkg/console"
	"github.com/kataras/onshape-exporter/pkg/formatter"
	"github.com/kataras/onshape-exporter/pkg/onshape"
	"github.com/kataras/onshape-exporter/pkg/prompt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const version = onshapeexporter.Version

// Environment variables read on top of the credentials.
const (
	envBaseURL   = "ONSHAPE_BASE_URL"
	envOutputDir = "ONSHAPE_OUTPUT_DIR"
	envLogFormat = "ONSHAPE_LOG_FORMAT"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "onshape-exporter <document-url>",
		Short: "Export STL files for every configuration of an Onshape part",
		Long: `Export one STL file per combination of the selected configuration parameters
of an Onshape part studio.

Credentials are read from ONSHAPE_ACCESS_KEY and ONSHAPE_SECRET_KEY, either in the
environment or in a secrets.env file in the working directory. WVM selects the
workspace (w), version (v) or microversion (m) segment of the document URL.`,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		RunE:          run,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("onshape-exporter version %s\n", version)
		},
	}

	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Print(console.Error.Tag())
		fmt.Println(err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	// Argument errors print usage; failures past this point do not.
	cmd.SilenceUsage = true

	logger, closeLogger, err := newLogger(os.Getenv(envLogFormat))
	if err != nil {
		return err
	}
	defer closeLogger()

	creds, err := onshape.LoadCredentials(onshape.DefaultSecretsFile)
	if err != nil {
		return err
	}

	color.New(color.FgCyan).Println("\nOnshape STL Exporter")
	color.New(color.FgCyan).Println("====================")
	fmt.Println()

	opts := onshapeexporter.Options{
		Credentials: creds,
		DocumentURL: args[0],
		BaseURL:     os.Getenv(envBaseURL),
		OutputDir:   os.Getenv(envOutputDir),
		Selector:    prompt.New(os.Stdin, os.Stdout),
		Logger:      logger,
	}

	result, err := onshapeexporter.Run(opts)
	if errors.Is(err, onshapeexporter.ErrAborted) {
		return nil
	}
	if err != nil {
		return err
	}

	color.New(color.FgCyan).Println("\nExport Summary:")
	fmt.Print(formatter.Report(result.Export))
	fmt.Printf("File name pattern written to %s\n", result.SummaryPath)
	return nil
}
