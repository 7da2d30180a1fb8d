// Package main is the officekit command line: document workflows for
// spreadsheets, PDFs, presentations and Word files, with JSON results on
// stdout and logs on stderr.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tsawler/officekit/config"
	"github.com/tsawler/officekit/format"
	"github.com/tsawler/officekit/office"
	"github.com/tsawler/officekit/outputs"
)

// version is set at build time via ldflags.
var version = "dev"

// configKey is the flag annotation naming the config key a flag overrides.
const configKey = "officekit.config-key"

var (
	cfg    *config.Config
	logger *slog.Logger
	stdout io.Writer = os.Stdout
)

var rootCmd = &cobra.Command{
	Use:   "officekit",
	Short: "Document workflows for xlsx, pdf, pptx and docx files",
	Long: `officekit bundles the document skills and the commands they call:
formula recalculation and error scanning for workbooks, text, table and
OCR extraction for PDFs, inventory-driven text replacement and thumbnail
grids for presentations, and Markdown conversion for Word documents.

Results are printed to stdout as JSON; failures print {"error": ...} and
exit non-zero.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		file, _ := cmd.Flags().GetString("config")
		v, err := config.New(file)
		if err != nil {
			return err
		}
		if used := v.ConfigFileUsed(); used != "" {
			logger.Debug("using config file", "path", used)
		}

		var bindErr error
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if keys := f.Annotations[configKey]; len(keys) > 0 && bindErr == nil {
				bindErr = v.BindPFlag(keys[0], f)
			}
		})
		if bindErr != nil {
			return bindErr
		}

		cfg, err = config.Load(v)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./officekit.yaml or ~/.config/officekit/officekit.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log debug messages to stderr")
}

// bindConfig marks flag name on cmd as an override of a config key.
func bindConfig(cmd *cobra.Command, name, key string) {
	if err := cmd.Flags().SetAnnotation(name, configKey, []string{key}); err != nil {
		panic(err)
	}
}

// runner returns an external tool runner honoring configured binaries.
func runner() *office.Runner {
	return office.NewRunner(office.Config{Binaries: cfg.Binaries(), Logger: logger})
}

// requireFormat fails unless the content of each path is a want document.
func requireFormat(want format.Format, paths ...string) error {
	for _, p := range paths {
		got, err := format.DetectFile(p)
		if err != nil {
			return err
		}
		if got != want {
			return fmt.Errorf("%s is not a %s file (detected %s)", p, want, got)
		}
	}
	return nil
}

// outputDir returns the folder for files generated from doc under the
// configured outputs root, creating it.
func outputDir(doc string) (string, error) {
	return outputs.Dir(cfg.Outputs.Root, doc)
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printText(s string) error {
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	_, err := io.WriteString(stdout, s)
	return err
}

// recordOutputs maintains the outputs folder convention for files written
// under the configured root: the root gets its .gitignore and each
// document folder a manifest of the run.
func recordOutputs(tool string, inputs []string, files ...string) {
	root := filepath.Clean(cfg.Outputs.Root)
	byDir := make(map[string][]string)
	for _, f := range files {
		rel, err := filepath.Rel(root, filepath.Clean(f))
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		doc := strings.Split(filepath.ToSlash(rel), "/")[0]
		dir := filepath.Join(root, doc)
		byDir[dir] = append(byDir[dir], f)
	}
	if len(byDir) == 0 {
		return
	}

	if err := outputs.EnsureRoot(root); err != nil {
		logger.Warn("outputs: preparing root", "root", root, "error", err)
		return
	}
	for dir, fs := range byDir {
		if !outputs.IsSlug(filepath.Base(dir)) {
			logger.Warn("outputs: folder name is not lowercase and hyphenated", "dir", dir, "suggested", outputs.FolderName(filepath.Base(dir)))
		}
		m := outputs.NewManifest(tool, inputs...)
		m.Add(dir, fs...)
		if err := m.Save(dir); err != nil {
			logger.Warn("outputs: saving manifest", "dir", dir, "error", err)
		}
	}
}

func run(ctx context.Context, args []string, out io.Writer) int {
	stdout = out
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if logger != nil {
			logger.Debug("command failed", "error", err)
		}
		_ = printJSON(map[string]string{"error": err.Error()})
		return 1
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}
