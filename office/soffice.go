package office

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MacroRecalculate is the script URL of the Basic macro installed by
// EnsureMacro. It recalculates every formula in the open document,
// stores it in place and closes it.
const MacroRecalculate = "vnd.sun.star.script:Standard.Module1.RecalculateAndSave?language=Basic&location=application"

const macroName = "RecalculateAndSave"

const module1XBA = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE script:module PUBLIC "-//OpenOffice.org//DTD OfficeDocument 1.0//EN" "module.dtd">
<script:module xmlns:script="http://openoffice.org/2000/script" script:name="Module1" script:language="StarBasic">
Sub RecalculateAndSave()
  ThisComponent.calculateAll()
  ThisComponent.store()
  ThisComponent.close(True)
End Sub
</script:module>
`

const scriptXLB = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE library:library PUBLIC "-//OpenOffice.org//DTD OfficeDocument 1.0//EN" "library.dtd">
<library:library xmlns:library="http://openoffice.org/2000/library" library:name="Standard" library:readonly="false" library:passwordprotected="false">
 <library:element library:name="Module1"/>
</library:library>
`

const dialogXLB = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE library:library PUBLIC "-//OpenOffice.org//DTD OfficeDocument 1.0//EN" "library.dtd">
<library:library xmlns:library="http://openoffice.org/2000/library" library:name="Standard" library:readonly="false" library:passwordprotected="false"/>
`

// profileInitTimeout bounds the one-off soffice run that creates a fresh profile.
const profileInitTimeout = 60 * time.Second

// Soffice drives LibreOffice in headless mode.
type Soffice struct {
	runner     *Runner
	profileDir string
}

// NewSoffice returns a LibreOffice driver. When profileDir is set, soffice
// runs with a private user installation there instead of the user's
// default profile, so a desktop instance never blocks a batch run.
func NewSoffice(r *Runner, profileDir string) *Soffice {
	return &Soffice{runner: r, profileDir: profileDir}
}

// ProfileDir returns the private profile directory, if any.
func (s *Soffice) ProfileDir() string {
	return s.profileDir
}

func (s *Soffice) baseArgs() []string {
	args := []string{}
	if s.profileDir != "" {
		args = append(args, "-env:UserInstallation="+fileURL(s.profileDir))
	}
	return append(args, "--headless", "--norestore")
}

func fileURL(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(p)}
	return u.String()
}

// Convert converts in to the given format (a soffice filter spec such as
// "pdf" or "xlsx:Calc MS Excel 2007 XML") and writes it to outDir.
// It returns the path of the converted file.
func (s *Soffice) Convert(ctx context.Context, in, format, outDir string, timeout time.Duration) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	args := append(s.baseArgs(), "--convert-to", format, "--outdir", outDir, in)
	if _, err := s.runner.Run(ctx, "soffice", args, Timeout(timeout)); err != nil {
		return "", err
	}

	ext := format
	if i := strings.IndexByte(ext, ':'); i >= 0 {
		ext = ext[:i]
	}
	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	out := filepath.Join(outDir, base+"."+ext)
	if _, err := os.Stat(out); err != nil {
		return "", fmt.Errorf("soffice produced no output for %s: %w", in, err)
	}
	return out, nil
}

// EnsureMacro installs the recalculation macro into the private profile.
// A missing profile is initialised first. It is a no-op when the macro is
// already present.
func (s *Soffice) EnsureMacro(ctx context.Context) error {
	if s.profileDir == "" {
		return fmt.Errorf("soffice: a profile directory is required to install macros")
	}

	dir := filepath.Join(s.profileDir, "user", "basic", "Standard")
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		args := append(s.baseArgs(), "--terminate_after_init")
		if _, err := s.runner.Run(ctx, "soffice", args, Timeout(profileInitTimeout)); err != nil {
			s.runner.Logger().Warn("soffice: profile initialisation failed", "error", err)
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating macro directory: %w", err)
	}

	for name, content := range map[string]string{"script.xlb": scriptXLB, "dialog.xlb": dialogXLB} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			continue
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}

	modPath := filepath.Join(dir, "Module1.xba")
	if data, err := os.ReadFile(modPath); err == nil && strings.Contains(string(data), macroName) {
		return nil
	}
	if err := os.WriteFile(modPath, []byte(module1XBA), 0o644); err != nil {
		return fmt.Errorf("writing macro module: %w", err)
	}
	s.runner.Logger().Debug("soffice: macro installed", "path", modPath)
	return nil
}

// RunMacro opens file headless and runs the macro at macroURL against it.
func (s *Soffice) RunMacro(ctx context.Context, macroURL, file string, timeout time.Duration) error {
	args := append(s.baseArgs(), macroURL, file)
	_, err := s.runner.Run(ctx, "soffice", args, Timeout(timeout))
	return err
}
