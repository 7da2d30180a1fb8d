package office

import "sort"

// Tool describes an external program used by the workflows.
type Tool struct {
	Name     string   // Tool name used throughout officekit
	Binaries []string // Candidate binary names, tried in order
	Package  string   // Debian/Ubuntu package that provides it
	Purpose  string
	Optional bool
}

var knownTools = []Tool{
	{
		Name:     "soffice",
		Binaries: []string{"soffice", "libreoffice"},
		Package:  "libreoffice",
		Purpose:  "headless recalculation and format conversion",
	},
	{
		Name:     "pandoc",
		Binaries: []string{"pandoc"},
		Package:  "pandoc",
		Purpose:  "DOCX to Markdown conversion",
	},
	{
		Name:     "pdftotext",
		Binaries: []string{"pdftotext"},
		Package:  "poppler-utils",
		Purpose:  "PDF text and word boxes",
	},
	{
		Name:     "pdftoppm",
		Binaries: []string{"pdftoppm"},
		Package:  "poppler-utils",
		Purpose:  "PDF page rasterization",
	},
	{
		Name:     "tesseract",
		Binaries: []string{"tesseract"},
		Package:  "tesseract-ocr",
		Purpose:  "OCR engine used by gosseract",
	},
	{
		Name:     "qpdf",
		Binaries: []string{"qpdf"},
		Package:  "qpdf",
		Purpose:  "PDF repair and linearization",
		Optional: true,
	},
}

// Tools returns all known tools sorted by name.
func Tools() []Tool {
	out := make([]Tool, len(knownTools))
	copy(out, knownTools)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LookupTool returns the tool with the given name.
func LookupTool(name string) (Tool, bool) {
	for _, t := range knownTools {
		if t.Name == name {
			return t, true
		}
		for _, b := range t.Binaries {
			if b == name {
				return t, true
			}
		}
	}
	return Tool{}, false
}

// ToolStatus is the result of probing one tool.
type ToolStatus struct {
	Name     string `json:"name"`
	Package  string `json:"package"`
	Path     string `json:"path,omitempty"`
	Found    bool   `json:"found"`
	Optional bool   `json:"optional"`
}

// DoctorReport summarizes which tools are installed.
type DoctorReport struct {
	Tools []ToolStatus `json:"tools"`
}

// Missing returns the required tools that could not be found.
func (d DoctorReport) Missing() []ToolStatus {
	var missing []ToolStatus
	for _, t := range d.Tools {
		if !t.Found && !t.Optional {
			missing = append(missing, t)
		}
	}
	return missing
}

// Packages returns the distinct packages needed to install the missing tools.
func (d DoctorReport) Packages() []string {
	seen := make(map[string]bool)
	var pkgs []string
	for _, t := range d.Missing() {
		if !seen[t.Package] {
			seen[t.Package] = true
			pkgs = append(pkgs, t.Package)
		}
	}
	sort.Strings(pkgs)
	return pkgs
}

// Doctor probes every known tool.
func (r *Runner) Doctor() DoctorReport {
	var report DoctorReport
	for _, t := range Tools() {
		status := ToolStatus{Name: t.Name, Package: t.Package, Optional: t.Optional}
		if p, err := r.Resolve(t.Name); err == nil {
			status.Path = p
			status.Found = true
		}
		report.Tools = append(report.Tools, status)
	}
	return report
}
