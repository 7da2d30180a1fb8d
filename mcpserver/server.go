// Package mcpserver exposes the officekit workflows as Model Context
// Protocol tools.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tsawler/officekit/format"
	"github.com/tsawler/officekit/ocr"
	"github.com/tsawler/officekit/office"
	"github.com/tsawler/officekit/pdf"
	"github.com/tsawler/officekit/pptx"
	"github.com/tsawler/officekit/skills"
	"github.com/tsawler/officekit/tables"
	"github.com/tsawler/officekit/xlsx"
)

// Name is the implementation name announced to clients.
const Name = "officekit"

// Config configures the tool handlers.
type Config struct {
	// Runner executes external tools.
	Runner *office.Runner

	// ProfileDir is the LibreOffice profile used for recalculation.
	ProfileDir string

	// RecalcTimeout bounds xlsx_recalc. Zero means xlsx.DefaultRecalcTimeout.
	RecalcTimeout time.Duration

	// MaxLocations caps error locations per code in scan reports.
	MaxLocations int

	// OCR defaults; per-call arguments override them.
	OCRLanguage string
	OCRDPI      int
	OCRPSM      ocr.PageSegMode

	// TableDetector names the registered detector pdf_tables uses unless
	// a call picks another. Empty means geometric.
	TableDetector string

	// TableConfig holds the detector thresholds. Zero means
	// tables.DefaultConfig.
	TableConfig tables.Config

	Version string
	Logger  *slog.Logger
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Runner == nil {
		c.Runner = office.NewRunner(office.Config{Logger: c.Logger})
	}
	if c.Version == "" {
		c.Version = "dev"
	}
	if c.TableConfig == (tables.Config{}) {
		c.TableConfig = tables.DefaultConfig()
	}
}

// Server holds the tool handlers.
type Server struct {
	cfg Config
}

// New creates a Server.
func New(cfg Config) *Server {
	cfg.defaults()
	return &Server{cfg: cfg}
}

// MCP returns an MCP server with every tool registered.
func (s *Server) MCP() *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: Name, Version: s.cfg.Version}, nil)
	s.Register(srv)
	return srv
}

// Serve runs the server over stdin/stdout until ctx is done or the client
// disconnects.
func (s *Server) Serve(ctx context.Context) error {
	s.cfg.Logger.Info("mcp: serving on stdio", "version", s.cfg.Version)
	return s.MCP().Run(ctx, &mcp.StdioTransport{})
}

// Register adds every officekit tool to srv.
func (s *Server) Register(srv *mcp.Server) {
	s.registerXLSX(srv)
	s.registerPDF(srv)
	s.registerPPTX(srv)
	s.registerSkills(srv)
	s.registerDoctor(srv)
}

type handler func(ctx context.Context, args json.RawMessage) (any, error)

// addTool registers h under tool. Decoding and handler failures become
// tool results with the error flag set.
func (s *Server) addTool(srv *mcp.Server, tool *mcp.Tool, h handler) {
	log := s.cfg.Logger
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		resp, err := h(ctx, req.Params.Arguments)
		if err != nil {
			log.Debug("mcp: tool failed", "tool", tool.Name, "error", err)
			var res mcp.CallToolResult
			res.SetError(err)
			return &res, nil
		}

		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		log.Debug("mcp: tool done", "tool", tool.Name, "duration", time.Since(start))
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

// decode unmarshals tool arguments into v. Empty arguments leave v zero.
func decode(args json.RawMessage, v any) error {
	if len(bytes.TrimSpace(args)) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func requirePath(p string) error {
	if p == "" {
		return errors.New("path is required")
	}
	return nil
}

// requireFormat checks that p is set and holds a want document.
func requireFormat(p string, want format.Format) error {
	if err := requirePath(p); err != nil {
		return err
	}
	got, err := format.DetectFile(p)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%s is not a %s file (detected %s)", p, want, got)
	}
	return nil
}

func inputSchema(properties map[string]any, required ...string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func prop(typ, desc string) map[string]any {
	return map[string]any{"type": typ, "description": desc}
}

// --- xlsx ---

type recalcReq struct {
	Path           string `json:"path"`
	Output         string `json:"output"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

type scanReq struct {
	Path         string `json:"path"`
	MaxLocations int    `json:"max_locations"`
}

func (s *Server) registerXLSX(srv *mcp.Server) {
	s.addTool(srv, &mcp.Tool{
		Name:        "xlsx_recalc",
		Description: "Recalculate every formula of an .xlsx workbook with LibreOffice and report formula errors (#REF!, #DIV/0!, #VALUE!, #N/A, #NAME?).",
		InputSchema: inputSchema(map[string]any{
			"path":            prop("string", "Workbook path"),
			"output":          prop("string", "Write the recalculated copy here instead of in place"),
			"timeout_seconds": prop("integer", "LibreOffice run timeout"),
		}, "path"),
	}, func(ctx context.Context, args json.RawMessage) (any, error) {
		var r recalcReq
		if err := decode(args, &r); err != nil {
			return nil, err
		}
		if err := requireFormat(r.Path, format.XLSX); err != nil {
			return nil, err
		}
		timeout := s.cfg.RecalcTimeout
		if r.TimeoutSeconds > 0 {
			timeout = time.Duration(r.TimeoutSeconds) * time.Second
		}
		return xlsx.Recalculate(ctx, r.Path, xlsx.RecalcConfig{
			Runner:     s.cfg.Runner,
			ProfileDir: s.cfg.ProfileDir,
			Timeout:    timeout,
			Output:     r.Output,
			Scan:       xlsx.ScanOptions{MaxLocations: s.cfg.MaxLocations},
			Logger:     s.cfg.Logger,
		})
	})

	s.addTool(srv, &mcp.Tool{
		Name:        "xlsx_scan",
		Description: "Report formula errors in the cached values of an .xlsx workbook without recalculating it.",
		InputSchema: inputSchema(map[string]any{
			"path":          prop("string", "Workbook path"),
			"max_locations": prop("integer", "Locations listed per error code"),
		}, "path"),
	}, func(_ context.Context, args json.RawMessage) (any, error) {
		var r scanReq
		if err := decode(args, &r); err != nil {
			return nil, err
		}
		if err := requireFormat(r.Path, format.XLSX); err != nil {
			return nil, err
		}
		limit := r.MaxLocations
		if limit == 0 {
			limit = s.cfg.MaxLocations
		}
		return xlsx.Scan(r.Path, xlsx.ScanOptions{MaxLocations: limit})
	})
}

// --- pdf ---

type tablesReq struct {
	Path       string `json:"path"`
	Detector   string `json:"detector"`
	Pages      string `json:"pages"`
	Stitch     bool   `json:"stitch"`
	FillMerged bool   `json:"fill_merged"`
	Normalize  bool   `json:"normalize"`
}

type validateReq struct {
	Path string `json:"path"`
}

type ocrReq struct {
	Path     string `json:"path"`
	Pages    string `json:"pages"`
	Language string `json:"language"`
	DPI      int    `json:"dpi"`
}

func (s *Server) registerPDF(srv *mcp.Server) {
	s.addTool(srv, &mcp.Tool{
		Name:        "pdf_tables",
		Description: "Detect tables in a text-based PDF. Returns rows per table with page numbers and confidence.",
		InputSchema: inputSchema(map[string]any{
			"path":        prop("string", "PDF path"),
			"pages":       prop("string", `Page selection such as "1-3,5"; empty means all`),
			"stitch":      prop("boolean", "Join a table that continues across pages"),
			"fill_merged": prop("boolean", "Carry values into cells left empty by merged headers"),
			"normalize":   prop("boolean", "Trim cells and pad rows to equal width"),
			"detector":    prop("string", "Registered table detector; empty uses the server default"),
		}, "path"),
	}, func(ctx context.Context, args json.RawMessage) (any, error) {
		var r tablesReq
		if err := decode(args, &r); err != nil {
			return nil, err
		}
		if err := requireFormat(r.Path, format.PDF); err != nil {
			return nil, err
		}
		name := r.Detector
		if name == "" {
			name = s.cfg.TableDetector
		}
		det, err := tables.NewDetector(name, s.cfg.TableConfig)
		if err != nil {
			return nil, err
		}
		doc, err := pdf.Open(r.Path, pdf.Config{Runner: s.cfg.Runner, Detector: det, Logger: s.cfg.Logger})
		if err != nil {
			return nil, err
		}
		var pages []int
		if r.Pages != "" {
			if pages, err = pdf.ParsePages(r.Pages, doc.PageCount()); err != nil {
				return nil, err
			}
		}
		return doc.Tables(ctx, pdf.TableOptions{
			Pages:      pages,
			Stitch:     r.Stitch,
			FillMerged: r.FillMerged,
			Normalize:  r.Normalize,
		})
	})

	s.addTool(srv, &mcp.Tool{
		Name:        "pdf_ocr",
		Description: "Recognize the text of a scanned PDF page by page with Tesseract.",
		InputSchema: inputSchema(map[string]any{
			"path":     prop("string", "PDF path"),
			"pages":    prop("string", `Page selection such as "1-3,5"; empty means all`),
			"language": prop("string", `Tesseract languages, e.g. "eng+fra"`),
			"dpi":      prop("integer", "Render resolution"),
		}, "path"),
	}, func(ctx context.Context, args json.RawMessage) (any, error) {
		var r ocrReq
		if err := decode(args, &r); err != nil {
			return nil, err
		}
		if err := requireFormat(r.Path, format.PDF); err != nil {
			return nil, err
		}
		cfg := ocr.Config{
			Runner:   s.cfg.Runner,
			Language: s.cfg.OCRLanguage,
			DPI:      s.cfg.OCRDPI,
			PSM:      s.cfg.OCRPSM,
			Logger:   s.cfg.Logger,
		}
		if r.Language != "" {
			cfg.Language = r.Language
		}
		if r.DPI > 0 {
			cfg.DPI = r.DPI
		}
		if r.Pages != "" {
			n, err := pdf.PageCount(r.Path)
			if err != nil {
				return nil, err
			}
			if cfg.Pages, err = pdf.ParsePages(r.Pages, n); err != nil {
				return nil, err
			}
		}
		return ocr.NewPipeline(cfg).Run(ctx, r.Path)
	})

	s.addTool(srv, &mcp.Tool{
		Name:        "pdf_validate",
		Description: "Check a PDF for structural errors with pdfcpu.",
		InputSchema: inputSchema(map[string]any{
			"path": prop("string", "PDF path"),
		}, "path"),
	}, func(_ context.Context, args json.RawMessage) (any, error) {
		var r validateReq
		if err := decode(args, &r); err != nil {
			return nil, err
		}
		if err := requirePath(r.Path); err != nil {
			return nil, err
		}
		res := map[string]any{"path": r.Path, "valid": true}
		if err := pdf.Validate(r.Path); err != nil {
			res["valid"], res["error"] = false, err.Error()
		}
		return res, nil
	})
}

// --- pptx ---

type inventoryReq struct {
	Path string `json:"path"`
}

type replaceReq struct {
	Path         string            `json:"path"`
	Replacements pptx.Replacements `json:"replacements"`
	Output       string            `json:"output"`
}

func (s *Server) registerPPTX(srv *mcp.Server) {
	s.addTool(srv, &mcp.Tool{
		Name:        "pptx_inventory",
		Description: "List the text shapes of every slide with position, placeholder type and paragraph formatting, keyed slide-N/shape-N.",
		InputSchema: inputSchema(map[string]any{
			"path": prop("string", "Presentation path"),
		}, "path"),
	}, func(_ context.Context, args json.RawMessage) (any, error) {
		var r inventoryReq
		if err := decode(args, &r); err != nil {
			return nil, err
		}
		if err := requireFormat(r.Path, format.PPTX); err != nil {
			return nil, err
		}
		return pptx.InventoryFile(r.Path)
	})

	s.addTool(srv, &mcp.Tool{
		Name:        "pptx_replace",
		Description: "Rewrite shape text from an inventory-shaped replacement map. Shapes not named are cleared; unknown slides or shapes are an error.",
		InputSchema: inputSchema(map[string]any{
			"path":         prop("string", "Source presentation"),
			"replacements": prop("object", `{"slide-0": {"shape-1": {"paragraphs": [{"text": "..."}]}}}`),
			"output":       prop("string", "Destination presentation"),
		}, "path", "replacements", "output"),
	}, func(_ context.Context, args json.RawMessage) (any, error) {
		var r replaceReq
		if err := decode(args, &r); err != nil {
			return nil, err
		}
		if err := requireFormat(r.Path, format.PPTX); err != nil {
			return nil, err
		}
		if r.Output == "" {
			return nil, errors.New("output is required")
		}
		if err := os.MkdirAll(filepath.Dir(r.Output), 0o755); err != nil {
			return nil, err
		}
		if err := pptx.Replace(r.Path, r.Replacements, r.Output); err != nil {
			return nil, err
		}
		return map[string]any{"output": r.Output}, nil
	})
}

// --- skills ---

type skillReq struct {
	Name string `json:"name"`
}

func (s *Server) registerSkills(srv *mcp.Server) {
	s.addTool(srv, &mcp.Tool{
		Name:        "skills_list",
		Description: "List the bundled document skills with their descriptions.",
		InputSchema: inputSchema(map[string]any{}),
	}, func(context.Context, json.RawMessage) (any, error) {
		list, err := skills.List()
		if err != nil {
			return nil, err
		}
		return map[string]any{"skills": list}, nil
	})

	s.addTool(srv, &mcp.Tool{
		Name:        "skills_get",
		Description: "Return the full instructions of one skill (docx, pdf, pptx or xlsx).",
		InputSchema: inputSchema(map[string]any{
			"name": prop("string", "Skill name"),
		}, "name"),
	}, func(_ context.Context, args json.RawMessage) (any, error) {
		var r skillReq
		if err := decode(args, &r); err != nil {
			return nil, err
		}
		return skills.Get(r.Name)
	})
}

// --- doctor ---

func (s *Server) registerDoctor(srv *mcp.Server) {
	s.addTool(srv, &mcp.Tool{
		Name:        "doctor",
		Description: "Report which external tools (soffice, pandoc, poppler, tesseract, qpdf) are installed and the packages that provide missing ones.",
		InputSchema: inputSchema(map[string]any{}),
	}, func(context.Context, json.RawMessage) (any, error) {
		rep := s.cfg.Runner.Doctor()
		return map[string]any{
			"tools":    rep.Tools,
			"missing":  len(rep.Missing()),
			"packages": rep.Packages(),
		}, nil
	})
}
