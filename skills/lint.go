package skills

import (
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/tsawler/officekit/office"
	"github.com/tsawler/officekit/outputs"
)

// Commands lists the officekit command paths the documents may use.
var Commands = []string{
	"recalc", "inventory", "replace", "thumbnail",
	"doctor", "serve", "render", "version",
	"xlsx", "xlsx recalc", "xlsx scan", "xlsx markdown",
	"pdf", "pdf text", "pdf tables", "pdf ocr", "pdf merge", "pdf split", "pdf extract", "pdf validate",
	"pptx", "pptx inventory", "pptx replace", "pptx thumbnail", "pptx markdown",
	"docx", "docx markdown", "docx convert",
	"skills", "skills list", "skills get", "skills lint",
}

// shellHelpers are commands examples may use besides the office tools.
var shellHelpers = map[string]bool{
	"apt-get": true, "apt": true, "brew": true, "npm": true, "npx": true,
	"mkdir": true, "cd": true, "ls": true, "cat": true,
}

var shellLangs = map[string]bool{"bash": true, "sh": true, "shell": true, "console": true}

var (
	outputPathRe = regexp.MustCompile("outputs/[^\\s`'\"()\\[\\],]*")
	linkRe       = regexp.MustCompile(`\]\(([^)\s]+)\)`)
)

// Issue is one lint finding.
type Issue struct {
	File    string `json:"file"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", i.File, i.Line, i.Message)
	}
	return i.File + ": " + i.Message
}

// LintOptions configures Lint.
type LintOptions struct {
	// Commands are the valid officekit command paths. Defaults to Commands.
	Commands []string

	// Tools are the external binaries examples may call. Defaults to the
	// binaries of office.Tools().
	Tools []string
}

// Lint checks the embedded documents: shell examples name known tools or
// officekit commands, README variants reference the same commands, paths
// and links, and example output folders are lowercase and hyphenated.
func Lint(opts LintOptions) ([]Issue, error) {
	return lint(docsFS, docsRoot, opts)
}

type linter struct {
	commands map[string]bool
	groups   map[string]bool
	tools    map[string]bool
	issues   []Issue
}

func newLinter(opts LintOptions) *linter {
	if opts.Commands == nil {
		opts.Commands = Commands
	}
	if opts.Tools == nil {
		for _, t := range office.Tools() {
			opts.Tools = append(opts.Tools, t.Binaries...)
		}
	}
	l := &linter{
		commands: make(map[string]bool),
		groups:   make(map[string]bool),
		tools:    make(map[string]bool),
	}
	for _, c := range opts.Commands {
		l.commands[c] = true
		if i := strings.IndexByte(c, ' '); i > 0 {
			l.groups[c[:i]] = true
		}
	}
	for _, t := range opts.Tools {
		l.tools[t] = true
	}
	return l
}

func (l *linter) report(file string, line int, format string, args ...any) {
	l.issues = append(l.issues, Issue{File: file, Line: line, Message: fmt.Sprintf(format, args...)})
}

func lint(fsys fs.FS, root string, opts LintOptions) ([]Issue, error) {
	l := newLinter(opts)

	var docs []string
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(p, ".md") {
			docs = append(docs, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(docs)

	facts := make(map[string]*readmeFacts)
	for _, p := range docs {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, err
		}
		rel := strings.TrimPrefix(p, root+"/")
		text := strings.ReplaceAll(string(data), "\r\n", "\n")

		l.checkCommands(rel, text)
		l.checkOutputPaths(rel, text)

		if path.Base(rel) == "SKILL.md" {
			l.checkSkill(rel, data)
		}
		if isREADME(rel) {
			facts[rel] = l.collectFacts(text)
		}
	}
	l.compareREADMEs(facts)
	return l.issues, nil
}

func isREADME(rel string) bool {
	return !strings.Contains(rel, "/") && strings.HasPrefix(rel, "README") && strings.HasSuffix(rel, ".md")
}

func (l *linter) checkSkill(rel string, data []byte) {
	s, err := Parse(data)
	if err != nil {
		l.report(rel, 1, "%v", err)
		return
	}
	if dir := path.Dir(rel); s.Name != dir {
		l.report(rel, 1, "skill name %q does not match its folder %q", s.Name, dir)
	}
}

type codeLine struct {
	line int
	text string
}

// shellLines returns the lines of shell-tagged fenced code blocks.
func shellLines(text string) []codeLine {
	var out []codeLine
	inBlock, shell := false, false
	for i, raw := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(raw)
		if strings.HasPrefix(trimmed, "```") {
			if inBlock {
				inBlock = false
			} else {
				inBlock = true
				shell = shellLangs[strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))]
			}
			continue
		}
		if inBlock && shell {
			out = append(out, codeLine{line: i + 1, text: trimmed})
		}
	}
	return out
}

// commandWords splits a shell line into simple commands, each reduced to
// its words with sudo and variable assignments removed.
func commandWords(line string) [][]string {
	line = strings.TrimPrefix(line, "$ ")
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	for _, sep := range []string{"&&", "||", ";"} {
		line = strings.ReplaceAll(line, sep, "|")
	}

	var out [][]string
	for _, seg := range strings.Split(line, "|") {
		words := strings.Fields(seg)
		for len(words) > 0 && (words[0] == "sudo" || (strings.Contains(words[0], "=") && !strings.HasPrefix(words[0], "-"))) {
			words = words[1:]
		}
		if len(words) > 0 {
			out = append(out, words)
		}
	}
	return out
}

// officekitCommand returns the command path invoked by an officekit
// command line, or an error naming what is wrong.
func (l *linter) officekitCommand(words []string) (string, error) {
	args := words[1:]
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "officekit", nil
	}
	if !l.commands[args[0]] {
		return "", fmt.Errorf("unknown officekit command %q", args[0])
	}
	if !l.groups[args[0]] {
		return "officekit " + args[0], nil
	}
	if len(args) < 2 || !l.commands[args[0]+" "+args[1]] {
		sub := ""
		if len(args) > 1 {
			sub = args[1]
		}
		return "", fmt.Errorf("unknown officekit %s subcommand %q", args[0], sub)
	}
	return "officekit " + args[0] + " " + args[1], nil
}

func (l *linter) checkCommands(rel, text string) {
	for _, cl := range shellLines(text) {
		for _, words := range commandWords(cl.text) {
			name := words[0]
			switch {
			case name == "officekit":
				if _, err := l.officekitCommand(words); err != nil {
					l.report(rel, cl.line, "%v", err)
				}
			case l.tools[name], shellHelpers[name]:
			default:
				l.report(rel, cl.line, "command %q is not a known tool", name)
			}
		}
	}
}

func (l *linter) checkOutputPaths(rel, text string) {
	for i, line := range strings.Split(text, "\n") {
		for _, p := range outputPathRe.FindAllString(line, -1) {
			p = strings.TrimRight(p, ".:;")
			segs := strings.Split(p, "/")[1:]
			if n := len(segs); n > 0 && strings.Contains(segs[n-1], ".") {
				segs = segs[:n-1]
			}
			for _, seg := range segs {
				if seg == "" || (strings.HasPrefix(seg, "<") && strings.HasSuffix(seg, ">")) {
					continue
				}
				if !outputs.IsSlug(seg) {
					l.report(rel, i+1, "output folder %q in %s is not lowercase and hyphenated", seg, p)
				}
			}
		}
	}
}

// readmeFacts are the references a README variant must share with the
// others.
type readmeFacts struct {
	commands map[string]bool
	paths    map[string]bool
	links    map[string]bool
}

func (l *linter) collectFacts(text string) *readmeFacts {
	f := &readmeFacts{
		commands: make(map[string]bool),
		paths:    make(map[string]bool),
		links:    make(map[string]bool),
	}
	for _, cl := range shellLines(text) {
		for _, words := range commandWords(cl.text) {
			f.commands[strings.Join(words, " ")] = true
		}
	}
	for _, p := range outputPathRe.FindAllString(text, -1) {
		f.paths[strings.TrimRight(p, ".:;")] = true
	}
	for _, m := range linkRe.FindAllStringSubmatch(text, -1) {
		if !isREADME(path.Base(m[1])) {
			f.links[m[1]] = true
		}
	}
	return f
}

func (l *linter) compareREADMEs(facts map[string]*readmeFacts) {
	base, ok := facts["README.md"]
	if !ok {
		if len(facts) > 0 {
			l.report("README.md", 0, "missing; other README variants exist")
		}
		return
	}

	var names []string
	for name := range facts {
		if name != "README.md" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		other := facts[name]
		diff := func(kind string, a, b map[string]bool) {
			for _, k := range sortedKeys(a) {
				if !b[k] {
					l.report(name, 0, "%s %q appears in README.md but not here", kind, k)
				}
			}
			for _, k := range sortedKeys(b) {
				if !a[k] {
					l.report(name, 0, "%s %q does not appear in README.md", kind, k)
				}
			}
		}
		diff("command", base.commands, other.commands)
		diff("output path", base.paths, other.paths)
		diff("link", base.links, other.links)
	}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
