// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Command docgen renders docs/commands/<cmd>.md into a man page
// (docs/man/share/man1/toolman-<cmd>.1) and a tldr page
// (docs/tldr/toolman-<cmd>.md). With -check it writes nothing and fails when
// any rendered page differs from what is on disk.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/template"

	md2man "github.com/cpuguy83/go-md2man/v2/md2man"
)

const (
	binName = "toolman"
	repoURL = "https://github.com/staranto/toolman"
)

func main() {
	root := flag.String("root", ".", "repository root")
	check := flag.Bool("check", false, "report stale pages instead of writing them")
	flag.Parse()

	stale, err := generate(*root, *check)
	if err != nil {
		fmt.Fprintln(os.Stderr, "docgen:", err)
		os.Exit(1)
	}
	if *check && len(stale) > 0 {
		fmt.Fprintln(os.Stderr, "docgen: stale pages, rerun without -check:")
		for _, p := range stale {
			fmt.Fprintln(os.Stderr, "  "+p)
		}
		os.Exit(1)
	}
}

// page is one rendered output file.
type page struct {
	path string
	body []byte
}

// generate renders every command doc under root. It returns the pages whose
// content changed; in check mode those pages are not written.
func generate(root string, check bool) ([]string, error) {
	src := filepath.Join(root, "docs", "commands")
	names, err := filepath.Glob(filepath.Join(src, "*.md"))
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no command docs under %s", src)
	}
	slices.Sort(names)

	var pages []page
	for _, name := range names {
		raw, err := os.ReadFile(name)
		if err != nil {
			return nil, err
		}
		cmd := strings.TrimSuffix(filepath.Base(name), ".md")
		doc := parseDoc(cmd, string(raw))

		tldr, err := doc.tldr()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cmd, err)
		}
		pages = append(pages,
			page{path: filepath.Join(root, "docs", "man", "share", "man1", binName+"-"+cmd+".1"), body: md2man.Render(raw)},
			page{path: filepath.Join(root, "docs", "tldr", binName+"-"+cmd+".md"), body: tldr},
		)
	}

	var stale []string
	for _, p := range pages {
		same, err := unchanged(p)
		if err != nil {
			return nil, err
		}
		if same {
			continue
		}
		stale = append(stale, p.path)
		if check {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(p.path, p.body, 0o644); err != nil { //nolint:gosec
			return nil, err
		}
	}
	return stale, nil
}

// unchanged ignores leading and trailing whitespace.
func unchanged(p page) (bool, error) {
	old, err := os.ReadFile(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return bytes.Equal(bytes.TrimSpace(old), bytes.TrimSpace(p.body)), nil
}

type example struct {
	Desc string
	Cmd  string
}

// commandDoc is what the tldr page needs from a command's markdown.
type commandDoc struct {
	Bin      string
	Name     string
	Title    string
	Short    string
	URL      string
	Examples []example
}

// parseDoc reads the H1 title, the "Short description:" text and the fenced
// code of "Quick examples:". Sections are introduced by a line ending in ':'.
func parseDoc(name, md string) commandDoc {
	doc := commandDoc{Bin: binName, Name: name, URL: repoURL}
	sections := map[string][]string{}
	code := map[string][]string{}
	current := ""
	inFence := false

	for _, line := range strings.Split(strings.ReplaceAll(md, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "```"):
			inFence = !inFence
			continue
		case inFence:
			code[current] = append(code[current], line)
			continue
		case doc.Title == "" && strings.HasPrefix(trimmed, "# "):
			doc.Title = strings.TrimSpace(trimmed[2:])
			continue
		case strings.HasSuffix(trimmed, ":") && !strings.HasPrefix(trimmed, "-"):
			current = strings.ToLower(strings.TrimSuffix(trimmed, ":"))
			continue
		}
		if current != "" {
			sections[current] = append(sections[current], line)
		}
	}

	doc.Short = firstParagraph(sections["short description"])
	if doc.Short == "" && doc.Title != "" {
		doc.Short = doc.Title + "."
	}
	doc.Examples = examples(code["quick examples"])
	return doc
}

func firstParagraph(lines []string) string {
	var words []string
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			if len(words) > 0 {
				break
			}
			continue
		}
		words = append(words, strings.Fields(l)...)
	}
	return strings.Join(words, " ")
}

// examples pairs each command line with the '#' comment above it. A command
// with no comment gets a generic description.
func examples(lines []string) []example {
	var out []example
	desc := ""
	for _, l := range lines {
		l = strings.TrimSpace(l)
		switch {
		case l == "":
		case strings.HasPrefix(l, "#"):
			desc = strings.TrimSpace(strings.TrimLeft(l, "#"))
		default:
			if desc == "" {
				desc = "Example"
			}
			out = append(out, example{Desc: desc, Cmd: strings.Join(strings.Fields(l), " ")})
			desc = ""
		}
	}
	return out
}

var tldrTmpl = template.Must(template.New("tldr").Parse(`# {{.Bin}}-{{.Name}}

> {{with .Short}}{{.}}{{else}}{{.Bin}} {{.Name}}{{end}}
> More information: {{.URL}}.
{{range .Examples}}
- {{.Desc}}:

` + "`{{.Cmd}}`" + `
{{else}}
- Show help for the command:

` + "`{{.Bin}} {{.Name}} --help`" + `
{{end}}`))

func (d commandDoc) tldr() ([]byte, error) {
	var b bytes.Buffer
	if err := tldrTmpl.Execute(&b, d); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
