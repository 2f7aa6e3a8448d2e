// Package console renders research results and run traces on a terminal.
package console

import (
	"errors"
	"fmt"
	"io"
	"strings"

	research "github.com/IronClad1607/research-agent"
	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	json "github.com/goccy/go-json"
	"github.com/k0kubun/pp/v3"
)

type Format string

const (
	Pretty Format = "pretty"
	JSON   Format = "json"
	PP     Format = "pp"
)

// ParseFormat accepts a format name in any case. The empty string selects
// Pretty.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case Pretty, JSON, PP:
		return f, nil
	case "":
		return Pretty, nil
	default:
		return "", fmt.Errorf("unknown format %q: want %q, %q or %q", s, Pretty, JSON, PP)
	}
}

// Printer writes results to w in one format.
type Printer struct {
	w      io.Writer
	format Format
	glam   *glamour.TermRenderer
	pp     *pp.PrettyPrinter
}

func NewPrinter(w io.Writer, format Format) (*Printer, error) {
	p := &Printer{w: w, format: format}
	switch format {
	case Pretty:
		glam, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err != nil {
			return nil, fmt.Errorf("markdown renderer: %w", err)
		}
		p.glam = glam
	case PP:
		p.pp = pp.New()
		p.pp.SetOutput(w)
		p.pp.SetColoringEnabled(!color.NoColor)
	case JSON:
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	return p, nil
}

// Result prints the parsed response of r. The pretty format also points out
// tools that ran but are missing from tools_used.
func (p *Printer) Result(r research.Result) error {
	switch p.format {
	case JSON:
		b, err := json.MarshalIndent(r.Response, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(p.w, string(b))
		return err
	case PP:
		_, err := p.pp.Println(r.Response)
		return err
	}

	resp := r.Response
	summary := resp.Summary
	if out, err := p.glam.Render(resp.Summary); err == nil {
		summary = strings.TrimRight(out, "\n")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", color.CyanString("Topic:"), resp.Topic)
	fmt.Fprintf(&b, "%s\n%s\n", color.CyanString("Summary:"), summary)
	fmt.Fprintln(&b, color.CyanString("Sources:"))
	if len(resp.Sources) == 0 {
		fmt.Fprintln(&b, "  (none)")
	}
	for _, src := range resp.Sources {
		fmt.Fprintf(&b, "  - %s\n", src)
	}
	fmt.Fprintf(&b, "%s %s\n", color.CyanString("Tools used:"), strings.Join(resp.ToolsUsed, ", "))
	if missing := r.UnreportedTools(); len(missing) > 0 {
		fmt.Fprintf(&b, "%s %s\n", color.YellowString("Also ran:"), strings.Join(missing, ", "))
	}
	_, err := io.WriteString(p.w, b.String())
	return err
}

// ParseFailure prints why the reply could not be parsed, followed by the
// reply itself.
func (p *Printer) ParseFailure(raw string, err error) error {
	cause := err
	var perr *research.ParseError
	if errors.As(err, &perr) && perr.Cause != nil {
		cause = perr.Cause
	}
	_, werr := fmt.Fprintf(p.w, "%s %v\n%s %s\n",
		color.RedString("Error parsing response:"), cause,
		color.RedString("Raw response:"), raw,
	)
	return werr
}
