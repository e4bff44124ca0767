package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"rxgen/internal/diag"
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow)
	infoColor = color.New(color.FgCyan)
	posColor  = color.New(color.Faint)
)

func severityColor(s diag.Severity) *color.Color {
	switch s {
	case diag.Error:
		return errColor
	case diag.Warning:
		return warnColor
	}
	return infoColor
}

// printDiagnostics renders the diagnostic list for the terminal, one
// finding per line, fix hints indented below.
func printDiagnostics(w io.Writer, diags []diag.Diagnostic) {
	for _, d := range diags {
		if d.Pos.Filename != "" {
			posColor.Fprintf(w, "%s: ", d.Pos)
		}
		severityColor(d.Severity).Fprintf(w, "%s %s", d.Severity, d.Code)
		fmt.Fprintf(w, ": %s\n", d.Message())
		for _, hint := range d.FixHints {
			fmt.Fprintf(w, "    hint: %s\n", hint)
		}
	}
}

// summarize renders the "2 errors, 1 warning" trailer.
func summarize(diags []diag.Diagnostic) string {
	var errs, warns int
	for _, d := range diags {
		switch d.Severity {
		case diag.Error:
			errs++
		case diag.Warning:
			warns++
		}
	}
	if errs == 0 && warns == 0 {
		return "no problems"
	}
	return fmt.Sprintf("%d errors, %d warnings", errs, warns)
}

// reportEntry is one diagnostic in the YAML report.
type reportEntry struct {
	Code     string `yaml:"code"`
	Severity string `yaml:"severity"`
	File     string `yaml:"file,omitempty"`
	Line     int    `yaml:"line,omitempty"`
	Column   int    `yaml:"column,omitempty"`
	Message  string `yaml:"message"`
}

// report is the machine-readable check artifact.
type report struct {
	Errors      int           `yaml:"errors"`
	Warnings    int           `yaml:"warnings"`
	Diagnostics []reportEntry `yaml:"diagnostics"`
}

func writeReport(path string, diags []diag.Diagnostic) error {
	r := report{Diagnostics: []reportEntry{}}
	for _, d := range diags {
		switch d.Severity {
		case diag.Error:
			r.Errors++
		case diag.Warning:
			r.Warnings++
		}
		r.Diagnostics = append(r.Diagnostics, reportEntry{
			Code:     string(d.Code),
			Severity: d.Severity.String(),
			File:     d.Pos.Filename,
			Line:     d.Pos.Line,
			Column:   d.Pos.Column,
			Message:  d.Message(),
		})
	}
	data, err := yaml.Marshal(&r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
