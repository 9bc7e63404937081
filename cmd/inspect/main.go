// Command inspect dumps the discovered schema of one report workbook as
// JSON: the overheader reference dates and the retained signal columns per
// sheet. When a report drifts, running inspect against the offending file
// shows exactly which headers stopped matching.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"cprcli/internal/report"
	"cprcli/pkg/contracts/domain"
)

// sheetSchema is the discovered layout of one sheet, or the reason
// discovery failed there.
type sheetSchema struct {
	Name           string                            `json:"name"`
	Level          string                            `json:"level"`
	ReferenceDates map[string]report.ReferenceDates `json:"reference_dates,omitempty"`
	Columns        map[domain.Signal][]columnSchema `json:"columns,omitempty"`
	Error          string                            `json:"error,omitempty"`
}

type columnSchema struct {
	Header   string `json:"header"`
	Category string `json:"category"`
	Position int    `json:"position"`
}

type schemaDoc struct {
	Filename    string        `json:"filename"`
	PublishDate string        `json:"publish_date"`
	Sheets      []sheetSchema `json:"sheets"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "inspect:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(out)
	file := fs.String("file", "", "path of the report workbook to inspect (required)")
	publish := fs.String("publish", "", "publish date YYYY-MM-DD (default: derived from the filename)")
	sheet := fs.String("sheet", "", "inspect a single sheet (default: all configured sheets)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("-file is required")
	}

	publishDate, err := resolvePublishDate(*file, *publish)
	if err != nil {
		return err
	}

	specs := report.Sheets()
	if *sheet != "" {
		spec, ok := report.SheetByName(*sheet)
		if !ok {
			return fmt.Errorf("no configured sheet named %q", *sheet)
		}
		specs = []report.SheetSpec{spec}
	}

	doc, err := inspect(*file, publishDate, specs)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func resolvePublishDate(file, publish string) (time.Time, error) {
	if publish != "" {
		d, err := time.Parse("2006-01-02", publish)
		if err != nil {
			return time.Time{}, fmt.Errorf("bad -publish date %q: %w", publish, err)
		}
		return d, nil
	}
	return report.ParsePublishDate(filepath.Base(file))
}

// inspect discovers the schema of every given sheet. Per-sheet failures
// land in the output document instead of aborting: a drifted sheet is
// exactly what the operator came to see.
func inspect(path string, publishDate time.Time, specs []report.SheetSpec) (*schemaDoc, error) {
	w, err := report.OpenWorkbook(path)
	if err != nil {
		return nil, err
	}
	defer w.Close()

	doc := &schemaDoc{
		Filename:    filepath.Base(path),
		PublishDate: publishDate.Format("2006-01-02"),
	}

	for _, spec := range specs {
		doc.Sheets = append(doc.Sheets, inspectSheet(w, spec, publishDate))
	}
	return doc, nil
}

func inspectSheet(w *report.Workbook, spec report.SheetSpec, publishDate time.Time) sheetSchema {
	schema := sheetSchema{Name: spec.Name, Level: spec.Level}

	raw, err := w.ReadSheet(spec.Name)
	if err != nil {
		schema.Error = err.Error()
		return schema
	}

	times, err := report.ClassifyOverheaders(spec.Name, raw.Overheaders, publishDate)
	if err != nil {
		schema.Error = err.Error()
		return schema
	}
	schema.ReferenceDates = times

	selections, err := report.SelectColumns(raw.Data.Headers, domain.Signals())
	if err != nil {
		schema.Error = err.Error()
		return schema
	}

	schema.Columns = make(map[domain.Signal][]columnSchema, len(selections))
	for sig, sels := range selections {
		cols := make([]columnSchema, len(sels))
		for i, sel := range sels {
			cols[i] = columnSchema{Header: sel.Header, Category: sel.Category, Position: sel.Position}
		}
		schema.Columns[sig] = cols
	}
	return schema
}
