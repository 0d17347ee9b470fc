// Package export renders win-rate tables as CSV or XLSX artifacts.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/raceform/raceform-cli/internal/stats"
)

// header columns of every exported table.
var header = []string{"", "runs", "wins", "win_rate"}

// WriteCSV writes one grouping table as CSV. The first header cell carries
// the grouping attribute name.
func WriteCSV(w io.Writer, table *stats.Table) error {
	cw := csv.NewWriter(w)

	head := append([]string{table.Attr}, header[1:]...)
	if err := cw.Write(head); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, g := range table.Groups {
		rec := []string{
			g.Key,
			strconv.Itoa(g.Runs),
			strconv.Itoa(g.Wins),
			strconv.FormatFloat(g.Rate, 'f', 4, 64),
		}
		if err := cw.Write(rec); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteXLSX writes one or more grouping tables to an XLSX workbook, one
// sheet per table, named after the grouping attribute.
func WriteXLSX(path string, tables ...*stats.Table) error {
	f := xlsx.NewFile()

	for _, table := range tables {
		sheet, err := f.AddSheet(table.Attr)
		if err != nil {
			return eris.Wrapf(err, "export: add sheet %s", table.Attr)
		}

		head := sheet.AddRow()
		head.AddCell().Value = table.Attr
		for _, h := range header[1:] {
			head.AddCell().Value = h
		}

		for _, g := range table.Groups {
			row := sheet.AddRow()
			row.AddCell().Value = g.Key
			row.AddCell().SetInt(g.Runs)
			row.AddCell().SetInt(g.Wins)
			row.AddCell().SetFloat(g.Rate)
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}
