package report

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/access-cli/internal/model"
)

// Workbook sheet names.
const (
	SheetResults = "results"
	SheetTop     = "top"
	SheetBottom  = "bottom"
)

// WriteXLSX writes a workbook with every region on the results sheet and
// the top-n and bottom-n regions on their own sheets.
func WriteXLSX(w io.Writer, regions []model.AggregatedRegion, byCategory bool, n int) error {
	f := xlsx.NewFile()

	sheets := []struct {
		name string
		rows []model.AggregatedRegion
	}{
		{SheetResults, regions},
		{SheetTop, TopN(regions, n)},
		{SheetBottom, BottomN(regions, n)},
	}
	for _, s := range sheets {
		sheet, err := f.AddSheet(s.name)
		if err != nil {
			return eris.Wrapf(err, "report: add sheet %s", s.name)
		}
		writeSheet(sheet, s.rows, byCategory)
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "report: write xlsx")
	}
	return nil
}

func writeSheet(sheet *xlsx.Sheet, regions []model.AggregatedRegion, byCategory bool) {
	header := sheet.AddRow()
	for _, h := range Header(byCategory) {
		header.AddCell().SetString(h)
	}

	for _, r := range regions {
		row := sheet.AddRow()
		row.AddCell().SetString(r.RegionKey)
		row.AddCell().SetString(r.RegionName)
		row.AddCell().SetFloat(r.Households)
		row.AddCell().SetFloat(r.Ratio)
		row.AddCell().SetInt(r.FacilityCount)
		row.AddCell().SetFloat(r.FacilityRate)
		row.AddCell().SetFloat(r.RatioZ)
		row.AddCell().SetFloat(r.RateZ)
		row.AddCell().SetFloat(r.Composite)
		row.AddCell().SetFloat(r.Score)
		row.AddCell().SetString(string(r.MatchMethod))
		if byCategory {
			for _, c := range model.Categories {
				row.AddCell().SetInt(r.FacilityCounts[c])
			}
		}
	}
}
