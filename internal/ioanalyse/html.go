package ioanalyse

import (
	"fmt"
	"os"
	"strings"
)

// htmlIndex accumulates the day's spectrum preview page.
type htmlIndex struct {
	sb strings.Builder
}

// htmlRow is one spectrum entry of the index.
type htmlRow struct {
	Name     string
	Long     float64
	PeakFlux float64
	Mean     float64
	ContSD   float64
	PlotFile string
	EmFile   string
}

func newHTMLIndex(dayID string) *htmlIndex {
	idx := &htmlIndex{}
	fmt.Fprintf(&idx.sb,
		"<html>\n<head><title>D%s Spectra</title></head>\n"+
			"<body>\n<h1>Spectra previews for day %s</h1>\n<table>\n",
		dayID, dayID)
	return idx
}

// StartField opens a field section.
func (idx *htmlIndex) StartField(field string) {
	fmt.Fprintf(&idx.sb,
		"<tr><td colspan=4><b>Field: %s</b></td></tr>\n"+
			"<tr><td>Image Name</td><td>Details</td>"+
			"<td>Absorption</td><td>Emission</td></tr>\n",
		field)
}

// AddSpectrum appends one spectrum row.
func (idx *htmlIndex) AddSpectrum(row htmlRow) {
	em := "&nbsp;"
	if row.EmFile != "" {
		em = fmt.Sprintf(`<a href="%s"><img src="%s" width="500px"></a>`,
			row.EmFile, row.EmFile)
	}
	fmt.Fprintf(&idx.sb,
		"<tr><td>%s</td>"+
			"<td>%s<br/>l:&nbsp;%.5f<br/>Peak:&nbsp;%v&nbsp;Jy<br/>"+
			"Mean:&nbsp;%v&nbsp;Jy<br/>Cont&nbsp;SD:&nbsp;%v</td>"+
			`<td><a href="%s"><img src="%s" width="500px"></a></td>`+
			"<td>%s</td></tr>\n",
		row.PlotFile, row.Name, row.Long, row.PeakFlux, row.Mean,
		row.ContSD, row.PlotFile, row.PlotFile, em)
}

// WriteFile closes the page and writes it out.
func (idx *htmlIndex) WriteFile(path string) error {
	idx.sb.WriteString("</table></body></html>\n")
	return os.WriteFile(path, []byte(idx.sb.String()), 0644)
}
