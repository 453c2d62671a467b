// Package votable reads and writes the small subset of the IVOA VOTable
// format the pipeline exchanges with the source finder and the archive:
// one RESOURCE with TABLEDATA-serialised tables, INFO and PARAM entries.
package votable

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
)

// VOTable is the document root.
type VOTable struct {
	XMLName   xml.Name   `xml:"VOTABLE"`
	Version   string     `xml:"version,attr,omitempty"`
	Resources []Resource `xml:"RESOURCE"`
}

// Resource groups tables. Query services mark their payload with
// type="results".
type Resource struct {
	Type   string  `xml:"type,attr,omitempty"`
	Infos  []Info  `xml:"INFO"`
	Tables []Table `xml:"TABLE"`
}

// Info is a named scalar annotation on a resource or table.
type Info struct {
	ID    string `xml:"ID,attr,omitempty"`
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// Param is a named constant column.
type Param struct {
	Name     string `xml:"name,attr"`
	Datatype string `xml:"datatype,attr,omitempty"`
	Value    string `xml:"value,attr"`
}

// Field describes one column of a table.
type Field struct {
	ID          string `xml:"ID,attr,omitempty"`
	Name        string `xml:"name,attr"`
	Datatype    string `xml:"datatype,attr,omitempty"`
	Unit        string `xml:"unit,attr,omitempty"`
	UCD         string `xml:"ucd,attr,omitempty"`
	ArraySize   string `xml:"arraysize,attr,omitempty"`
	Description string `xml:"DESCRIPTION,omitempty"`
}

// Table is one table of a resource.
type Table struct {
	ID     string  `xml:"ID,attr,omitempty"`
	Name   string  `xml:"name,attr,omitempty"`
	Params []Param `xml:"PARAM"`
	Fields []Field `xml:"FIELD"`
	Data   Data    `xml:"DATA"`
}

// Data wraps the TABLEDATA serialisation.
type Data struct {
	TableData TableData `xml:"TABLEDATA"`
}

// TableData holds the rows.
type TableData struct {
	Rows []Row `xml:"TR"`
}

// Row is one table row of text cells.
type Row struct {
	Cells []string `xml:"TD"`
}

// Parse reads a VOTable document.
func Parse(r io.Reader) (*VOTable, error) {
	var vot VOTable
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&vot); err != nil {
		return nil, fmt.Errorf("cannot parse votable: %w", err)
	}
	return &vot, nil
}

// ParseFile reads a VOTable document from a file.
func ParseFile(path string) (*VOTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	vot, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return vot, nil
}

// FirstTable returns the first table of the document, preferring a
// resource marked type="results" the way TAP services respond.
func (v *VOTable) FirstTable() (*Table, error) {
	for i := range v.Resources {
		res := &v.Resources[i]
		if res.Type == "results" && len(res.Tables) > 0 {
			return &res.Tables[0], nil
		}
	}
	for i := range v.Resources {
		if len(v.Resources[i].Tables) > 0 {
			return &v.Resources[i].Tables[0], nil
		}
	}
	return nil, fmt.Errorf("votable has no tables")
}

// Info returns the value of a named INFO entry from any resource.
func (v *VOTable) Info(name string) (string, bool) {
	for _, res := range v.Resources {
		for _, info := range res.Infos {
			if info.Name == name {
				return info.Value, true
			}
		}
	}
	return "", false
}

// FieldIndex returns the position of a named column, or -1.
func (t *Table) FieldIndex(name string) int {
	for i, f := range t.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Param returns the value of a named PARAM entry.
func (t *Table) Param(name string) (string, bool) {
	for _, p := range t.Params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int {
	return len(t.Data.TableData.Rows)
}

// Strings extracts a column as strings. Missing cells become empty
// strings so ragged rows from lenient writers do not abort a read.
func (t *Table) Strings(name string) ([]string, error) {
	idx := t.FieldIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("votable has no column %q", name)
	}
	res := make([]string, 0, t.NumRows())
	for _, row := range t.Data.TableData.Rows {
		if idx < len(row.Cells) {
			res = append(res, row.Cells[idx])
		} else {
			res = append(res, "")
		}
	}
	return res, nil
}

// Floats extracts a column as float64 values. Empty cells parse as 0.
func (t *Table) Floats(name string) ([]float64, error) {
	cells, err := t.Strings(name)
	if err != nil {
		return nil, err
	}
	res := make([]float64, len(cells))
	for i, c := range cells {
		if c == "" {
			continue
		}
		v, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", name, i, err)
		}
		res[i] = v
	}
	return res, nil
}

// AddRow appends a row, formatting each value with FormatValue.
func (t *Table) AddRow(values ...any) {
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = FormatValue(v)
	}
	t.Data.TableData.Rows = append(t.Data.TableData.Rows, Row{Cells: cells})
}

// FormatValue renders a cell value the way the rest of the pipeline
// expects to parse it back.
func FormatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Write serialises the document with an XML header.
func (v *VOTable) Write(w io.Writer) error {
	if v.Version == "" {
		v.Version = "1.3"
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("cannot encode votable: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteFile serialises the document to a file.
func (v *VOTable) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return v.Write(f)
}

// New wraps a single table into a results resource with the given INFO
// entries, ready for writing.
func New(table Table, infos ...Info) *VOTable {
	return &VOTable{
		Version: "1.3",
		Resources: []Resource{
			{Type: "results", Infos: infos, Tables: []Table{table}},
		},
	}
}
