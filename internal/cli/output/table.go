package output

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// TableRenderer is implemented by results that can render themselves as a
// table.
type TableRenderer interface {
	// Headers returns the column headers.
	Headers() []string
	// Rows returns the data rows.
	Rows() [][]string
}

// newTable configures a borderless, left-aligned tablewriter.
func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}

// PrintTable writes data as a borderless table to w.
func PrintTable(w io.Writer, data TableRenderer) error {
	table := newTable(w)
	table.SetHeader(data.Headers())
	for _, row := range data.Rows() {
		table.Append(row)
	}
	table.Render()
	return nil
}

// KV is an ordered key-value listing, the shape most status panes take.
type KV struct {
	pairs [][2]string
}

// NewKV creates an empty key-value listing.
func NewKV() *KV {
	return &KV{}
}

// Add appends one key-value pair, preserving insertion order.
func (kv *KV) Add(key, value string) *KV {
	kv.pairs = append(kv.pairs, [2]string{key, value})
	return kv
}

// Render writes the listing as a two-column table without headers.
func (kv *KV) Render(w io.Writer) error {
	table := newTable(w)
	table.SetAutoFormatHeaders(false)
	table.SetColumnSeparator(":")
	for _, pair := range kv.pairs {
		table.Append([]string{pair[0], pair[1]})
	}
	table.Render()
	return nil
}
