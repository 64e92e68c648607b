package eda

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// HeadRows is the number of rows Report prints
const HeadRows = 10

// Report writes the diagnostics: head, column info, shape, distance range,
// missing values, invalid speeds and the value counts of the given columns.
func Report(ctx context.Context, w io.Writer, p *Profile, valueCountColumns ...string) error {
	if err := WriteHead(ctx, w, p, HeadRows); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nColumns:\n")
	table := newTable(w)
	table.SetHeader([]string{"#", "Column", "Non-Null Count", "Dtype"})
	for i, c := range p.ColumnStats {
		table.Append([]string{strconv.Itoa(i), c.Name, fmt.Sprintf("%d non-null", c.NonNull), string(c.Kind)})
	}
	table.Render()

	fmt.Fprintf(w, "\nShape: (%d, %d)\n", p.Rows, p.Columns)
	fmt.Fprintf(w, "Distance km max: %v, min: %v\n", p.MaxDistance, p.MinDistance)

	fmt.Fprintf(w, "\nMissing values:\n")
	table = newTable(w)
	table.SetHeader([]string{"Column", "Missing"})
	for _, c := range p.ColumnStats {
		table.Append([]string{c.Name, strconv.Itoa(c.Missing)})
	}
	table.Render()

	fmt.Fprintf(w, "\nRows with average speed <= 0: %d\n", p.InvalidSpeeds)

	for _, column := range valueCountColumns {
		counts, err := p.ValueCounts(ctx, column)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\nValue counts of %s:\n", column)
		table = newTable(w)
		table.SetHeader([]string{column, "count"})
		for _, vc := range counts {
			table.Append([]string{vc.Value, strconv.Itoa(vc.Count)})
		}
		table.Render()
	}
	return nil
}

// WriteHead prints the first n rows as a table
func WriteHead(ctx context.Context, w io.Writer, p *Profile, n int) error {
	head, err := p.Head(ctx, n)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "First %d rows:\n", len(head))
	table := newTable(w)
	table.SetHeader(p.header)
	table.AppendBulk(head)
	table.Render()
	return nil
}

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	return table
}
