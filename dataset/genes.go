package dataset

import (
	"io"
	"strings"
)

// GeneInfo maps an expression column to its external database entry.
type GeneInfo struct {
	Column    string
	Accession string
	Title     string
}

// GeneTable indexes GeneInfo by expression column name.
type GeneTable struct {
	Genes []GeneInfo

	pos map[string]int
}

// ReadGeneTable parses the gene identifier table: column name, accession,
// then title. Extra fields are ignored.
func ReadGeneTable(r io.Reader, opts ReadOptions) (*GeneTable, error) {
	t, err := readTable(r, opts)
	if err != nil {
		return nil, err
	}
	genes := make([]GeneInfo, len(t.ids))
	for i, rec := range t.cells {
		g := GeneInfo{Column: t.ids[i], Accession: strings.TrimSpace(rec[0])}
		if len(rec) > 1 {
			g.Title = strings.TrimSpace(rec[1])
		}
		genes[i] = g
	}
	return NewGeneTable(genes), nil
}

// NewGeneTable builds a GeneTable from records.
func NewGeneTable(genes []GeneInfo) *GeneTable {
	pos := make(map[string]int, len(genes))
	for i, g := range genes {
		pos[g.Column] = i
	}
	return &GeneTable{Genes: genes, pos: pos}
}

// Lookup returns the entry for an expression column.
func (g *GeneTable) Lookup(column string) (GeneInfo, bool) {
	if g == nil {
		return GeneInfo{}, false
	}
	i, ok := g.pos[column]
	if !ok {
		return GeneInfo{}, false
	}
	return g.Genes[i], true
}

// Describe returns "accession title" for column, or the column itself when
// it is not in the table.
func (g *GeneTable) Describe(column string) string {
	info, ok := g.Lookup(column)
	if !ok {
		return column
	}
	if info.Title == "" {
		return info.Accession
	}
	return info.Accession + " " + info.Title
}

// Len returns the number of genes.
func (g *GeneTable) Len() int { return len(g.Genes) }
