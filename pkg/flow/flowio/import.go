// Package flowio reads and writes the flow input tables.
//
// Two on-disk forms are supported: a single JSON document containing both
// tables, and a pair of CSV files (one per table). Either way the result is a
// [flow.Dataset]; schema problems (missing required columns) surface as
// SCHEMA_ERROR and absent files as INPUT_MISSING, before any layout work.
package flowio

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"

	"github.com/mbertrand/alluvial/pkg/errors"
	"github.com/mbertrand/alluvial/pkg/flow"
)

// jsonNode mirrors flow.Node with pointer fields so that absent required
// columns are distinguishable from zero values.
type jsonNode struct {
	Time          *int     `json:"time"`
	Category      *int     `json:"category"`
	Size          *float64 `json:"size"`
	TimeLabel     string   `json:"time_label"`
	CategoryLabel string   `json:"category_label"`
}

type jsonLink struct {
	Time1     *int     `json:"time1"`
	Category1 *int     `json:"category1"`
	Time2     *int     `json:"time2"`
	Category2 *int     `json:"category2"`
	Thickness *float64 `json:"thickness"`
}

type jsonDataset struct {
	Nodes []jsonNode `json:"nodes"`
	Links []jsonLink `json:"links"`
}

// ReadJSON decodes a combined dataset document from r.
//
// The input must be a JSON object with "nodes" and "links" arrays:
//
//	{
//	  "nodes": [{"time": 1, "category": 1, "size": 10}],
//	  "links": [{"time1": 1, "category1": 1, "time2": 2, "category2": 1, "thickness": 8}]
//	}
//
// Each node requires time, category, and size; time_label and category_label
// are optional. Each link requires all five fields. A missing required field
// is reported as a SCHEMA_ERROR naming the row and column.
func ReadJSON(r io.Reader) (flow.Dataset, error) {
	var raw jsonDataset
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return flow.Dataset{}, errors.Wrap(errors.ErrCodeSchema, err, "decode dataset")
	}

	ds := flow.Dataset{
		Nodes: make([]flow.Node, 0, len(raw.Nodes)),
		Links: make([]flow.Link, 0, len(raw.Links)),
	}

	for i, n := range raw.Nodes {
		if n.Time == nil || n.Category == nil || n.Size == nil {
			return flow.Dataset{}, errors.New(errors.ErrCodeSchema,
				"node row %d: missing required column (time, category, size)", i)
		}
		ds.Nodes = append(ds.Nodes, flow.Node{
			Time:          *n.Time,
			Category:      *n.Category,
			Size:          *n.Size,
			TimeLabel:     n.TimeLabel,
			CategoryLabel: n.CategoryLabel,
		})
	}

	for i, l := range raw.Links {
		if l.Time1 == nil || l.Category1 == nil || l.Time2 == nil || l.Category2 == nil || l.Thickness == nil {
			return flow.Dataset{}, errors.New(errors.ErrCodeSchema,
				"link row %d: missing required column (time1, category1, time2, category2, thickness)", i)
		}
		ds.Links = append(ds.Links, flow.Link{
			Time1:     *l.Time1,
			Category1: *l.Category1,
			Time2:     *l.Time2,
			Category2: *l.Category2,
			Thickness: *l.Thickness,
		})
	}

	return ds, nil
}

// ImportJSON reads a combined dataset file at path.
// A missing file is reported as INPUT_MISSING.
func ImportJSON(path string) (flow.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return flow.Dataset{}, errors.Wrap(errors.ErrCodeInputMissing, err, "open %s", path)
	}
	defer f.Close()
	return ReadJSON(f)
}

// nodeColumns are the required CSV columns for the node table.
var nodeColumns = []string{"time", "category", "size"}

// linkColumns are the required CSV columns for the link table.
var linkColumns = []string{"time1", "category1", "time2", "category2", "thickness"}

// ImportCSV reads the node and link tables from two CSV files.
// The node file requires columns time, category, size (time_label and
// category_label optional); the link file requires time1, category1, time2,
// category2, thickness. Column order is free; matching is by header name.
func ImportCSV(nodesPath, linksPath string) (flow.Dataset, error) {
	nodes, err := readNodesCSV(nodesPath)
	if err != nil {
		return flow.Dataset{}, err
	}
	links, err := readLinksCSV(linksPath)
	if err != nil {
		return flow.Dataset{}, err
	}
	return flow.Dataset{Nodes: nodes, Links: links}, nil
}

func readNodesCSV(path string) ([]flow.Node, error) {
	rows, cols, err := readTable(path, nodeColumns)
	if err != nil {
		return nil, err
	}

	nodes := make([]flow.Node, 0, len(rows))
	for i, row := range rows {
		n := flow.Node{}
		if n.Time, err = intField(row, cols, "time", path, i); err != nil {
			return nil, err
		}
		if n.Category, err = intField(row, cols, "category", path, i); err != nil {
			return nil, err
		}
		if n.Size, err = floatField(row, cols, "size", path, i); err != nil {
			return nil, err
		}
		if c, ok := cols["time_label"]; ok {
			n.TimeLabel = row[c]
		}
		if c, ok := cols["category_label"]; ok {
			n.CategoryLabel = row[c]
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func readLinksCSV(path string) ([]flow.Link, error) {
	rows, cols, err := readTable(path, linkColumns)
	if err != nil {
		return nil, err
	}

	links := make([]flow.Link, 0, len(rows))
	for i, row := range rows {
		l := flow.Link{}
		if l.Time1, err = intField(row, cols, "time1", path, i); err != nil {
			return nil, err
		}
		if l.Category1, err = intField(row, cols, "category1", path, i); err != nil {
			return nil, err
		}
		if l.Time2, err = intField(row, cols, "time2", path, i); err != nil {
			return nil, err
		}
		if l.Category2, err = intField(row, cols, "category2", path, i); err != nil {
			return nil, err
		}
		if l.Thickness, err = floatField(row, cols, "thickness", path, i); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, nil
}

// readTable reads a CSV file and verifies that all required columns exist in
// the header. It returns the data rows and a column-name→index map.
func readTable(path string, required []string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInputMissing, err, "open %s", path)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeSchema, err, "read %s", path)
	}
	if len(records) == 0 {
		return nil, nil, errors.New(errors.ErrCodeSchema, "%s: missing header row", path)
	}

	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		cols[name] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, nil, errors.New(errors.ErrCodeSchema, "%s: missing required column %q", path, name)
		}
	}
	return records[1:], cols, nil
}

func intField(row []string, cols map[string]int, name, path string, rowIdx int) (int, error) {
	v, err := strconv.Atoi(row[cols[name]])
	if err != nil {
		return 0, errors.New(errors.ErrCodeSchema, "%s row %d: column %q: %v", path, rowIdx+1, name, err)
	}
	return v, nil
}

func floatField(row []string, cols map[string]int, name, path string, rowIdx int) (float64, error) {
	v, err := strconv.ParseFloat(row[cols[name]], 64)
	if err != nil {
		return 0, errors.New(errors.ErrCodeSchema, "%s row %d: column %q: %v", path, rowIdx+1, name, err)
	}
	return v, nil
}

// Import loads a dataset from either a combined JSON file or a CSV pair.
// Exactly one of jsonPath or the nodes/links pair must be supplied.
func Import(jsonPath, nodesPath, linksPath string) (flow.Dataset, error) {
	switch {
	case jsonPath != "" && (nodesPath != "" || linksPath != ""):
		return flow.Dataset{}, errors.New(errors.ErrCodeInvalidInput,
			"supply either a combined JSON file or a CSV pair, not both")
	case jsonPath != "":
		return ImportJSON(jsonPath)
	case nodesPath != "" && linksPath != "":
		return ImportCSV(nodesPath, linksPath)
	case nodesPath != "" || linksPath != "":
		return flow.Dataset{}, errors.New(errors.ErrCodeInputMissing,
			"CSV input requires both --nodes and --links")
	default:
		return flow.Dataset{}, errors.New(errors.ErrCodeInputMissing, "no input tables supplied")
	}
}
