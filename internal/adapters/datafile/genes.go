// Package datafile reads datasets from disk: tab-separated gene tables and
// YAML manifests that group several tables into one dataset.
package datafile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/corey/gbsearch/internal/ports"
)

// Gene table columns, in file order. Common name and gene type are optional.
const (
	colSeqID = iota
	colStrand
	colStart
	colEnd
	colName
	colCommonName
	colGeneType

	minColumns = colName + 1
)

// ReadGeneTable parses a tab-separated gene table:
//
//	seqId  strand  start  end  name  [common_name  [gene_type]]
//
// Blank lines and lines starting with '#' are skipped, as is a first row
// whose start column is not a number (a header). Errors name the line.
func ReadGeneTable(r io.Reader) ([]ports.Feature, error) {
	var features []ports.Feature
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	seenRow := false
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		first := !seenRow
		seenRow = true
		if first && len(fields) > colStart && !isInt(fields[colStart]) {
			continue
		}
		if len(fields) < minColumns {
			return nil, fmt.Errorf("line %d: expected at least %d tab-separated columns, got %d", lineNo, minColumns, len(fields))
		}

		start, err := strconv.Atoi(strings.TrimSpace(fields[colStart]))
		if err != nil {
			return nil, fmt.Errorf("line %d: bad start %q", lineNo, fields[colStart])
		}
		end, err := strconv.Atoi(strings.TrimSpace(fields[colEnd]))
		if err != nil {
			return nil, fmt.Errorf("line %d: bad end %q", lineNo, fields[colEnd])
		}

		var commonName, geneType string
		if len(fields) > colCommonName {
			commonName = strings.TrimSpace(fields[colCommonName])
		}
		if len(fields) > colGeneType {
			geneType = fields[colGeneType]
		}

		features = append(features, ports.NewGeneFeature(
			strings.TrimSpace(fields[colSeqID]),
			ports.ParseStrand(fields[colStrand]),
			start, end,
			strings.TrimSpace(fields[colName]),
			commonName,
			ports.ParseGeneType(geneType),
		))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
	}
	return features, nil
}

// ReadGeneFile reads a single gene table into a dataset named after the file,
// holding one gene track.
func ReadGeneFile(path string) (*ports.Dataset, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	features, err := readGeneTableFile(abs)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	ds := ports.NewDataset(name)
	ds.AddTrack(&ports.Track{Name: "genes", Kind: ports.TrackGene, Features: features})
	ds.Sources = []string{abs}
	return ds, nil
}

func readGeneTableFile(path string) ([]ports.Feature, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	features, err := ReadGeneTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return features, nil
}

func isInt(s string) bool {
	_, err := strconv.Atoi(strings.TrimSpace(s))
	return err == nil
}
