package datafile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/corey/gbsearch/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const geneTable = "# halobacterium genes\n" +
	"seqId\tstrand\tstart\tend\tname\tcommon_name\tgene_type\n" +
	"chr\t+\t100\t900\tVNG1001G\ttrkA\tgene\n" +
	"chr\t-\t1200\t1000\tVNG1002C\t\tcds\n" +
	"\n" +
	"pNRC100\tfor\t20000\t20500\tVNG6001G\tgvpA\n" +
	"pNRC200\t-1\t30000\t30100\tVNG7001\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// =============================================================================
// Gene tables
// =============================================================================

func TestReadGeneTable(t *testing.T) {
	features, err := ReadGeneTable(strings.NewReader(geneTable))
	require.NoError(t, err)
	require.Len(t, features, 4)

	assert.Equal(t, ports.NewGeneFeature("chr", ports.StrandForward, 100, 900, "VNG1001G", "trkA", ports.GeneTypeGene), features[0])

	// start/end swapped on read
	assert.Equal(t, 1000, features[1].Start)
	assert.Equal(t, 1200, features[1].End)
	assert.Equal(t, ports.StrandReverse, features[1].Strand)
	assert.Equal(t, ports.GeneTypeCDS, features[1].Type)
	assert.Empty(t, features[1].CommonName)

	// optional columns
	assert.Equal(t, "gvpA", features[2].CommonName)
	assert.Equal(t, ports.GeneTypeGene, features[2].Type)
	assert.Equal(t, ports.StrandReverse, features[3].Strand)
	assert.Equal(t, "VNG7001", features[3].Name)
}

func TestReadGeneTable_NoHeader(t *testing.T) {
	features, err := ReadGeneTable(strings.NewReader("chr\t+\t1\t10\tA\nchr\t+\t20\t30\tB\n"))
	require.NoError(t, err)
	assert.Len(t, features, 2)
}

func TestReadGeneTable_CRLF(t *testing.T) {
	features, err := ReadGeneTable(strings.NewReader("chr\t+\t1\t10\tA\tgeneA\r\n"))
	require.NoError(t, err)
	require.Len(t, features, 1)
	assert.Equal(t, "geneA", features[0].CommonName)
}

func TestReadGeneTable_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"too few columns", "chr\t+\t1\t10\tA\nchr\t+\t5\n", "line 2: expected at least 5"},
		{"bad end", "chr\t+\t1\tten\tA\n", "line 1: bad end"},
		{"bad start after first row", "chr\t+\t1\t10\tA\nchr\t+\tx\t10\tB\n", "line 2: bad start"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadGeneTable(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReadGeneTable_Empty(t *testing.T) {
	features, err := ReadGeneTable(strings.NewReader("# nothing here\n\n"))
	require.NoError(t, err)
	assert.Empty(t, features)
}

func TestReadGeneFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "halo.tsv", geneTable)

	ds, err := ReadGeneFile(path)
	require.NoError(t, err)
	assert.Equal(t, "halo", ds.Name)
	require.Len(t, ds.Tracks, 1)
	assert.Equal(t, ports.TrackGene, ds.Tracks[0].Kind)
	assert.Len(t, ds.Tracks[0].Features, 4)
	assert.Equal(t, []string{path}, ds.Sources)
}

func TestReadGeneFile_ErrorNamesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.tsv", "chr\t+\t1\n")

	_, err := ReadGeneFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.tsv")
	assert.Contains(t, err.Error(), "line 1")
}

// =============================================================================
// Manifests
// =============================================================================

func TestReadManifest(t *testing.T) {
	dir := t.TempDir()
	genes := writeFile(t, dir, "genes.tsv", geneTable)
	probes := writeFile(t, dir, "probes.tsv", "chr\t.\t150\t210\tprobe_1\n")
	manifest := writeFile(t, dir, "halo.yaml", `
name: halo
attributes:
  species: Halobacterium salinarum NRC-1
tracks:
  - name: genes
    kind: gene
    file: genes.tsv
  - name: probes
    kind: quantitative
    file: probes.tsv
`)

	ds, err := ReadManifest(manifest)
	require.NoError(t, err)
	assert.Equal(t, "halo", ds.Name)
	assert.Equal(t, "Halobacterium salinarum NRC-1", ds.Attributes["species"])
	require.Len(t, ds.Tracks, 2)
	assert.Equal(t, ports.TrackGene, ds.Track("genes").Kind)
	assert.Equal(t, ports.TrackQuantitative, ds.Track("probes").Kind)
	assert.Equal(t, 5, ds.FeatureCount())
	assert.Equal(t, []string{manifest, genes, probes}, ds.Sources)
}

func TestReadManifest_DefaultsNameAndKind(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "genes.tsv", geneTable)
	manifest := writeFile(t, dir, "yeast.yml", "tracks:\n  - name: genes\n    file: genes.tsv\n")

	ds, err := ReadManifest(manifest)
	require.NoError(t, err)
	assert.Equal(t, "yeast", ds.Name)
	assert.Equal(t, ports.TrackGene, ds.Tracks[0].Kind)
}

func TestReadManifest_Errors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "genes.tsv", geneTable)

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"no tracks", "name: x\n", "no tracks"},
		{"no file", "tracks:\n  - name: genes\n", "has no file"},
		{"no name", "tracks:\n  - file: genes.tsv\n", "has no name"},
		{"duplicate", "tracks:\n  - {name: g, file: genes.tsv}\n  - {name: g, file: genes.tsv}\n", "duplicate track"},
		{"missing file", "tracks:\n  - {name: g, file: nope.tsv}\n", "nope.tsv"},
		{"bad yaml", "tracks: [\n", "parse manifest"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, "m.yaml", tt.content)
			_, err := ReadManifest(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_DispatchesOnExtension(t *testing.T) {
	dir := t.TempDir()
	table := writeFile(t, dir, "genes.tsv", geneTable)
	manifest := writeFile(t, dir, "halo.YAML", "name: halo\ntracks:\n  - {name: genes, file: genes.tsv}\n")

	ds, err := Load(table)
	require.NoError(t, err)
	assert.Equal(t, "genes", ds.Name)

	ds, err = Load(manifest)
	require.NoError(t, err)
	assert.Equal(t, "halo", ds.Name)
	assert.Len(t, ds.Sources, 2)
}
