package datafile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/corey/gbsearch/internal/ports"
	"gopkg.in/yaml.v3"
)

// yamlManifest is the on-disk form of a dataset manifest.
type yamlManifest struct {
	Name       string            `yaml:"name"`
	Attributes map[string]string `yaml:"attributes,omitempty"`
	Tracks     []yamlTrack       `yaml:"tracks"`
}

type yamlTrack struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind,omitempty"`
	File string `yaml:"file"`
}

// ReadManifest loads a dataset described by a YAML manifest:
//
//	name: halo
//	attributes:
//	  species: Halobacterium salinarum NRC-1
//	tracks:
//	  - name: genes
//	    kind: gene
//	    file: genes.tsv
//
// Track files are gene tables, resolved relative to the manifest. The
// manifest and every track file are recorded as the dataset's sources.
func ReadManifest(path string) (*ports.Dataset, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m yamlManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", abs, err)
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	}
	if len(m.Tracks) == 0 {
		return nil, fmt.Errorf("manifest %s: no tracks", abs)
	}

	ds := ports.NewDataset(m.Name)
	for k, v := range m.Attributes {
		ds.Attributes[k] = v
	}
	ds.Sources = append(ds.Sources, abs)

	dir := filepath.Dir(abs)
	seen := make(map[string]bool, len(m.Tracks))
	for i, yt := range m.Tracks {
		if yt.Name == "" {
			return nil, fmt.Errorf("manifest %s: track %d has no name", abs, i)
		}
		if seen[yt.Name] {
			return nil, fmt.Errorf("manifest %s: duplicate track %q", abs, yt.Name)
		}
		seen[yt.Name] = true
		if yt.File == "" {
			return nil, fmt.Errorf("manifest %s: track %q has no file", abs, yt.Name)
		}

		file := yt.File
		if !filepath.IsAbs(file) {
			file = filepath.Join(dir, file)
		}
		features, err := readGeneTableFile(file)
		if err != nil {
			return nil, fmt.Errorf("track %q: %w", yt.Name, err)
		}
		ds.AddTrack(&ports.Track{Name: yt.Name, Kind: ports.ParseTrackKind(yt.Kind), Features: features})
		ds.Sources = append(ds.Sources, file)
	}
	return ds, nil
}

// Load reads a manifest (.yaml or .yml) or else a single gene table.
func Load(path string) (*ports.Dataset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ReadManifest(path)
	default:
		return ReadGeneFile(path)
	}
}
