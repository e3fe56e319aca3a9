package ports

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Strand indicates a strand of double stranded nucleic acid. StrandNone means
// no strand specificity (e.g. ChIP-chip data). StrandAny matches features
// with any strand value.
type Strand uint8

const (
	StrandNone Strand = iota
	StrandForward
	StrandReverse
	StrandAny
)

// ParseStrand converts the common textual strand encodings. Unknown values
// map to StrandNone rather than failing.
func ParseStrand(s string) Strand {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return StrandNone
	case "+", "for", "forward":
		return StrandForward
	case "-", "rev", "reverse":
		return StrandReverse
	case ".", "none":
		return StrandNone
	case "*", "any":
		return StrandAny
	}
	if i, err := strconv.Atoi(s); err == nil {
		switch i {
		case 1:
			return StrandForward
		case -1:
			return StrandReverse
		}
	}
	return StrandNone
}

// Abbrev returns the one-character form used in GFF-like files.
func (s Strand) Abbrev() string {
	switch s {
	case StrandForward:
		return "+"
	case StrandReverse:
		return "-"
	case StrandAny:
		return "*"
	default:
		return "."
	}
}

func (s Strand) String() string {
	switch s {
	case StrandForward:
		return "forward"
	case StrandReverse:
		return "reverse"
	case StrandAny:
		return "any"
	default:
		return "none"
	}
}

// Encompasses reports whether s covers other. StrandAny covers everything.
func (s Strand) Encompasses(other Strand) bool {
	return s == other || s == StrandAny
}

// GeneType is loosely based on NCBI feature keys.
type GeneType string

const (
	GeneTypeGene    GeneType = "gene"
	GeneTypeCDS     GeneType = "cds"
	GeneTypeTRNA    GeneType = "trna"
	GeneTypeRRNA    GeneType = "rrna"
	GeneTypeRNA     GeneType = "rna"
	GeneTypeNCRNA   GeneType = "ncrna"
	GeneTypeRepeat  GeneType = "repeat"
	GeneTypeOperon  GeneType = "operon"
	GeneTypePfam    GeneType = "pfam"
	GeneTypePeptide GeneType = "peptide"
	GeneTypeOther   GeneType = "other"
)

var geneTypes = []GeneType{
	GeneTypeGene, GeneTypeCDS, GeneTypeTRNA, GeneTypeRRNA, GeneTypeRNA, GeneTypeNCRNA,
	GeneTypeRepeat, GeneTypeOperon, GeneTypePfam, GeneTypePeptide, GeneTypeOther,
}

// ParseGeneType matches case-insensitively, falling back to GeneTypeGene.
func ParseGeneType(s string) GeneType {
	for _, t := range geneTypes {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t
		}
	}
	return GeneTypeGene
}

// Feature is a region on a sequence. The search core stores and returns
// features as opaque values; two features are the same feature iff they are
// equal as Go values.
type Feature struct {
	SeqID      string   `json:"seq_id"`
	Strand     Strand   `json:"strand"`
	Start      int      `json:"start"`
	End        int      `json:"end"`
	Name       string   `json:"name,omitempty"`
	CommonName string   `json:"common_name,omitempty"`
	Type       GeneType `json:"type,omitempty"`
}

// NewGeneFeature builds a gene feature with Start <= End.
func NewGeneFeature(seqID string, strand Strand, start, end int, name, commonName string, typ GeneType) Feature {
	if start > end {
		start, end = end, start
	}
	if typ == "" {
		typ = GeneTypeGene
	}
	return Feature{
		SeqID:      seqID,
		Strand:     strand,
		Start:      start,
		End:        end,
		Name:       name,
		CommonName: commonName,
		Type:       typ,
	}
}

// Label is the common name when there is one, otherwise the name.
func (f Feature) Label() string {
	if f.CommonName != "" {
		return f.CommonName
	}
	return f.Name
}

// CentralPosition is the midpoint of the feature.
func (f Feature) CentralPosition() int {
	return int(uint(f.Start+f.End) >> 1)
}

func (f Feature) String() string {
	if f.CommonName == "" {
		return f.Name
	}
	return f.Name + "(" + f.CommonName + ")"
}

// TrackKind says what sort of features a track holds. Only gene tracks carry
// names worth indexing.
type TrackKind string

const (
	TrackGene         TrackKind = "gene"
	TrackQuantitative TrackKind = "quantitative"
	TrackOther        TrackKind = "other"
)

// ParseTrackKind defaults to TrackGene, the only kind the loaders produce by default.
func ParseTrackKind(s string) TrackKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quantitative":
		return TrackQuantitative
	case "other":
		return TrackOther
	default:
		return TrackGene
	}
}

// Track is a named list of features on the dataset's sequences.
type Track struct {
	Name     string    `json:"name"`
	Kind     TrackKind `json:"kind"`
	Features []Feature `json:"-"`
}

// Dataset is a set of tracks holding features on a genome's sequences.
type Dataset struct {
	ID         uuid.UUID         `json:"id"`
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Tracks     []*Track          `json:"tracks"`

	// Sources lists the files the dataset was read from, for reload on change.
	Sources []string `json:"sources,omitempty"`
}

// NewDataset creates an empty dataset with a fresh ID.
func NewDataset(name string) *Dataset {
	return &Dataset{
		ID:         uuid.New(),
		Name:       name,
		Attributes: make(map[string]string),
	}
}

// AddTrack appends a track.
func (d *Dataset) AddTrack(t *Track) {
	d.Tracks = append(d.Tracks, t)
}

// Track returns the named track or nil.
func (d *Dataset) Track(name string) *Track {
	for _, t := range d.Tracks {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// GeneFeatures calls fn for every feature of every gene track, in track order.
func (d *Dataset) GeneFeatures(fn func(Feature)) {
	if d == nil {
		return
	}
	for _, t := range d.Tracks {
		if t.Kind != TrackGene {
			continue
		}
		for _, f := range t.Features {
			fn(f)
		}
	}
}

// FeatureCount is the total number of features over all tracks.
func (d *Dataset) FeatureCount() int {
	n := 0
	for _, t := range d.Tracks {
		n += len(t.Features)
	}
	return n
}
