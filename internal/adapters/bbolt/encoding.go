// Binary encoding for track blobs.
//
// Track metadata is small and goes through JSON with the rest of the dataset
// header; the feature lists dominate the size and use a compact binary form.
//
// Track list format (little-endian):
//
//	trackCount: uint32
//	per track:
//	  name:         str
//	  kind:         str
//	  featureCount: uint32
//	  features:     [featureCount]× feature
//
//	feature:
//	  seqID:      str
//	  strand:     uint8
//	  start:      int64
//	  end:        int64
//	  name:       str
//	  commonName: str
//	  type:       str
//
//	str: len uint16 + [len]byte
package bbolt

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/corey/gbsearch/internal/ports"
)

// fixedFeatureSize is the byte size of a feature's fixed-width fields plus
// the length prefixes of its four strings.
const fixedFeatureSize = 1 + 8 + 8 + 4*2

// encodeTracks encodes tracks with their features. The buffer is sized up
// front so encoding a large genome does not regrow it.
func encodeTracks(tracks []*ports.Track) ([]byte, error) {
	size := 4
	for _, t := range tracks {
		size += 2 + len(t.Name) + 2 + len(t.Kind) + 4
		for _, f := range t.Features {
			size += fixedFeatureSize + len(f.SeqID) + len(f.Name) + len(f.CommonName) + len(f.Type)
		}
	}

	buf := make([]byte, 0, size)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(tracks)))

	var err error
	for _, t := range tracks {
		if buf, err = appendString(buf, t.Name); err != nil {
			return nil, fmt.Errorf("track name: %w", err)
		}
		if buf, err = appendString(buf, string(t.Kind)); err != nil {
			return nil, fmt.Errorf("track %s kind: %w", t.Name, err)
		}
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(t.Features)))
		for i, f := range t.Features {
			if buf, err = appendFeature(buf, f); err != nil {
				return nil, fmt.Errorf("track %s feature %d: %w", t.Name, i, err)
			}
		}
	}
	return buf, nil
}

func appendFeature(buf []byte, f ports.Feature) ([]byte, error) {
	var err error
	if buf, err = appendString(buf, f.SeqID); err != nil {
		return nil, err
	}
	buf = append(buf, byte(f.Strand))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(int64(f.Start)))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(int64(f.End)))
	if buf, err = appendString(buf, f.Name); err != nil {
		return nil, err
	}
	if buf, err = appendString(buf, f.CommonName); err != nil {
		return nil, err
	}
	return appendString(buf, string(f.Type))
}

func appendString(buf []byte, s string) ([]byte, error) {
	if len(s) > math.MaxUint16 {
		return nil, fmt.Errorf("string too long: %d bytes", len(s))
	}
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(s)))
	return append(buf, s...), nil
}

// decoder reads the track format. Every read is bounds-checked so corrupt
// data yields an error instead of a panic.
type decoder struct {
	data   []byte
	offset int
}

func (d *decoder) need(n int, what string) error {
	if n < 0 || d.offset+n > len(d.data) {
		return fmt.Errorf("truncated at %s (offset %d, need %d)", what, d.offset, n)
	}
	return nil
}

func (d *decoder) u8(what string) (uint8, error) {
	if err := d.need(1, what); err != nil {
		return 0, err
	}
	v := d.data[d.offset]
	d.offset++
	return v, nil
}

func (d *decoder) u32(what string) (uint32, error) {
	if err := d.need(4, what); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(d.data[d.offset:])
	d.offset += 4
	return v, nil
}

func (d *decoder) i64(what string) (int64, error) {
	if err := d.need(8, what); err != nil {
		return 0, err
	}
	v := int64(binary.LittleEndian.Uint64(d.data[d.offset:]))
	d.offset += 8
	return v, nil
}

func (d *decoder) str(what string) (string, error) {
	if err := d.need(2, what+" length"); err != nil {
		return "", err
	}
	n := int(binary.LittleEndian.Uint16(d.data[d.offset:]))
	d.offset += 2
	if err := d.need(n, what); err != nil {
		return "", err
	}
	s := string(d.data[d.offset : d.offset+n])
	d.offset += n
	return s, nil
}

// decodeTracks decodes the output of encodeTracks.
func decodeTracks(data []byte) ([]*ports.Track, error) {
	d := &decoder{data: data}
	trackCount, err := d.u32("track count")
	if err != nil {
		return nil, err
	}

	// Each track needs at least 8 bytes; don't trust a corrupt count for
	// the allocation.
	if int(trackCount) > len(data)/8 {
		return nil, fmt.Errorf("track count %d exceeds data size %d", trackCount, len(data))
	}
	tracks := make([]*ports.Track, 0, trackCount)

	for i := uint32(0); i < trackCount; i++ {
		t := &ports.Track{}
		if t.Name, err = d.str(fmt.Sprintf("track %d name", i)); err != nil {
			return nil, err
		}
		kind, err := d.str(fmt.Sprintf("track %d kind", i))
		if err != nil {
			return nil, err
		}
		t.Kind = ports.TrackKind(kind)

		n, err := d.u32(fmt.Sprintf("track %d feature count", i))
		if err != nil {
			return nil, err
		}
		if err := d.need(int(n)*fixedFeatureSize, fmt.Sprintf("track %d features", i)); err != nil {
			return nil, err
		}
		if n > 0 {
			t.Features = make([]ports.Feature, n)
		}
		for j := range t.Features {
			if t.Features[j], err = d.feature(); err != nil {
				return nil, fmt.Errorf("track %d feature %d: %w", i, j, err)
			}
		}
		tracks = append(tracks, t)
	}

	if d.offset != len(data) {
		return nil, fmt.Errorf("%d trailing bytes after %d tracks", len(data)-d.offset, trackCount)
	}
	return tracks, nil
}

func (d *decoder) feature() (ports.Feature, error) {
	var f ports.Feature
	var err error
	if f.SeqID, err = d.str("seq id"); err != nil {
		return f, err
	}
	strand, err := d.u8("strand")
	if err != nil {
		return f, err
	}
	f.Strand = ports.Strand(strand)
	start, err := d.i64("start")
	if err != nil {
		return f, err
	}
	end, err := d.i64("end")
	if err != nil {
		return f, err
	}
	f.Start, f.End = int(start), int(end)
	if f.Name, err = d.str("name"); err != nil {
		return f, err
	}
	if f.CommonName, err = d.str("common name"); err != nil {
		return f, err
	}
	typ, err := d.str("type")
	if err != nil {
		return f, err
	}
	f.Type = ports.GeneType(typ)
	return f, nil
}
