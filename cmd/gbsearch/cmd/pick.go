package cmd

import (
	"errors"
	"fmt"

	"github.com/corey/gbsearch/internal/ports"
	"github.com/ktr0731/go-fuzzyfinder"
)

// pickFeature lets the user choose one feature from several. Returns false
// when the user aborts.
func pickFeature(features []ports.Feature) (ports.Feature, bool, error) {
	plain := newPalette(false)
	idx, err := fuzzyfinder.Find(features, func(i int) string {
		return features[i].String()
	},
		fuzzyfinder.WithHeader(fmt.Sprintf("%d features", len(features))),
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			return previewFeature(plain, features[i])
		}),
	)
	if errors.Is(err, fuzzyfinder.ErrAbort) {
		return ports.Feature{}, false, nil
	}
	if err != nil {
		return ports.Feature{}, false, err
	}
	return features[idx], true, nil
}

func previewFeature(p palette, f ports.Feature) string {
	return fmt.Sprintf("%s\n%s\n\nname:     %s\ncommon:   %s\nlocation: %s\ncenter:   %s:%d\nstrand:   %s\ntype:     %s\nlength:   %d\n",
		p.header.Render(f.Label()), formatFeature(p, f), f.Name, f.CommonName, formatLocation(f),
		f.SeqID, f.CentralPosition(), f.Strand, f.Type, f.End-f.Start+1)
}
