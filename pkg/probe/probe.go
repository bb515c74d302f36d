// Package probe reads the current description of the machine's power
// sources.
package probe

import (
	"encoding/json"
	"os"

	pkgerrors "github.com/pkg/errors"

	"github.com/charlie0129/battmoji/pkg/powerinfo"
)

// Probe returns one description per power source. Reads are synchronous
// and expected to be fast. An empty result means no source is available.
type Probe interface {
	Sources() ([]powerinfo.Description, error)
}

// Func adapts a function to Probe.
type Func func() ([]powerinfo.Description, error)

func (f Func) Sources() ([]powerinfo.Description, error) {
	return f()
}

// Static always reports the same descriptions.
type Static []powerinfo.Description

func (s Static) Sources() ([]powerinfo.Description, error) {
	out := make([]powerinfo.Description, len(s))
	copy(out, s)
	return out, nil
}

// File reads a JSON array of descriptions from disk on every call. It is
// handy for running the daemon on machines without a battery.
type File struct {
	Path string
}

func (f File) Sources() ([]powerinfo.Description, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to read probe file %s", f.Path)
	}

	var descs []powerinfo.Description
	if err := json.Unmarshal(b, &descs); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal probe file %s", f.Path)
	}
	return descs, nil
}
