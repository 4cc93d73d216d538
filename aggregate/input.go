package aggregate

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedInput is returned when input_data does not follow the naming
// convention.
var ErrMalformedInput = errors.New("malformed input_data")

// RunKey identifies one circular-data run.
type RunKey struct {
	Subsets  string // number of data subsets, e.g. "3"
	Combo    string // combination identifier, e.g. "A"
	Rotation string // rotation in degrees, e.g. "15"
}

// ParseInputData recovers the run key from a metadata input_data value.
// Tokens 1, 2 and 3 of the underscore-split name hold the subset count,
// combination and rotation, each terminated by a dash.
func ParseInputData(s string) (RunKey, error) {
	tokens := strings.Split(s, "_")
	if len(tokens) < 4 {
		return RunKey{}, fmt.Errorf("%w: %q has %d underscore tokens, want at least 4", ErrMalformedInput, s, len(tokens))
	}

	field := func(i int) (string, error) {
		v, _, _ := strings.Cut(tokens[i], "-")
		if v == "" {
			return "", fmt.Errorf("%w: %q token %d is empty", ErrMalformedInput, s, i)
		}
		return v, nil
	}

	var key RunKey
	var err error
	if key.Subsets, err = field(1); err != nil {
		return RunKey{}, err
	}
	if key.Combo, err = field(2); err != nil {
		return RunKey{}, err
	}
	if key.Rotation, err = field(3); err != nil {
		return RunKey{}, err
	}
	return key, nil
}

// ImageName is the canonical file name of a run's regression image.
func (k RunKey) ImageName() string {
	return fmt.Sprintf("%s-subsets_%s-combo.png", k.Subsets, k.Combo)
}
