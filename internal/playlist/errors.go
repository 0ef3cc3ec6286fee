package playlist

import "errors"

// ErrMalformed is returned when a master or media playlist violates one of
// the structural assertions this package depends on (e.g. language slice
// counts that don't divide evenly, or a rewrite whose output length doesn't
// match the expected formula).
var ErrMalformed = errors.New("playlist: malformed input")
