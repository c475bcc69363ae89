package sim

import "errors"

var errNonFinite = errors.New("non-finite frame sample")
