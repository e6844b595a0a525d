package decoder

import "github.com/nilsaberg/actf2/errs"

var errInvalidBatchSize = errs.New(errs.KindInvalidRange, "batch size must be > 0")

var errInvalidArenaHint = errs.New(errs.KindInvalidRange, "arena hint must be > 0")
