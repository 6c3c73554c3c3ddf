package report

import "errors"

// ErrNoImages indicates the archive produced zero usable images; the run is
// fatal and nothing is published.
var ErrNoImages = errors.New("no images found in archive")

// ErrAnalysisFailed marks a per-image failure after exhausted retries. The
// finding degrades to a placeholder; the run continues.
var ErrAnalysisFailed = errors.New("image analysis failed")

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")
