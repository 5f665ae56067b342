package models

// Verdict is the outcome of blur classification for a single photo.
type Verdict int

const (
	// Unanalyzed marks files whose pixels could not be decoded (RAW formats,
	// corrupt or empty images). They are still organized, into their own bucket.
	Unanalyzed Verdict = iota
	Sharp
	Blurry
)

func (v Verdict) String() string {
	switch v {
	case Sharp:
		return "sharp"
	case Blurry:
		return "blurry"
	default:
		return "unanalyzed"
	}
}

// Event is a single file announced by the watcher or by the existing-files walk.
type Event struct {
	Path string
	Err  error
}
