package gazeline

// Movement state codes reported by the sensor.
const (
	stateFixation = 0
	stateSaccade  = 2
)

// Classification describes a sample's movement, derived from the sensor's
// reported movement state when one is available.
type Classification int

const (
	ClassUnknown Classification = iota
	ClassFixation
	ClassSaccade
)

func (c Classification) String() string {
	switch c {
	case ClassFixation:
		return "fixation"
	case ClassSaccade:
		return "saccade"
	default:
		return "unknown"
	}
}

// Input is one observation reported by a sensor integration.
type Input struct {
	// Timestamp is the absolute host clock time of the observation, in
	// milliseconds.
	Timestamp int64 `json:"t"`

	// X and Y are the reported gaze position. They may be non-finite or the
	// (0, 0) sentinel when the sensor momentarily lost the gaze.
	X float64 `json:"x"`
	Y float64 `json:"y"`

	// State is the sensor's discrete movement state code: 0 for fixation-like
	// and 2 for saccade-like movement. Nil or any other value means unknown.
	State *int `json:"state,omitempty"`
}

// Context carries the reading position supplied by the presentation layer.
// Nil fields in a SetContext call leave the corresponding persisted value
// untouched.
type Context struct {
	Line      *int `json:"line,omitempty"`
	Paragraph *int `json:"paragraph,omitempty"`
	Word      *int `json:"word,omitempty"`
}

// Sample is one buffered observation along with its derived values. Each
// pipeline stage writes a fixed set of fields:
//
//   - ingestion writes Time, X, Y, Dropout, Line, Paragraph, Word, and Class
//   - gap interpolation rewrites X and Y of dropout samples only
//   - smoothing writes GX, GY, VX, VY, and Processed
//   - detection writes Fired
type Sample struct {
	// Time is in milliseconds relative to the session origin.
	Time int64 `json:"t"`

	// X and Y are the raw reported position, with dropout gaps filled in.
	X float64 `json:"x"`
	Y float64 `json:"y"`

	// Dropout is true if the position was missing on arrival. X and Y then
	// hold interpolated estimates rather than observed coordinates.
	Dropout bool `json:"dropout,omitempty"`

	// GX and GY are the smoothed position, and VX and VY the velocity in
	// position units per millisecond. They are meaningful only once Processed
	// is true.
	GX        float64 `json:"gx"`
	GY        float64 `json:"gy"`
	VX        float64 `json:"vx"`
	VY        float64 `json:"vy"`
	Processed bool    `json:"processed"`

	// Line, Paragraph, and Word are the reading position at ingestion time,
	// if one was known.
	Line      *int `json:"line,omitempty"`
	Paragraph *int `json:"paragraph,omitempty"`
	Word      *int `json:"word,omitempty"`

	Class Classification `json:"class"`

	// Fired is true if this sample was the trigger point of a line-advance
	// event.
	Fired bool `json:"fired,omitempty"`
}

// Ptr returns a pointer to v. It is a convenience for building Context and
// Input values from literals.
func Ptr[T any](v T) *T {
	return &v
}

func classify(state *int) Classification {
	if state == nil {
		return ClassUnknown
	}
	switch *state {
	case stateFixation:
		return ClassFixation
	case stateSaccade:
		return ClassSaccade
	default:
		return ClassUnknown
	}
}
