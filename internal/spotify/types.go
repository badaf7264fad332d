package spotify

// TimeRange is the window Spotify computes a user's top items over.
type TimeRange string

// Supported time ranges.
const (
	ShortTerm  TimeRange = "short_term"  // about 4 weeks
	MediumTerm TimeRange = "medium_term" // about 6 months
	LongTerm   TimeRange = "long_term"   // several years
)

// DefaultTimeRange is used when a caller does not name one.
const DefaultTimeRange = MediumTerm

// TopTracksLimit is how many tracks are cached per time range.
const TopTracksLimit = 10

// TimeRanges lists every time range in the order they are synced.
var TimeRanges = []TimeRange{ShortTerm, MediumTerm, LongTerm}

// Profile is the subset of the Spotify user profile Friendify stores.
type Profile struct {
	ID          string
	DisplayName string // may be empty
	ImageURL    string // first profile image, empty if none
}

// TopTrack is one entry of a user's top tracks as returned by Spotify,
// in Spotify's order.
type TopTrack struct {
	ID            string
	Name          string
	Artist        string // Comma-separated artist names
	Album         string
	AlbumImageURL string // empty if the album has no images
	PreviewURL    string // empty if Spotify has no preview
	Popularity    int
}
