package catalog

// defaultIDs is the stock set of ambient loops, in display order.
var defaultIDs = []string{
	"bell",
	"bird",
	"fire",
	"flute",
	"frog",
	"ice_cracking",
	"ocean",
	"om",
	"owl",
	"rain",
	"thunder",
	"tibetan_bowls",
	"train",
	"wind_chimes",
	"wind",
}

// DefaultTracks returns the built-in descriptors. Assets are WAV files named
// after the id, as written by restara-forge.
func DefaultTracks() []TrackDescriptor {
	tracks := make([]TrackDescriptor, len(defaultIDs))
	for i, id := range defaultIDs {
		tracks[i] = TrackDescriptor{
			ID:         id,
			Label:      labelFromID(id),
			AudioRef:   id + ".wav",
			IdleIcon:   "icons/" + id + ".png",
			ActiveIcon: "icons/" + id + ".gif",
		}
	}
	return tracks
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(DefaultTracks())
	if err != nil {
		panic(err)
	}
	return c
}
