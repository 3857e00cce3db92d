package autodj

// Style represents a node in the style graph.
type Style struct {
	Name     string
	Adjacent []string
}

// StyleGraph maps style names to their graph nodes with adjacency edges.
// The DJ only wanders along edges -- no jumping across the graph, so
// consecutive transitions always land on something musically nearby.
var StyleGraph = map[string]*Style{
	"ambient": {
		Name:     "ambient",
		Adjacent: []string{"chillwave", "classical", "downtempo"},
	},
	"downtempo": {
		Name:     "downtempo",
		Adjacent: []string{"ambient", "lofi hip hop", "electronic", "house"},
	},
	"chillwave": {
		Name:     "chillwave",
		Adjacent: []string{"ambient", "lofi hip hop", "synthwave"},
	},
	"lofi hip hop": {
		Name:     "lofi hip hop",
		Adjacent: []string{"downtempo", "chillwave", "jazz"},
	},
	"jazz": {
		Name:     "jazz",
		Adjacent: []string{"lofi hip hop", "bossa nova", "classical"},
	},
	"bossa nova": {
		Name:     "bossa nova",
		Adjacent: []string{"jazz"},
	},
	"classical": {
		Name:     "classical",
		Adjacent: []string{"ambient", "jazz", "cinematic"},
	},
	"cinematic": {
		Name:     "cinematic",
		Adjacent: []string{"classical", "indie rock"},
	},
	"synthwave": {
		Name:     "synthwave",
		Adjacent: []string{"chillwave", "electronic", "indie rock"},
	},
	"electronic": {
		Name:     "electronic",
		Adjacent: []string{"downtempo", "synthwave", "house", "drum and bass"},
	},
	"house": {
		Name:     "house",
		Adjacent: []string{"downtempo", "electronic"},
	},
	"drum and bass": {
		Name:     "drum and bass",
		Adjacent: []string{"electronic"},
	},
	"indie rock": {
		Name:     "indie rock",
		Adjacent: []string{"cinematic", "synthwave"},
	},
}

// StyleNames returns all style names in the graph.
func StyleNames() []string {
	names := make([]string, 0, len(StyleGraph))
	for name := range StyleGraph {
		names = append(names, name)
	}
	return names
}

// IsKnownStyle checks if a style exists in the graph.
func IsKnownStyle(name string) bool {
	_, ok := StyleGraph[name]
	return ok
}
