package synthesizer

// Depth selects how broad the retrieval and how long the report should be.
type Depth string

const (
	DepthBrief         Depth = "brief"
	DepthDetailed      Depth = "detailed"
	DepthComprehensive Depth = "comprehensive"
)

// DepthProfile bundles the retrieval and report-shape settings for one depth.
// Profiles are fixed; a request picks one and never mutates it.
type DepthProfile struct {
	Depth       Depth
	TopK        int
	MinWords    int
	MaxWords    int
	Sections    int
	Instruction string
}

var depthProfiles = map[Depth]DepthProfile{
	DepthBrief: {
		Depth:       DepthBrief,
		TopK:        3,
		MinWords:    200,
		MaxWords:    400,
		Sections:    3,
		Instruction: "Write a concise summary hitting only the most important points.",
	},
	DepthDetailed: {
		Depth:       DepthDetailed,
		TopK:        5,
		MinWords:    500,
		MaxWords:    800,
		Sections:    5,
		Instruction: "Write a thorough report covering the main aspects with supporting detail.",
	},
	DepthComprehensive: {
		Depth:       DepthComprehensive,
		TopK:        8,
		MinWords:    900,
		MaxWords:    1500,
		Sections:    7,
		Instruction: "Write an exhaustive report covering background, current state, nuances and open questions.",
	},
}

// ResolveDepth maps a depth name to its profile. Unknown or empty names fall
// back to the detailed profile; ok reports whether the name was recognized.
func ResolveDepth(name string) (DepthProfile, bool) {
	if p, found := depthProfiles[Depth(name)]; found {
		return p, true
	}
	return depthProfiles[DepthDetailed], false
}
