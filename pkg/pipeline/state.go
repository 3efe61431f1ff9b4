package pipeline

// State is the position of a Runner within a build.
type State int

// Build states in the order a full build passes through them.
const (
	Idle State = iota
	BasicsRunning
	BasicsDone
	ModulesRunning
	ModulesDone
	ScreensRunning
	ScreensDone
	ManifestWritten
)

var stateNames = [...]string{
	Idle:            "idle",
	BasicsRunning:   "basics running",
	BasicsDone:      "basics done",
	ModulesRunning:  "modules running",
	ModulesDone:     "modules done",
	ScreensRunning:  "screens running",
	ScreensDone:     "screens done",
	ManifestWritten: "manifest written",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Stage names used in logs, results and observability hooks.
const (
	StageBasics   = "basics"
	StageModules  = "modules"
	StageScreens  = "screens"
	StageManifest = "manifest"
)
