package zoom

// Level is one of the five magnification tiers of the media grid.
type Level string

const (
	LevelXS     Level = "xs"
	LevelSmall  Level = "small"
	LevelMedium Level = "medium"
	LevelLarge  Level = "large"
	LevelXL     Level = "xl"
)

// DefaultLevel is used when nothing has been persisted yet.
const DefaultLevel = LevelMedium

// Levels lists every level from smallest to largest.
var Levels = []Level{LevelXS, LevelSmall, LevelMedium, LevelLarge, LevelXL}

// Action moves the grid one step along the zoom scale.
type Action string

const (
	ActionIn  Action = "in"
	ActionOut Action = "out"
)

// transitions is the complete edge set. The extremes deliberately have no
// outward edge; there is no wrap-around.
var transitions = map[Level]map[Action]Level{
	LevelXS:     {ActionIn: LevelSmall},
	LevelSmall:  {ActionIn: LevelMedium, ActionOut: LevelXS},
	LevelMedium: {ActionIn: LevelLarge, ActionOut: LevelSmall},
	LevelLarge:  {ActionIn: LevelXL, ActionOut: LevelMedium},
	LevelXL:     {ActionOut: LevelLarge},
}

// Next looks up the transition for (current, action). When the table has no
// edge it returns current and false.
func Next(current Level, action Action) (Level, bool) {
	if next, ok := transitions[current][action]; ok {
		return next, true
	}
	return current, false
}

// ParseLevel converts a persisted string back into a Level.
func ParseLevel(s string) (Level, bool) {
	l := Level(s)
	if _, ok := transitions[l]; ok {
		return l, true
	}
	return "", false
}

// ParseAction converts user input into an Action.
func ParseAction(s string) (Action, bool) {
	switch Action(s) {
	case ActionIn, ActionOut:
		return Action(s), true
	}
	return "", false
}

// Class returns the CSS marker the host view carries for this level.
func (l Level) Class() string {
	return "zoom-" + string(l)
}

// Label returns a human readable name.
func (l Level) Label() string {
	switch l {
	case LevelXS:
		return "extra-small"
	case LevelXL:
		return "extra-large"
	}
	return string(l)
}

// Index returns the position of l in Levels, or -1.
func (l Level) Index() int {
	for i, v := range Levels {
		if v == l {
			return i
		}
	}
	return -1
}
