package types

// SecurityLevel selects which ControlRequirement rows apply to an assessment.
// The three tiers are increasing in strictness.
type SecurityLevel string

const (
	LevelOsnovna  SecurityLevel = "osnovna"
	LevelSrednja  SecurityLevel = "srednja"
	LevelNapredna SecurityLevel = "napredna"
)

func (l SecurityLevel) Valid() bool {
	switch l {
	case LevelOsnovna, LevelSrednja, LevelNapredna:
		return true
	}
	return false
}
