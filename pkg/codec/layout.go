package codec

import "fmt"

// LegacyVersionMax is the last game version that uses the short header.
const LegacyVersionMax = 102

// Layout identifies one of the two known header layouts.
type Layout int

const (
	// LayoutOld is the 8-byte header used up to version 1.2.
	LayoutOld Layout = iota
	// LayoutNew is the 13-byte header with multiplayer flags and point of view.
	LayoutNew
)

// Header field labels.
const (
	FieldGameVersion     = "game_version"
	FieldSkillLevel      = "skill_level"
	FieldEpisode         = "episode"
	FieldMap             = "map"
	FieldMultiplayerMode = "multiplayer_mode"
	FieldRespawn         = "flag_respawn"
	FieldFast            = "flag_fast"
	FieldNoMonsters      = "flag_nomonsters"
	FieldPlayerPOV       = "player_pov"
	FieldPlayer1Present  = "player1_present"
	FieldPlayer2Present  = "player2_present"
	FieldPlayer3Present  = "player3_present"
	FieldPlayer4Present  = "player4_present"
)

var (
	oldLabels = [...]string{
		FieldGameVersion, FieldSkillLevel, FieldEpisode, FieldMap,
		FieldPlayer1Present, FieldPlayer2Present, FieldPlayer3Present, FieldPlayer4Present,
	}
	newLabels = [...]string{
		FieldGameVersion, FieldSkillLevel, FieldEpisode, FieldMap,
		FieldMultiplayerMode, FieldRespawn, FieldFast, FieldNoMonsters, FieldPlayerPOV,
		FieldPlayer1Present, FieldPlayer2Present, FieldPlayer3Present, FieldPlayer4Present,
	}
)

// LayoutForVersion selects the header layout for a version byte.
// Versions up to and including 102 use the old layout.
func LayoutForVersion(version uint8) Layout {
	if version <= LegacyVersionMax {
		return LayoutOld
	}
	return LayoutNew
}

// Labels returns the field labels in wire order. The returned slice is a copy.
func (l Layout) Labels() []string {
	switch l {
	case LayoutOld:
		return append([]string(nil), oldLabels[:]...)
	default:
		return append([]string(nil), newLabels[:]...)
	}
}

// Size returns the number of header bytes the layout consumes.
func (l Layout) Size() int {
	if l == LayoutOld {
		return len(oldLabels)
	}
	return len(newLabels)
}

func (l Layout) String() string {
	switch l {
	case LayoutOld:
		return "old"
	case LayoutNew:
		return "new"
	default:
		return fmt.Sprintf("unknown(%d)", int(l))
	}
}

// Matches reports whether h carries exactly this layout's labels in order.
func (l Layout) Matches(h Header) bool {
	labels := l.Labels()
	if len(h) != len(labels) {
		return false
	}
	for i, f := range h {
		if f.Name != labels[i] {
			return false
		}
	}
	return true
}
