package procedure

import (
	"fmt"
	"regexp"
	"strings"
)

// Bridge membership used to be encoded only as free text inside Notes.
// Builders still write the human-readable form alongside the structured
// fields so printed treatment sheets stay meaningful, and ParseBridgeNotes
// understands every notation variant that ever shipped so old rows can be
// migrated and old bridges undone as a whole.

const mainMarker = "MAIN:"

// bridgeIDPattern matches the historical group-id notations:
// "bridge-<id>", "bridge:<id>" and "bridge_id=<id>".
var bridgeIDPattern = regexp.MustCompile(`bridge(?:-|:|_id=)([A-Za-z0-9-]+)`)

// BridgeNoteInfo is the bridge membership read out of a notes string.
type BridgeNoteInfo struct {
	GroupID string
	Role    string
	Main    bool
}

// buildBridgeNotes renders the canonical notes line for a bridge record.
func buildBridgeNotes(groupID, role string, main bool, position, complexity string, units int, adjuncts []string) string {
	var b strings.Builder
	if main {
		b.WriteString(mainMarker + " ")
	}
	fmt.Fprintf(&b, "bridge-%s role=%s", groupID, role)
	if position != "" {
		fmt.Fprintf(&b, " position=%s", position)
	}
	if main {
		fmt.Fprintf(&b, " units=%d complexity=%s", units, complexity)
		if len(adjuncts) > 0 {
			fmt.Fprintf(&b, " adjuncts=%s", strings.Join(adjuncts, ","))
		}
	}
	return b.String()
}

// ParseBridgeNotes extracts bridge membership from a legacy notes string.
// Returns ok=false when the text carries no bridge notation. Malformed text
// never errors; unreadable parts fall back to defaults.
func ParseBridgeNotes(notes string) (BridgeNoteInfo, bool) {
	m := bridgeIDPattern.FindStringSubmatch(notes)
	if m == nil {
		return BridgeNoteInfo{}, false
	}
	info := BridgeNoteInfo{GroupID: m[1]}
	lower := strings.ToLower(notes)
	switch {
	case strings.Contains(lower, RolePontic):
		info.Role = RolePontic
	case strings.Contains(lower, RoleAbutment):
		info.Role = RoleAbutment
	}
	info.Main = strings.Contains(notes, mainMarker)
	return info, true
}

// BridgeGroupOf returns the record's bridge group id, preferring the
// structured field and falling back to legacy notes notation.
func BridgeGroupOf(r *ProcedureRecord) string {
	if r.BridgeGroup != "" {
		return r.BridgeGroup
	}
	if info, ok := ParseBridgeNotes(r.Notes); ok {
		return info.GroupID
	}
	return ""
}
