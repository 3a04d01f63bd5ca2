package engine

import "toll-engine/internal/model"

// Classification is the role a sighting plays for a trip session.
type Classification int

const (
	ClassEntry Classification = iota
	ClassExit
	ClassIntermediateExpected
	ClassIntermediateUnexpected
)

func (c Classification) String() string {
	switch c {
	case ClassEntry:
		return "ENTRY"
	case ClassExit:
		return "EXIT"
	case ClassIntermediateExpected:
		return "INTERMEDIATE_EXPECTED"
	case ClassIntermediateUnexpected:
		return "INTERMEDIATE_UNEXPECTED"
	}
	return "UNKNOWN"
}

// isEntryCamera reports whether the camera may open a trip: an EDGE
// camera heading some registered pathway, or any EDGE camera when the
// zone has no pathways.
func isEntryCamera(snap ZoneSnapshot, code string) bool {
	site, ok := snap.Sites[code]
	if !ok || site.Role != model.CameraRoleEdge {
		return false
	}
	if len(snap.Pathways) == 0 {
		return true
	}
	for _, path := range snap.Pathways {
		if path[0] == code {
			return true
		}
	}
	return false
}

// isExitCamera is the symmetric check against pathway tails.
func isExitCamera(snap ZoneSnapshot, code string) bool {
	site, ok := snap.Sites[code]
	if !ok || site.Role != model.CameraRoleEdge {
		return false
	}
	if len(snap.Pathways) == 0 {
		return true
	}
	for _, path := range snap.Pathways {
		if path[len(path)-1] == code {
			return true
		}
	}
	return false
}

// classify decides the role of a sighting for an open session. An exit
// camera closes any session that already has a sighting; otherwise the
// camera is an intermediate, expected when the observed sequence plus
// this camera still fits some registered pathway in order.
func classify(snap ZoneSnapshot, code string, observed []string) Classification {
	if len(observed) == 0 {
		if isEntryCamera(snap, code) {
			return ClassEntry
		}
		return ClassIntermediateUnexpected
	}
	if isExitCamera(snap, code) {
		return ClassExit
	}

	next := append(append([]string(nil), observed...), code)
	for _, path := range snap.Pathways {
		if isSubsequence(next, path) {
			return ClassIntermediateExpected
		}
	}
	return ClassIntermediateUnexpected
}

// pathwayMatched reports whether the full sighting sequence of a
// closing trip followed a registered pathway end to end. Skipped
// intermediate cameras are permitted; out-of-order or off-path cameras
// are not. A zone without pathways constrains nothing.
func pathwayMatched(snap ZoneSnapshot, sightings []model.Sighting) bool {
	if len(snap.Pathways) == 0 {
		return true
	}

	observed := collapseCodes(sightings)
	if len(observed) < 2 {
		return false
	}
	for _, path := range snap.Pathways {
		if observed[0] == path[0] && observed[len(observed)-1] == path[len(path)-1] && isSubsequence(observed, path) {
			return true
		}
	}
	return false
}

// isSubsequence reports whether seq appears in path in order, gaps
// allowed.
func isSubsequence(seq, path []string) bool {
	i := 0
	for _, code := range path {
		if i < len(seq) && seq[i] == code {
			i++
		}
	}
	return i == len(seq)
}

// collapseCodes extracts the camera sequence with consecutive repeats
// folded, so a vehicle lingering past the cooldown window does not
// break pathway matching.
func collapseCodes(sightings []model.Sighting) []string {
	codes := make([]string, 0, len(sightings))
	for _, s := range sightings {
		if len(codes) > 0 && codes[len(codes)-1] == s.CameraCode {
			continue
		}
		codes = append(codes, s.CameraCode)
	}
	return codes
}
