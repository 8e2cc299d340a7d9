package webapp

// SectionID identifies one top-level navigable view.
type SectionID string

const (
	SectionDashboard  SectionID = "dashboard"
	SectionTrainings  SectionID = "trainings"
	SectionMap        SectionID = "map"
	SectionAttendance SectionID = "attendance"
	SectionAnalytics  SectionID = "analytics"
	SectionAlerts     SectionID = "alerts"
	SectionReports    SectionID = "reports"
)

// DefaultSection is where auth transitions land.
const DefaultSection = SectionDashboard

type Requirement int

const (
	RequirePublic Requirement = iota
	RequireAuthenticated
)

// sectionOrder drives the navigation chrome.
var sectionOrder = []SectionID{
	SectionDashboard, SectionTrainings, SectionMap, SectionAttendance,
	SectionAnalytics, SectionAlerts, SectionReports,
}

// sectionPolicy maps every section to its minimum requirement. The policy
// lives here as data so it can be reviewed and tested as one unit.
var sectionPolicy = map[SectionID]Requirement{
	SectionDashboard:  RequirePublic,
	SectionTrainings:  RequirePublic,
	SectionMap:        RequirePublic,
	SectionReports:    RequirePublic,
	SectionAttendance: RequireAuthenticated,
	SectionAnalytics:  RequireAuthenticated,
	SectionAlerts:     RequireAuthenticated,
}

func Sections() []SectionID {
	res := make([]SectionID, len(sectionOrder))
	copy(res, sectionOrder)
	return res
}

// CanAccess reports whether the session may activate the section.
// Unknown sections are denied.
func CanAccess(id SectionID, sess *Session) bool {
	req, ok := sectionPolicy[id]
	if !ok {
		return false
	}
	return req == RequirePublic || sess.Authenticated()
}
