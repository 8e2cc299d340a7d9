package training

// Project returns the authorization-filtered view of events for the given
// session state: anonymous visitors see public events only, authenticated
// principals see everything. Every rendering site that lists events derives
// its view through this same rule; there is no shared "visible events" cache.
func Project(events []Event, authenticated bool) []Event {
	if authenticated {
		return events
	}
	visible := make([]Event, 0, len(events))
	for _, e := range events {
		if e.Visibility == VisibilityPublic {
			visible = append(visible, e)
		}
	}
	return visible
}
