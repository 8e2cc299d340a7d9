package webapp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/safestep/core/user"
)

func TestCanAccess(t *testing.T) {
	anon := &Session{}
	authed := &Session{}
	authed.setAuthenticated(user.Principal{ID: 1, Name: "Asha Singh", Role: user.RoleParticipant})

	public := []SectionID{SectionDashboard, SectionTrainings, SectionMap, SectionReports}
	restricted := []SectionID{SectionAttendance, SectionAnalytics, SectionAlerts}

	for _, id := range public {
		assert.True(t, CanAccess(id, anon), string(id))
		assert.True(t, CanAccess(id, authed), string(id))
	}
	for _, id := range restricted {
		assert.False(t, CanAccess(id, anon), string(id))
		assert.True(t, CanAccess(id, authed), string(id))
	}

	// unknown sections are denied for everyone
	assert.False(t, CanAccess("settings", anon))
	assert.False(t, CanAccess("settings", authed))
}

func TestSections(t *testing.T) {
	secs := Sections()
	assert.Len(t, secs, len(sectionPolicy))
	for _, id := range secs {
		_, ok := sectionPolicy[id]
		assert.True(t, ok, string(id))
	}
	assert.Equal(t, DefaultSection, secs[0])
}
