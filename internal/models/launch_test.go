package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePatchSize(t *testing.T) {
	cases := map[string]PatchSize{"": PatchLarge, "LARGE": PatchLarge, "small": PatchSmall, "SMALL": PatchSmall}
	for in, want := range cases {
		got, ok := ParsePatchSize(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParsePatchSize("MEDIUM")
	assert.False(t, ok)
}

func TestMissionPatchFallsBack(t *testing.T) {
	both := Mission{MissionPatchSmall: "small.png", MissionPatchLarge: "large.png"}
	assert.Equal(t, "small.png", both.Patch(PatchSmall))
	assert.Equal(t, "large.png", both.Patch(PatchLarge))

	onlyLarge := Mission{MissionPatchLarge: "large.png"}
	assert.Equal(t, "large.png", onlyLarge.Patch(PatchSmall))

	onlySmall := Mission{MissionPatchSmall: "small.png"}
	assert.Equal(t, "small.png", onlySmall.Patch(PatchLarge))

	assert.Empty(t, Mission{}.Patch(PatchSmall))
}

func TestSelectMissionPatch(t *testing.T) {
	launches := []Launch{
		{ID: 1, Mission: Mission{MissionPatchSmall: "1s.png", MissionPatchLarge: "1l.png"}},
		{ID: 2, Mission: Mission{MissionPatchLarge: "2l.png"}},
	}

	SelectMissionPatch(launches, PatchSmall)

	assert.Equal(t, "1s.png", launches[0].Mission.MissionPatch)
	assert.Equal(t, "2l.png", launches[1].Mission.MissionPatch)
}
