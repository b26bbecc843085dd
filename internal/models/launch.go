package models

import (
	"strings"
	"time"
)

// PatchSize selects a mission patch image variant.
type PatchSize string

const (
	PatchSmall PatchSize = "SMALL"
	PatchLarge PatchSize = "LARGE"
)

// ParsePatchSize accepts SMALL or LARGE, case-insensitively. Empty means LARGE.
func ParsePatchSize(s string) (PatchSize, bool) {
	switch strings.ToUpper(s) {
	case "", string(PatchLarge):
		return PatchLarge, true
	case string(PatchSmall):
		return PatchSmall, true
	}
	return "", false
}

type Mission struct {
	Name              string `json:"name"`
	MissionPatch      string `json:"missionPatch,omitempty"`
	MissionPatchSmall string `json:"missionPatchSmall,omitempty"`
	MissionPatchLarge string `json:"missionPatchLarge,omitempty"`
}

// Patch returns the patch for the requested size, falling back to the
// other variant when the requested one is missing. Defaults to LARGE.
func (m Mission) Patch(size PatchSize) string {
	if size == PatchSmall {
		if m.MissionPatchSmall != "" {
			return m.MissionPatchSmall
		}
		return m.MissionPatchLarge
	}
	if m.MissionPatchLarge != "" {
		return m.MissionPatchLarge
	}
	return m.MissionPatchSmall
}

type Rocket struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type Launch struct {
	ID         int       `json:"id"`
	Cursor     string    `json:"cursor"`
	Site       string    `json:"site,omitempty"`
	Mission    Mission   `json:"mission"`
	Rocket     Rocket    `json:"rocket"`
	LaunchDate *time.Time `json:"launchDate,omitempty"`
	IsBooked   bool      `json:"isBooked"`
}

// SelectMissionPatch sets Mission.MissionPatch on every launch to the given size.
func SelectMissionPatch(launches []Launch, size PatchSize) {
	for i := range launches {
		launches[i].Mission.MissionPatch = launches[i].Mission.Patch(size)
	}
}

// LaunchConnection is one page of the launch collection.
type LaunchConnection struct {
	Cursor   string   `json:"cursor,omitempty"`
	HasMore  bool     `json:"hasMore"`
	Launches []Launch `json:"launches"`
}

// TripUpdateResponse reports the outcome of a book or cancel mutation.
type TripUpdateResponse struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message"`
	Launches []Launch `json:"launches"`
}
