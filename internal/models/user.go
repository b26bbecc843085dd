package models

import "time"

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	Trips     []Launch  `json:"trips,omitempty"`
}

type Trip struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	LaunchID  int       `json:"launchId"`
	CreatedAt time.Time `json:"createdAt"`
}

// BookedLaunchIDs returns the set of launch ids covered by trips.
func BookedLaunchIDs(trips []Trip) map[int]bool {
	ids := make(map[int]bool, len(trips))
	for _, t := range trips {
		ids[t.LaunchID] = true
	}
	return ids
}
