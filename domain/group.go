package domain

import "time"

type GroupID string

// Group is the membership collaborator's record: who belongs, who
// administers. Membership is read at routing time, never cached by the core.
type Group struct {
	ID        GroupID    `json:"id"`
	Name      string     `json:"name"`
	Image     string     `json:"image,omitempty"`
	Admin     Identity   `json:"admin"`
	Members   []Identity `json:"members"`
	CreatedAt time.Time  `json:"created_at"`
}

func (g Group) HasMember(id Identity) bool {
	for _, m := range g.Members {
		if m == id {
			return true
		}
	}
	return false
}
