// Package models holds the project aggregate used by the team-member
// backfill.
package models

import "time"

// Project is one project record. TeamMembers is a flat list of member
// emails; ordering is preserved by every write.
type Project struct {
	ID          string
	Name        string
	Status      string
	Archived    bool
	TeamMembers []string
	UpdatedAt   time.Time
}

// HasMember reports whether the email is already on the team, by exact
// match; membership lists store addresses verbatim.
func (p *Project) HasMember(email string) bool {
	for _, member := range p.TeamMembers {
		if member == email {
			return true
		}
	}
	return false
}
