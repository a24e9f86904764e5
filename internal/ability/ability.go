// Package ability derives the set of actions an authenticated user may
// perform from their role. Rules are declared in one table so the
// role-to-capability mapping stays auditable; derivation is pure and cheap
// enough to recompute on every request.
package ability

import (
	"anoa.com/reportdesk/internal/model"
	"github.com/google/uuid"
)

type Action string

const (
	ActionRead    Action = "read"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionApprove Action = "approve"
	// ActionManage grants every action on a subject.
	ActionManage Action = "manage"
)

type Subject string

const (
	SubjectUser   Subject = "user"
	SubjectReport Subject = "report"
)

// Owned is a resource instance with an optional owner. A nil owner means
// the resource is detached and only unconditional rules apply to it.
type Owned interface {
	OwnerID() *uuid.UUID
}

// Rule permits one (action, subject) pair. OwnerOnly restricts the rule to
// resources owned by the requesting user; manage rules never carry it.
type Rule struct {
	Action    Action
	Subject   Subject
	OwnerOnly bool
}

// roleRules is the single source of truth for role capabilities.
var roleRules = map[string][]Rule{
	model.RoleAdmin: {
		{Action: ActionManage, Subject: SubjectUser},
		{Action: ActionManage, Subject: SubjectReport},
	},
	model.RoleRegular: {
		{Action: ActionRead, Subject: SubjectUser, OwnerOnly: true},
		{Action: ActionUpdate, Subject: SubjectUser, OwnerOnly: true},
		{Action: ActionCreate, Subject: SubjectReport},
		{Action: ActionRead, Subject: SubjectReport},
		{Action: ActionUpdate, Subject: SubjectReport, OwnerOnly: true},
	},
}

// Set is the capability set of a single user for a single request.
type Set struct {
	userID uuid.UUID
	rules  []Rule
}

// For builds the capability set for a user. A nil user, or one with an
// unknown role, gets an empty set.
func For(u *model.User) Set {
	if u == nil {
		return Set{}
	}
	return Set{
		userID: u.ID,
		rules:  roleRules[u.Role.Name],
	}
}

// Can reports whether any rule permits the action on the subject type,
// ignoring ownership conditions. It is the route-level gate: ownership is
// checked against the loaded resource with CanResource.
func (s Set) Can(action Action, subject Subject) bool {
	for _, r := range s.rules {
		if r.Subject == subject && (r.Action == action || r.Action == ActionManage) {
			return true
		}
	}
	return false
}

// CanResource reports whether the action is permitted on a concrete
// resource instance. Owner-only rules require the resource's owner to be
// the requesting user; manage rules bypass ownership entirely.
func (s Set) CanResource(action Action, subject Subject, res Owned) bool {
	for _, r := range s.rules {
		if r.Subject != subject {
			continue
		}
		if r.Action != action && r.Action != ActionManage {
			continue
		}
		if !r.OwnerOnly {
			return true
		}
		if owner := res.OwnerID(); owner != nil && *owner == s.userID {
			return true
		}
	}
	return false
}
