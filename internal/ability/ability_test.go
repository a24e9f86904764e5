package ability

import (
	"testing"

	"anoa.com/reportdesk/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func adminUser() *model.User {
	return &model.User{
		ID:   uuid.New(),
		Role: model.Role{Name: model.RoleAdmin},
	}
}

func regularUser() *model.User {
	return &model.User{
		ID:   uuid.New(),
		Role: model.Role{Name: model.RoleRegular},
	}
}

func reportOwnedBy(id uuid.UUID) *model.Report {
	return &model.Report{ID: uuid.New(), UserID: &id}
}

func TestAdminManagesEverything(t *testing.T) {
	admin := adminUser()
	other := regularUser()
	set := For(admin)

	assert.True(t, set.Can(ActionDelete, SubjectUser))
	assert.True(t, set.Can(ActionApprove, SubjectReport))
	assert.True(t, set.CanResource(ActionDelete, SubjectUser, other))
	assert.True(t, set.CanResource(ActionUpdate, SubjectReport, reportOwnedBy(other.ID)))
}

func TestRegularOwnershipRules(t *testing.T) {
	me := regularUser()
	other := regularUser()
	set := For(me)

	assert.True(t, set.Can(ActionCreate, SubjectReport))
	assert.True(t, set.Can(ActionRead, SubjectReport))
	assert.False(t, set.Can(ActionDelete, SubjectUser))
	assert.False(t, set.Can(ActionApprove, SubjectReport))

	assert.True(t, set.CanResource(ActionUpdate, SubjectReport, reportOwnedBy(me.ID)))
	assert.False(t, set.CanResource(ActionUpdate, SubjectReport, reportOwnedBy(other.ID)))

	assert.True(t, set.CanResource(ActionUpdate, SubjectUser, me))
	assert.False(t, set.CanResource(ActionUpdate, SubjectUser, other))
	assert.False(t, set.CanResource(ActionDelete, SubjectUser, other))
}

func TestDetachedReportFailsOwnerOnlyRules(t *testing.T) {
	me := regularUser()
	detached := &model.Report{ID: uuid.New()}

	assert.False(t, For(me).CanResource(ActionUpdate, SubjectReport, detached))
	// Admins bypass ownership, so a detached report is still theirs to edit.
	assert.True(t, For(adminUser()).CanResource(ActionUpdate, SubjectReport, detached))
}

func TestNilAndUnknownRoleGetEmptySet(t *testing.T) {
	assert.False(t, For(nil).Can(ActionRead, SubjectReport))

	stranger := &model.User{ID: uuid.New(), Role: model.Role{Name: "auditor"}}
	set := For(stranger)
	assert.False(t, set.Can(ActionRead, SubjectReport))
	assert.False(t, set.CanResource(ActionRead, SubjectReport, reportOwnedBy(stranger.ID)))
}

func TestReadIsNotUpdate(t *testing.T) {
	me := regularUser()
	set := For(me)

	assert.True(t, set.CanResource(ActionRead, SubjectUser, me))
	assert.False(t, set.Can(ActionDelete, SubjectReport))
}
