package lifecycle

import (
	"testing"

	"cheatreport/backend/internal/apperr"
	"cheatreport/backend/internal/models"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []models.Status{
	models.StatusNone, models.StatusSuspect, models.StatusDiscuss, models.StatusInnocent, models.StatusBanned,
}

var allPrivileges = []models.Privilege{
	models.PrivilegeNormal, models.PrivilegeAdmin, models.PrivilegeSuper, models.PrivilegeRoot,
	models.PrivilegeDev, models.PrivilegeFreezed, models.PrivilegeBlacklisted,
}

var allActions = []models.Action{
	models.ActionReport, models.ActionSuspect, models.ActionDiscuss,
	models.ActionInnocent, models.ActionGuilt, models.ActionKill,
}

func genStatus() gopter.Gen {
	return gen.IntRange(0, len(allStatuses)-1).Map(func(i int) models.Status { return allStatuses[i] })
}

func genAction() gopter.Gen {
	return gen.IntRange(0, len(allActions)-1).Map(func(i int) models.Action { return allActions[i] })
}

func genRoles() gopter.Gen {
	return gen.SliceOf(gen.IntRange(0, len(allPrivileges)-1)).Map(func(idx []int) models.PrivilegeSet {
		ps := make([]models.Privilege, 0, len(idx))
		for _, i := range idx {
			ps = append(ps, allPrivileges[i])
		}
		return models.NewPrivilegeSet(ps...)
	})
}

func TestNextStatusProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("disallowed roles never change the status", prop.ForAll(
		func(current models.Status, roles models.PrivilegeSet, action models.Action) bool {
			if CanPerform(roles, action) {
				return true
			}
			next, err := NextStatus(current, roles, action)
			return next == current && apperr.KindOf(err) == apperr.KindPermission
		},
		genStatus(), genRoles(), genAction(),
	))

	properties.Property("transitions are idempotent", prop.ForAll(
		func(current models.Status, roles models.PrivilegeSet, action models.Action) bool {
			first, err1 := NextStatus(current, roles, action)
			second, err2 := NextStatus(current, roles, action)
			if (err1 == nil) != (err2 == nil) || first != second {
				return false
			}
			if err1 != nil {
				return true
			}
			again, err := NextStatus(first, roles, action)
			return err == nil && again == first
		},
		genStatus(), genRoles(), genAction(),
	))

	properties.Property("a report never moves an open case", prop.ForAll(
		func(current models.Status, roles models.PrivilegeSet) bool {
			next, err := NextStatus(current, roles, models.ActionReport)
			if err != nil {
				return false
			}
			if current == models.StatusNone {
				return next == models.StatusSuspect
			}
			return next == current
		},
		genStatus(), genRoles(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestNextStatus_Report(t *testing.T) {
	anyone := models.NewPrivilegeSet(models.PrivilegeNormal)

	next, err := NextStatus(models.StatusNone, anyone, models.ActionReport)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuspect, next)

	next, err = NextStatus(models.StatusSuspect, anyone, models.ActionReport)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuspect, next)
	assert.False(t, Changed(models.StatusSuspect, next))

	next, err = NextStatus(models.StatusBanned, anyone, models.ActionReport)
	require.NoError(t, err)
	assert.Equal(t, models.StatusBanned, next, "a report never downgrades a ban")
}

func TestNextStatus_StaffActions(t *testing.T) {
	admin := models.NewPrivilegeSet(models.PrivilegeAdmin)

	tests := []struct {
		action models.Action
		want   models.Status
	}{
		{models.ActionSuspect, models.StatusSuspect},
		{models.ActionDiscuss, models.StatusDiscuss},
		{models.ActionInnocent, models.StatusInnocent},
		{models.ActionGuilt, models.StatusBanned},
	}
	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			next, err := NextStatus(models.StatusSuspect, admin, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, next)
		})
	}
}

func TestNextStatus_Kill(t *testing.T) {
	super := models.NewPrivilegeSet(models.PrivilegeSuper)

	for _, s := range allStatuses {
		next, err := NextStatus(s, super, models.ActionKill)
		require.NoError(t, err)
		assert.Equal(t, models.StatusBanned, next)
	}

	next, err := NextStatus(models.StatusBanned, super, models.ActionKill)
	require.NoError(t, err)
	assert.False(t, Changed(models.StatusBanned, next))

	_, err = NextStatus(models.StatusNone, models.NewPrivilegeSet(models.PrivilegeAdmin), models.ActionKill)
	assert.ErrorIs(t, err, apperr.ErrPermission, "admins cannot kill")
}

func TestNextStatus_NormalUserCannotJudge(t *testing.T) {
	normal := models.NewPrivilegeSet(models.PrivilegeNormal)

	next, err := NextStatus(models.StatusSuspect, normal, models.ActionGuilt)
	assert.ErrorIs(t, err, apperr.ErrPermission)
	assert.Equal(t, models.StatusSuspect, next)
}

func TestNextStatus_UnknownAction(t *testing.T) {
	_, err := NextStatus(models.StatusNone, models.NewPrivilegeSet(models.PrivilegeRoot), models.Action("pardon"))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
