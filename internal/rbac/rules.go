package rbac

// Permissions checked by the HTTP layer.
const (
	PermExamTake       = "exam:take"        // list available, load, submit
	PermResultsOwn     = "results:view-own" // completed list, own results
	PermScheduleView   = "schedule:view"
	PermExamCreate     = "exam:create"
	PermQuestionCreate = "question:create"
	PermResultsAll     = "results:view-all"
	PermAttemptRegrade = "attempt:regrade"
	PermCourseView     = "course:view"
)

// RolePermissions is the default policy. Roles are account kinds.
var RolePermissions = map[string][]string{
	"student": {
		PermExamTake,
		PermResultsOwn,
		PermScheduleView,
	},
	"instructor": {
		PermExamCreate,
		PermQuestionCreate,
		PermResultsAll,
		PermAttemptRegrade,
		PermCourseView,
	},
}
