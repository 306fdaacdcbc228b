package task

// CanCreate reports whether the actor may create tasks. Any authenticated
// actor may.
func CanCreate(actorID uint) bool {
	return actorID != 0
}

// CanView reports whether the actor is the task's creator or assignee.
func CanView(actorID uint, t Task) bool {
	if actorID == 0 {
		return false
	}
	return actorID == t.CreatedBy || (t.AssignedTo != nil && actorID == *t.AssignedTo)
}

// CanUpdate reports whether the actor created the task. Assignees can view
// but not modify.
func CanUpdate(actorID uint, t Task) bool {
	return actorID != 0 && actorID == t.CreatedBy
}

// CanDelete has the same rule as CanUpdate.
func CanDelete(actorID uint, t Task) bool {
	return CanUpdate(actorID, t)
}
