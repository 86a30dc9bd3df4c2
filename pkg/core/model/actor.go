package model

// Actor is the authorization context for an operation: who is acting and
// what their scope covers. It is built by the authentication layer and
// passed in; the core never derives it.
type Actor struct {
	ID           string
	Name         string
	Role         Role
	DepartmentID string

	// crossDepartment grants department-scope bypass (super-admins).
	crossDepartment bool
}

func NewCitizenActor(id, name string) Actor {
	return Actor{ID: id, Name: name, Role: RoleCitizen}
}

func NewWorkerActor(id, name, departmentID string) Actor {
	return Actor{ID: id, Name: name, Role: RoleWorker, DepartmentID: departmentID}
}

func NewAdminActor(id, name, departmentID string) Actor {
	return Actor{ID: id, Name: name, Role: RoleAdmin, DepartmentID: departmentID}
}

func NewSuperAdminActor(id, name string) Actor {
	return Actor{ID: id, Name: name, Role: RoleSuperAdmin, crossDepartment: true}
}

// CanManageDepartment reports whether the actor may perform admin actions
// (assignment, rejection, leave review) on the given department's
// complaints. Department admins are limited to their own department; the
// cross-department capability bypasses the scope check.
func (a Actor) CanManageDepartment(departmentID string) bool {
	if a.crossDepartment {
		return true
	}
	return a.Role == RoleAdmin && a.DepartmentID == departmentID
}
