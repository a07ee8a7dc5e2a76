package shared

// ActorKind identifies the kind of principal performing an action.
type ActorKind string

const (
	// ActorStaff is an administrative user.
	ActorStaff ActorKind = "staff"
	// ActorTeacher is a subject-group instructor.
	ActorTeacher ActorKind = "teacher"
	// ActorStudent is a student (request submission).
	ActorStudent ActorKind = "student"
)

// IsValid checks that the kind is one of the known actor kinds.
func (k ActorKind) IsValid() bool {
	switch k {
	case ActorStaff, ActorTeacher, ActorStudent:
		return true
	default:
		return false
	}
}

// Actor is the already-authenticated principal acting on an entity.
// The calling layer resolves identity; the core only records it.
// A nil *Actor means a system-triggered action (e.g. the reactivation sweep).
type Actor struct {
	Kind ActorKind
	ID   string
	Name string
}

// StaffActor builds an Actor for an administrative user.
func StaffActor(id, name string) *Actor {
	return &Actor{Kind: ActorStaff, ID: id, Name: name}
}

// TeacherActor builds an Actor for a teacher.
func TeacherActor(id, name string) *Actor {
	return &Actor{Kind: ActorTeacher, ID: id, Name: name}
}

// StudentActor builds an Actor for a student.
func StudentActor(id, name string) *Actor {
	return &Actor{Kind: ActorStudent, ID: id, Name: name}
}
