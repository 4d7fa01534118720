package models

// AssignmentType says who owns a newly started activity instance.
type AssignmentType string

const (
	AssignmentTypeCreator      AssignmentType = "creator"
	AssignmentTypeSpecificUser AssignmentType = "specific_user"
	AssignmentTypeDepartment   AssignmentType = "department"
	AssignmentTypePosition     AssignmentType = "position"
	AssignmentTypeManual       AssignmentType = "manual"
)

// AssignmentStrategy refines department/position assignment to a concrete user.
type AssignmentStrategy string

const (
	StrategyManual     AssignmentStrategy = "manual"
	StrategyWorkload   AssignmentStrategy = "workload"
	StrategyEfficiency AssignmentStrategy = "efficiency"
	StrategyRandom     AssignmentStrategy = "random"
)

// AssignmentConfig is the per-activity assignment rule. Exactly the fields
// relevant to Type are consulted; the rest stay zero. Stored loosely in the
// source system, modeled here as one struct validated at the boundary.
type AssignmentConfig struct {
	Type         AssignmentType     `json:"type"                    validate:"omitempty,oneof=creator specific_user department position manual"`
	Strategy     AssignmentStrategy `json:"strategy,omitempty"      validate:"omitempty,oneof=manual workload efficiency random"`
	UserID       string             `json:"user_id,omitempty"`
	DepartmentID string             `json:"department_id,omitempty"`
	PositionID   string             `json:"position_id,omitempty"`
}

// AssignmentRef identifies who currently owns the active step of an instance.
// A zero UserID with a department or position set means the step sits in that
// pool awaiting a manual claim.
type AssignmentRef struct {
	UserID       string `json:"user_id,omitempty"`
	DepartmentID string `json:"department_id,omitempty"`
	PositionID   string `json:"position_id,omitempty"`
}

// Pooled reports whether the step is unowned and waiting in a pool.
func (r AssignmentRef) Pooled() bool { return r.UserID == "" }
