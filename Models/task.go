package Models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Scope of a work item: one employee or one department.
const (
	ScopeIndividual = "INDIVIDUAL"
	ScopeDepartment = "DEPARTMENT"
)

// Recurrence frequencies for schedules.
const (
	FrequencyNone      = "NONE"
	FrequencyDaily     = "DAILY"
	FrequencyWeekly    = "WEEKLY"
	FrequencyMonthly   = "MONTHLY"
	FrequencyQuarterly = "QUARTERLY"
	FrequencyYearly    = "YEARLY"
)

// Aggregation rules used to roll child results into a parent instance.
const (
	AggregationSum     = "SUM"
	AggregationAverage = "AVERAGE"
	AggregationMax     = "MAX"
	AggregationMin     = "MIN"
	AggregationCount   = "COUNT"
)

// Instance / cycle statuses.
const (
	StatusPending    = "PENDING"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusApproved   = "APPROVED"
	StatusRejected   = "REJECTED"
	StatusExpired    = "EXPIRED"
)

// Approval actions recorded in the audit trail.
const (
	ApprovalActionApprove = "APPROVE"
	ApprovalActionReject  = "REJECT"
)

// TaskTemplate defines what recurring work is. Schedules attach the "when".
type TaskTemplate struct {
	gorm.Model
	CompanyID       uint     `json:"company_id" gorm:"index;not null"`
	DepartmentID    *uint    `json:"department_id"` // owning department, used as bulk-assign fallback
	Title           string   `json:"title" gorm:"not null"`
	Description     string   `json:"description" gorm:"type:text"`
	Scope           string   `json:"scope" gorm:"type:varchar(20);not null"`
	Level           int      `json:"level" gorm:"not null;default:1"`
	Unit            string   `json:"unit"`
	DefaultTarget   *float64 `json:"default_target"`
	AggregationRule string   `json:"aggregation_rule" gorm:"type:varchar(20);default:'SUM'"`
	Active          bool     `json:"active"`

	Schedules []TaskSchedule `json:"schedules,omitempty" gorm:"foreignKey:TemplateID"`
}

func (TaskTemplate) TableName() string {
	return "task_templates"
}

// TaskSchedule attaches a recurrence rule to a template.
type TaskSchedule struct {
	gorm.Model
	TemplateID uint       `json:"template_id" gorm:"index;not null"`
	Frequency  string     `json:"frequency" gorm:"type:varchar(20);not null"`
	Interval   int        `json:"interval" gorm:"not null;default:1"`
	DayOfMonth int        `json:"day_of_month"` // 1-31, only meaningful for MONTHLY
	StartDate  time.Time  `json:"start_date" gorm:"not null"`
	EndDate    *time.Time `json:"end_date"`

	Cycles []TaskCycle `json:"cycles,omitempty" gorm:"foreignKey:ScheduleID"`
}

func (TaskSchedule) TableName() string {
	return "task_schedules"
}

// TaskCycle is one concrete period generated from a schedule. PeriodEnd is the
// last instant of the period, so consecutive cycles are back-to-back.
type TaskCycle struct {
	gorm.Model
	ScheduleID  uint      `json:"schedule_id" gorm:"not null;uniqueIndex:idx_cycle_schedule_start"`
	PeriodStart time.Time `json:"period_start" gorm:"not null;uniqueIndex:idx_cycle_schedule_start"`
	PeriodEnd   time.Time `json:"period_end" gorm:"not null"`
	GeneratedAt time.Time `json:"generated_at"`
}

func (TaskCycle) TableName() string {
	return "task_cycles"
}

// StatusAt derives the cycle status from the clock; it is never stored.
func (c *TaskCycle) StatusAt(now time.Time) string {
	switch {
	case now.Before(c.PeriodStart):
		return StatusPending
	case now.After(c.PeriodEnd):
		return StatusExpired
	default:
		return StatusInProgress
	}
}

// TaskInstance is one concrete work item inside a cycle, owned by exactly one
// employee (INDIVIDUAL) or one department (DEPARTMENT). Individual instances
// keep their employee's department so approval can roll results upward.
type TaskInstance struct {
	gorm.Model
	TemplateID   uint   `json:"template_id" gorm:"index;not null"`
	CycleID      uint   `json:"cycle_id" gorm:"index;not null"`
	Scope        string `json:"scope" gorm:"type:varchar(20);not null"`
	EmployeeID   *uint  `json:"employee_id" gorm:"index"`
	DepartmentID *uint  `json:"department_id" gorm:"index"`
	Level        int    `json:"level" gorm:"not null;default:1"`
	Required     bool   `json:"required" gorm:"default:false"`

	// Denormalized from the template at fan-out time.
	Title       string   `json:"title"`
	Description string   `json:"description" gorm:"type:text"`
	Target      *float64 `json:"target"`
	Unit        string   `json:"unit"`

	// Quantity is a cached projection of the progress event log.
	Quantity float64 `json:"quantity" gorm:"not null;default:0"`
	Status   string  `json:"status" gorm:"type:varchar(20);not null;default:'PENDING';index"`

	CompletedBy  *uint      `json:"completed_by"`
	CompletedAt  *time.Time `json:"completed_at"`
	ApprovedBy   *uint      `json:"approved_by"`
	ApprovedAt   *time.Time `json:"approved_at"`
	RejectedBy   *uint      `json:"rejected_by"`
	RejectedAt   *time.Time `json:"rejected_at"`
	RejectReason string     `json:"reject_reason"`
}

func (TaskInstance) TableName() string {
	return "task_instances"
}

// TaskProgressEvent is one signed quantity adjustment against an instance.
// The event log is the source of truth; TaskInstance.Quantity is derived.
type TaskProgressEvent struct {
	gorm.Model
	InstanceID uint           `json:"instance_id" gorm:"index;not null"`
	Delta      float64        `json:"delta" gorm:"not null"`
	Source     string         `json:"source"`
	Note       string         `json:"note" gorm:"type:text"`
	OccurredAt time.Time      `json:"occurred_at"`
	ActorID    uint           `json:"actor_id"`
	Meta       datatypes.JSON `json:"meta,omitempty"`
}

func (TaskProgressEvent) TableName() string {
	return "task_progress_events"
}

// TaskApproval is the append-only approve/reject audit trail. One instance can
// accumulate several records across reject -> recomplete -> approve rounds.
type TaskApproval struct {
	gorm.Model
	InstanceID uint      `json:"instance_id" gorm:"index;not null"`
	Action     string    `json:"action" gorm:"type:varchar(20);not null"`
	Reason     string    `json:"reason" gorm:"type:text"`
	ActorID    uint      `json:"actor_id" gorm:"not null"`
	ActedAt    time.Time `json:"acted_at"`
}

func (TaskApproval) TableName() string {
	return "task_approvals"
}

// TaskAssignment binds an employee to a cycle directly, without template,
// target or progress machinery. Always leaf-level.
type TaskAssignment struct {
	gorm.Model
	CycleID    uint   `json:"cycle_id" gorm:"not null;uniqueIndex:idx_assignment_cycle_employee"`
	EmployeeID uint   `json:"employee_id" gorm:"not null;uniqueIndex:idx_assignment_cycle_employee"`
	Status     string `json:"status" gorm:"type:varchar(20);not null;default:'PENDING';index"`

	CompletionNote string     `json:"completion_note" gorm:"type:text"`
	CompletedBy    *uint      `json:"completed_by"`
	CompletedAt    *time.Time `json:"completed_at"`
	ApprovedBy     *uint      `json:"approved_by"`
	ApprovedAt     *time.Time `json:"approved_at"`
	RejectedBy     *uint      `json:"rejected_by"`
	RejectedAt     *time.Time `json:"rejected_at"`
	RejectReason   string     `json:"reject_reason"`
}

func (TaskAssignment) TableName() string {
	return "task_assignments"
}
