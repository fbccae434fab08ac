package models

import (
	"database/sql/driver"
	"time"

	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSON field type for GORM
type JSON []byte

func (j JSON) Value() (driver.Value, error) {
	if j.IsNull() {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	s, ok := value.([]byte)
	if !ok {
		return nil
	}
	*j = append((*j)[0:0], s...)
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}

func (j JSON) IsNull() bool {
	return len(j) == 0 || string(j) == "null"
}

// Plan container buckets. A plan is in exactly one container at a time;
// container changes are explicit move operations.
const (
	ContainerDaily      = "daily"
	ContainerWeekly     = "weekly"
	ContainerUnfinished = "unfinished"
)

// Plan lifecycle statuses
const (
	PlanStatusPending    = "pending"
	PlanStatusInProgress = "in_progress"
	PlanStatusCompleted  = "completed"
	PlanStatusSkipped    = "skipped"
	PlanStatusCancelled  = "cancelled"
)

// TimeSlot kinds. study and self_study are flexible slots that plans are
// placed inside; the rest map 1:1 to non-study block types.
const (
	SlotKindStudy     = "study"
	SlotKindSelfStudy = "self_study"
	SlotKindMeal      = "meal"
	SlotKindSleep     = "sleep"
	SlotKindAcademy   = "academy"
	SlotKindTravel    = "travel"
	SlotKindOther     = "other"
)

// Tenant model - one tutoring academy (branch)
type Tenant struct {
	BaseModel
	Name    string `json:"name" gorm:"size:255;not null"`
	Code    string `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Address string `json:"address" gorm:"size:500"`
	Phone   string `json:"phone" gorm:"size:20"`
	Active  bool   `json:"active" gorm:"default:true"`

	// Relationships
	Users    []User    `json:"users,omitempty" gorm:"foreignKey:TenantID"`
	Students []Student `json:"students,omitempty" gorm:"foreignKey:TenantID"`
}

// User model - staff and student accounts
type User struct {
	BaseModel
	Username string `json:"username" gorm:"size:100;not null;uniqueIndex"`
	Password string `json:"-" gorm:"size:255;not null"`
	Email    string `json:"email" gorm:"size:255;uniqueIndex"`
	Phone    string `json:"phone" gorm:"size:20"`
	LineID   string `json:"line_id" gorm:"size:100"`
	Role     string `json:"role" gorm:"size:50;not null;default:'student';type:enum('owner','admin','teacher','student')"` // owner, admin, teacher, student
	TenantID uint   `json:"tenant_id" gorm:"not null"`
	Status   string `json:"status" gorm:"size:50;not null;default:'active';type:enum('active','inactive','suspended')"` // active, inactive, suspended

	// Relationships
	Tenant  Tenant   `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
	Student *Student `json:"student,omitempty" gorm:"foreignKey:UserID"`
}

// Student model
type Student struct {
	BaseModel
	UserID         uint       `json:"user_id" gorm:"uniqueIndex;not null"`
	TenantID       uint       `json:"tenant_id" gorm:"not null;index"`
	FirstName      string     `json:"first_name" gorm:"size:100"`
	LastName       string     `json:"last_name" gorm:"size:100"`
	Nickname       string     `json:"nickname" gorm:"size:100"`
	DateOfBirth    *time.Time `json:"date_of_birth"`
	GradeLevel     string     `json:"grade_level" gorm:"size:50"`
	School         string     `json:"school" gorm:"size:200"`
	ParentName     string     `json:"parent_name" gorm:"size:200"`
	ParentPhone    string     `json:"parent_phone" gorm:"size:20"`
	ParentLineID   string     `json:"parent_line_id" gorm:"size:100"`
	LearningGoals  string     `json:"learning_goals" gorm:"type:text"`
	ManagerComment string     `json:"manager_comment" gorm:"type:text"`

	// Relationships
	User   User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Tenant Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
}

// PlanGroup model - a content assignment (book or lecture) that a set of
// plans with the same group id is derived from
type PlanGroup struct {
	BaseModel
	TenantID    uint   `json:"tenant_id" gorm:"not null;index"`
	StudentID   uint   `json:"student_id" gorm:"not null;index"`
	ContentType string `json:"content_type" gorm:"size:50;not null;default:'book';type:enum('book','lecture','custom')"` // book, lecture, custom
	Title       string `json:"title" gorm:"size:255;not null"`
	Subject     string `json:"subject" gorm:"size:100"`
	UnitKind    string `json:"unit_kind" gorm:"size:20;not null;default:'pages';type:enum('pages','minutes')"` // pages, minutes
	TotalStart  int    `json:"total_start" gorm:"not null;default:0"`
	TotalEnd    int    `json:"total_end" gorm:"not null;default:0"`

	// Relationships
	Student Student `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	Plans   []Plan  `json:"plans,omitempty" gorm:"foreignKey:PlanGroupID"`
}

// Plan model - one scheduled unit of work
type Plan struct {
	BaseModel
	TenantID    uint  `json:"tenant_id" gorm:"not null;index:idx_plans_scope"`
	StudentID   uint  `json:"student_id" gorm:"not null;index:idx_plans_scope"`
	PlanGroupID *uint `json:"plan_group_id" gorm:"index"` // null = ungrouped / ad-hoc origin

	ContainerType string    `json:"container_type" gorm:"size:20;not null;default:'daily';type:enum('daily','weekly','unfinished');index"` // daily, weekly, unfinished
	PlanDate      time.Time `json:"plan_date" gorm:"not null;index"`
	StartTime     *string   `json:"start_time" gorm:"size:8"` // "HH:MM", daily plans only
	EndTime       *string   `json:"end_time" gorm:"size:8"`
	Sequence      int       `json:"sequence" gorm:"not null;default:0"`

	Title           string `json:"title" gorm:"size:255"`
	PlannedStart    int    `json:"planned_start" gorm:"not null;default:0"` // page or minute range begin
	PlannedEnd      int    `json:"planned_end" gorm:"not null;default:0"`
	OriginalVolume  int    `json:"original_volume" gorm:"not null;default:0"` // snapshot taken before a volume edit
	CompletedAmount int    `json:"completed_amount" gorm:"not null;default:0"`

	Status   string `json:"status" gorm:"size:50;not null;default:'pending';type:enum('pending','in_progress','completed','skipped','cancelled')"`
	IsActive bool   `json:"is_active" gorm:"not null;default:true"`

	// Carryover provenance. CarryoverFromDate keeps the earliest date the
	// work was originally scheduled for and is never overwritten.
	CarryoverCount    int        `json:"carryover_count" gorm:"not null;default:0"`
	CarryoverFromDate *time.Time `json:"carryover_from_date"`

	// Relationships
	Student   Student    `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	PlanGroup *PlanGroup `json:"plan_group,omitempty" gorm:"foreignKey:PlanGroupID"`
}

// Volume is the amount of work on the plan (pages or minutes).
func (p *Plan) Volume() int {
	return p.PlannedEnd - p.PlannedStart
}

// AdHocPlan model - lightweight task without a volume range. Participates in
// container moves and carryover but never in volume redistribution.
type AdHocPlan struct {
	BaseModel
	TenantID         uint      `json:"tenant_id" gorm:"not null;index"`
	StudentID        uint      `json:"student_id" gorm:"not null;index"`
	Title            string    `json:"title" gorm:"size:255;not null"`
	EstimatedMinutes int       `json:"estimated_minutes" gorm:"not null;default:0"`
	PlanDate         time.Time `json:"plan_date" gorm:"not null;index"`
	ContainerType    string    `json:"container_type" gorm:"size:20;not null;default:'daily';type:enum('daily','weekly','unfinished')"`
	Status           string    `json:"status" gorm:"size:50;not null;default:'pending';type:enum('pending','in_progress','completed','skipped','cancelled')"`
	IsActive         bool      `json:"is_active" gorm:"not null;default:true"`

	CarryoverCount    int        `json:"carryover_count" gorm:"not null;default:0"`
	CarryoverFromDate *time.Time `json:"carryover_from_date"`

	// Relationships
	Student Student `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

// NonStudyBlock model - fixed interval on a student's day (meal, sleep,
// academy, travel). May be a per-day override of a planner TimeSlot.
type NonStudyBlock struct {
	BaseModel
	TenantID   uint      `json:"tenant_id" gorm:"not null;index"`
	StudentID  uint      `json:"student_id" gorm:"not null;index"`
	BlockDate  time.Time `json:"block_date" gorm:"not null;index"`
	Type       string    `json:"type" gorm:"size:20;not null;type:enum('meal','sleep','academy','travel','other')"` // meal, sleep, academy, travel, other
	StartTime  string    `json:"start_time" gorm:"size:8;not null"`                                                 // "HH:MM"
	EndTime    string    `json:"end_time" gorm:"size:8;not null"`
	Label      string    `json:"label" gorm:"size:255"`
	TimeSlotID *uint     `json:"time_slot_id" gorm:"index"` // set when the block overrides a template slot

	// Relationships
	Student  Student   `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	TimeSlot *TimeSlot `json:"time_slot,omitempty" gorm:"foreignKey:TimeSlotID"`
}

// TimeSlot model - planner-defined template interval for a day. study and
// self_study are flexible (content placed inside); others are fixed.
type TimeSlot struct {
	BaseModel
	TenantID  uint   `json:"tenant_id" gorm:"not null;index"`
	StudentID uint   `json:"student_id" gorm:"not null;index"`
	Weekday   int    `json:"weekday" gorm:"not null;default:0"` // 0=Sunday ... 6=Saturday
	Kind      string `json:"kind" gorm:"size:20;not null;type:enum('study','self_study','meal','sleep','academy','travel','other')"`
	StartTime string `json:"start_time" gorm:"size:8;not null"` // "HH:MM"
	EndTime   string `json:"end_time" gorm:"size:8;not null"`
	Label     string `json:"label" gorm:"size:255"`
	Active    bool   `json:"active" gorm:"not null;default:true"`

	// Relationships
	Student Student `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

// IsFlexible reports whether content is placed inside the slot.
func (ts *TimeSlot) IsFlexible() bool {
	return ts.Kind == SlotKindStudy || ts.Kind == SlotKindSelfStudy
}

// AuditLog model for activity and domain-event tracking
type AuditLog struct {
	BaseModel
	UserID     uint   `json:"user_id"`
	TenantID   uint   `json:"tenant_id" gorm:"index"`
	Action     string `json:"action" gorm:"size:100;not null"`
	Resource   string `json:"resource" gorm:"size:100;not null"`
	ResourceID uint   `json:"resource_id"`
	Details    JSON   `json:"details" gorm:"type:json"`
	IPAddress  string `json:"ip_address" gorm:"size:45"`
	UserAgent  string `json:"user_agent" gorm:"size:500"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Notification model
type Notification struct {
	BaseModel
	UserID  uint       `json:"user_id" gorm:"not null"`
	Title   string     `json:"title" gorm:"size:255;not null"`
	Message string     `json:"message" gorm:"type:text;not null"`
	Type    string     `json:"type" gorm:"size:50;not null;type:enum('info','warning','error','success')"` // info, warning, error, success
	Read    bool       `json:"read" gorm:"default:false"`
	ReadAt  *time.Time `json:"read_at"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// AuditArchive model for tracking audit logs archived to S3
type AuditArchive struct {
	BaseModel
	FileName    string    `json:"file_name" gorm:"size:255;not null"`
	S3Key       string    `json:"s3_key" gorm:"size:500;not null"`
	StartDate   time.Time `json:"start_date" gorm:"not null"`
	EndDate     time.Time `json:"end_date" gorm:"not null"`
	RecordCount int       `json:"record_count" gorm:"not null"`
	FileSize    int64     `json:"file_size" gorm:"not null"`
	Status      string    `json:"status" gorm:"size:50;not null;default:'pending';type:enum('pending','completed','failed')"` // pending, completed, failed
	Error       string    `json:"error" gorm:"type:text"`
}
