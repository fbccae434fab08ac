package services

import (
	"fmt"
	"sort"
	"time"

	"studyplan_go/database"
	"studyplan_go/models"
	"studyplan_go/services/notifications"
	"studyplan_go/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CarryoverOptions selects which overdue daily work a run migrates.
type CarryoverOptions struct {
	Cutoff    time.Time // plans dated strictly before this move; defaults to today
	TenantID  *uint
	StudentID *uint
	DryRun    bool
}

// CarryoverPlanResult is one migrated (or migratable, in dry runs) plan.
type CarryoverPlanResult struct {
	PlanID            uint      `json:"plan_id"`
	Kind              string    `json:"kind"` // plan or adhoc
	Title             string    `json:"title"`
	PlanDate          time.Time `json:"plan_date"`
	CarryoverFromDate time.Time `json:"carryover_from_date"`
	CarryoverCount    int       `json:"carryover_count"`
}

// CarryoverGroup groups results per (tenant, student) for reporting.
type CarryoverGroup struct {
	TenantID  uint                  `json:"tenant_id"`
	StudentID uint                  `json:"student_id"`
	Plans     []CarryoverPlanResult `json:"plans"`
}

// CarryoverReport summarizes one batch run. ProcessedCount counts only rows
// that actually succeeded; failed rows are skipped and logged, never abort
// the run.
type CarryoverReport struct {
	Cutoff         time.Time        `json:"cutoff"`
	DryRun         bool             `json:"dry_run"`
	ProcessedCount int              `json:"processed_count"`
	FailedCount    int              `json:"failed_count"`
	Groups         []CarryoverGroup `json:"groups"`
}

// CarryoverEligible reports whether a daily plan is overdue and incomplete
// at the given cutoff. Plans already moved to the backlog are excluded, which
// is what makes repeated runs a no-op for migrated plans.
func CarryoverEligible(containerType, status string, isActive bool, planDate, cutoff time.Time) bool {
	if containerType != models.ContainerDaily || !isActive {
		return false
	}
	if status == models.PlanStatusCompleted {
		return false
	}
	return utils.DateOnly(planDate).Before(utils.DateOnly(cutoff))
}

// ApplyCarryover mutates a plan into the backlog container, bumping the
// provenance counter. CarryoverFromDate keeps the earliest date the work was
// originally scheduled for and is never overwritten by a later date.
func ApplyCarryover(p *models.Plan) {
	p.ContainerType = models.ContainerUnfinished
	p.CarryoverCount++
	if p.CarryoverFromDate == nil {
		d := utils.DateOnly(p.PlanDate)
		p.CarryoverFromDate = &d
	}
}

// ApplyAdHocCarryover is ApplyCarryover for ad-hoc plans.
func ApplyAdHocCarryover(p *models.AdHocPlan) {
	p.ContainerType = models.ContainerUnfinished
	p.CarryoverCount++
	if p.CarryoverFromDate == nil {
		d := utils.DateOnly(p.PlanDate)
		p.CarryoverFromDate = &d
	}
}

// CarryoverService migrates overdue incomplete daily work into the backlog.
type CarryoverService struct {
	db    *gorm.DB
	audit *AuditService
	line  *LineMessagingService
}

// NewCarryoverService creates a service bound to the global database.
func NewCarryoverService() *CarryoverService {
	return &CarryoverService{
		db:    database.DB,
		audit: NewAuditService(),
		line:  NewLineMessagingService(),
	}
}

// Run executes one carryover batch. With DryRun set, nothing is mutated and
// the report lists what a real run would migrate.
func (cs *CarryoverService) Run(scope Scope, opts CarryoverOptions) (*CarryoverReport, error) {
	cutoff := opts.Cutoff
	if cutoff.IsZero() {
		cutoff = time.Now()
	}
	cutoff = utils.DateOnly(cutoff)

	report := &CarryoverReport{Cutoff: cutoff, DryRun: opts.DryRun}
	grouped := make(map[[2]uint][]CarryoverPlanResult)

	plans, adhocs, err := cs.selectEligible(opts, cutoff)
	if err != nil {
		return nil, err
	}

	for i := range plans {
		p := &plans[i]
		ApplyCarryover(p)
		if !opts.DryRun {
			if err := cs.persistPlan(p); err != nil {
				logrus.WithError(err).WithField("plan_id", p.ID).Error("Carryover failed for plan; skipping")
				report.FailedCount++
				continue
			}
		}
		key := [2]uint{p.TenantID, p.StudentID}
		grouped[key] = append(grouped[key], CarryoverPlanResult{
			PlanID:            p.ID,
			Kind:              "plan",
			Title:             p.Title,
			PlanDate:          p.PlanDate,
			CarryoverFromDate: *p.CarryoverFromDate,
			CarryoverCount:    p.CarryoverCount,
		})
		report.ProcessedCount++
	}

	for i := range adhocs {
		a := &adhocs[i]
		ApplyAdHocCarryover(a)
		if !opts.DryRun {
			if err := cs.persistAdHoc(a); err != nil {
				logrus.WithError(err).WithField("adhoc_plan_id", a.ID).Error("Carryover failed for ad-hoc plan; skipping")
				report.FailedCount++
				continue
			}
		}
		key := [2]uint{a.TenantID, a.StudentID}
		grouped[key] = append(grouped[key], CarryoverPlanResult{
			PlanID:            a.ID,
			Kind:              "adhoc",
			Title:             a.Title,
			PlanDate:          a.PlanDate,
			CarryoverFromDate: *a.CarryoverFromDate,
			CarryoverCount:    a.CarryoverCount,
		})
		report.ProcessedCount++
	}

	keys := make([][2]uint, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})
	for _, key := range keys {
		report.Groups = append(report.Groups, CarryoverGroup{
			TenantID:  key[0],
			StudentID: key[1],
			Plans:     grouped[key],
		})
	}

	if !opts.DryRun && report.ProcessedCount > 0 {
		cs.audit.Record(scope, ActionCarryover, "plan", 0, map[string]interface{}{
			"cutoff":    cutoff.Format("2006-01-02"),
			"processed": report.ProcessedCount,
			"failed":    report.FailedCount,
			"groups":    len(report.Groups),
		})
		cs.notifyParents(report)
		cs.notifyStaff(report)
	}

	logrus.WithFields(logrus.Fields{
		"cutoff":    cutoff.Format("2006-01-02"),
		"dry_run":   opts.DryRun,
		"processed": report.ProcessedCount,
		"failed":    report.FailedCount,
	}).Info("Carryover batch finished")

	return report, nil
}

func (cs *CarryoverService) selectEligible(opts CarryoverOptions, cutoff time.Time) ([]models.Plan, []models.AdHocPlan, error) {
	base := func(q *gorm.DB) *gorm.DB {
		q = q.Where("container_type = ? AND is_active = ? AND status != ? AND plan_date < ?",
			models.ContainerDaily, true, models.PlanStatusCompleted, cutoff)
		if opts.TenantID != nil {
			q = q.Where("tenant_id = ?", *opts.TenantID)
		}
		if opts.StudentID != nil {
			q = q.Where("student_id = ?", *opts.StudentID)
		}
		return q
	}

	var plans []models.Plan
	if err := base(cs.db.Model(&models.Plan{})).Order("plan_date ASC").Find(&plans).Error; err != nil {
		return nil, nil, err
	}

	var adhocs []models.AdHocPlan
	if err := base(cs.db.Model(&models.AdHocPlan{})).Order("plan_date ASC").Find(&adhocs).Error; err != nil {
		return nil, nil, err
	}

	return plans, adhocs, nil
}

// persistPlan writes the migration guarded on the row still being daily, so
// a concurrent run cannot double-count the same plan.
func (cs *CarryoverService) persistPlan(p *models.Plan) error {
	res := cs.db.Model(&models.Plan{}).
		Where("id = ? AND container_type = ?", p.ID, models.ContainerDaily).
		Updates(map[string]interface{}{
			"container_type":      p.ContainerType,
			"carryover_count":     p.CarryoverCount,
			"carryover_from_date": p.CarryoverFromDate,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("plan %d already migrated", p.ID)
	}
	return nil
}

func (cs *CarryoverService) persistAdHoc(p *models.AdHocPlan) error {
	res := cs.db.Model(&models.AdHocPlan{}).
		Where("id = ? AND container_type = ?", p.ID, models.ContainerDaily).
		Updates(map[string]interface{}{
			"container_type":      p.ContainerType,
			"carryover_count":     p.CarryoverCount,
			"carryover_from_date": p.CarryoverFromDate,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("ad-hoc plan %d already migrated", p.ID)
	}
	return nil
}

// notifyStaff posts one in-app summary per affected tenant.
func (cs *CarryoverService) notifyStaff(report *CarryoverReport) {
	perTenant := make(map[uint]int)
	for _, group := range report.Groups {
		perTenant[group.TenantID] += len(group.Plans)
	}
	for tenantID, count := range perTenant {
		notifyTenantStaff(tenantID,
			"Carryover completed",
			fmt.Sprintf("%d unfinished plan(s) were moved to the backlog for %s.",
				count, report.Cutoff.Format("2006-01-02")),
			notifications.TypeWarning)
	}
}

// notifyParents pushes a LINE summary to parents whose students had work
// carried over, when the LINE integration is configured.
func (cs *CarryoverService) notifyParents(report *CarryoverReport) {
	if cs.line == nil || cs.line.Bot == nil {
		return
	}

	for _, group := range report.Groups {
		var student models.Student
		if err := cs.db.First(&student, group.StudentID).Error; err != nil {
			continue
		}
		if student.ParentLineID == "" {
			continue
		}
		message := fmt.Sprintf("%s has %d unfinished study plan(s) moved to the backlog. Please check today's planner.",
			student.Nickname, len(group.Plans))
		if err := cs.line.PushText(student.ParentLineID, message); err != nil {
			logrus.WithError(err).WithField("student_id", student.ID).Warn("LINE carryover notice failed")
		}
	}
}
