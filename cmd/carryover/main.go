package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"studyplan_go/config"
	"studyplan_go/database"
	"studyplan_go/services"
	"studyplan_go/utils"

	"github.com/sirupsen/logrus"
)

// buildOptions validates the flag combination and assembles the run options.
// now supplies the default cutoff.
func buildOptions(dryRun bool, tenantID, studentID uint, cutoffStr string, now time.Time) (services.CarryoverOptions, error) {
	if studentID != 0 && tenantID == 0 {
		return services.CarryoverOptions{}, errors.New("--student requires --tenant")
	}

	cutoff := now
	if cutoffStr != "" {
		parsed, err := utils.ParseDate(cutoffStr)
		if err != nil {
			return services.CarryoverOptions{}, fmt.Errorf("invalid --cutoff %q: expected YYYY-MM-DD", cutoffStr)
		}
		cutoff = parsed
	}

	opts := services.CarryoverOptions{
		Cutoff: cutoff,
		DryRun: dryRun,
	}
	if tenantID != 0 {
		tid := tenantID
		opts.TenantID = &tid
	}
	if studentID != 0 {
		sid := studentID
		opts.StudentID = &sid
	}
	return opts, nil
}

// carryover migrates overdue incomplete daily plans into the unfinished
// backlog. It is the same batch the in-process scheduler runs nightly,
// exposed for manual and cron-external invocation.
func main() {
	var (
		dryRun    = flag.Bool("dry-run", false, "report what would migrate without writing anything")
		tenantID  = flag.Uint("tenant", 0, "restrict the run to one tenant id (0 = all tenants)")
		studentID = flag.Uint("student", 0, "restrict the run to one student id (requires --tenant)")
		cutoffStr = flag.String("cutoff", "", "cutoff date YYYY-MM-DD; plans dated before it migrate (default today)")
	)
	flag.Parse()

	opts, err := buildOptions(*dryRun, *tenantID, *studentID, *cutoffStr, time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stderr)

	config.LoadConfig()
	database.Connect()

	report, err := services.NewCarryoverService().Run(services.SystemScope(), opts)
	if err != nil {
		logrus.WithError(err).Error("Carryover run failed")
		os.Exit(1)
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logrus.WithError(err).Error("Failed to encode report")
		os.Exit(1)
	}
	fmt.Println(string(out))
}
