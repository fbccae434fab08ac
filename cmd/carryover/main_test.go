package main

import (
	"testing"
	"time"
)

func TestBuildOptions(t *testing.T) {
	now := time.Date(2026, 8, 28, 15, 4, 0, 0, time.UTC)

	tests := []struct {
		name      string
		dryRun    bool
		tenantID  uint
		studentID uint
		cutoff    string
		wantErr   bool
	}{
		{name: "defaults", cutoff: ""},
		{name: "dry run", dryRun: true},
		{name: "tenant only", tenantID: 3},
		{name: "tenant and student", tenantID: 3, studentID: 12},
		{name: "explicit cutoff", cutoff: "2026-08-01"},
		{name: "student without tenant", studentID: 12, wantErr: true},
		{name: "malformed cutoff", cutoff: "01/08/2026", wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			opts, err := buildOptions(tc.dryRun, tc.tenantID, tc.studentID, tc.cutoff, now)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if opts.DryRun != tc.dryRun {
				t.Fatalf("dry run flag lost: %+v", opts)
			}
			if tc.tenantID != 0 && (opts.TenantID == nil || *opts.TenantID != tc.tenantID) {
				t.Fatalf("tenant not carried: %+v", opts)
			}
			if tc.tenantID == 0 && opts.TenantID != nil {
				t.Fatalf("unexpected tenant restriction: %+v", opts)
			}
			if tc.studentID != 0 && (opts.StudentID == nil || *opts.StudentID != tc.studentID) {
				t.Fatalf("student not carried: %+v", opts)
			}

			if tc.cutoff == "" {
				if !opts.Cutoff.Equal(now) {
					t.Fatalf("expected default cutoff %v, got %v", now, opts.Cutoff)
				}
			} else if opts.Cutoff.Format("2006-01-02") != tc.cutoff {
				t.Fatalf("expected cutoff %s, got %v", tc.cutoff, opts.Cutoff)
			}
		})
	}
}
