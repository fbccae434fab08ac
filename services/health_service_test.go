package services

import "testing"

func TestNewHealthServiceDefaults(t *testing.T) {
	s := NewHealthService("", "")
	if s.serviceName != "Study Plan API" {
		t.Errorf("serviceName = %q, want default", s.serviceName)
	}
	if s.version != "1.0.0" {
		t.Errorf("version = %q, want default", s.version)
	}

	s = NewHealthService("Planner", "2.3.0")
	if s.serviceName != "Planner" || s.version != "2.3.0" {
		t.Errorf("got %q/%q, want explicit values kept", s.serviceName, s.version)
	}
}

func TestHTTPStatusForOverall(t *testing.T) {
	s := NewHealthService("", "")

	tests := []struct {
		status string
		want   int
	}{
		{healthOK, 200},
		{healthDegraded, 200},
		{healthCritical, 503},
		{"unexpected", 200},
	}

	for _, tc := range tests {
		if got := s.HTTPStatusForOverall(tc.status); got != tc.want {
			t.Errorf("HTTPStatusForOverall(%q) = %d, want %d", tc.status, got, tc.want)
		}
	}
}

func TestGetHealthReportWithoutDatabase(t *testing.T) {
	s := NewHealthService("", "")
	report := s.GetHealthReport()

	if report.Status != healthCritical {
		t.Errorf("status = %q, want %q when the database is unreachable", report.Status, healthCritical)
	}
	if len(report.Dependencies) != 2 {
		t.Fatalf("got %d dependencies, want 2", len(report.Dependencies))
	}
	if report.Dependencies[0].Name != "mysql" || report.Dependencies[0].Status != depDown {
		t.Errorf("mysql dependency = %+v, want down", report.Dependencies[0])
	}
	if report.Runtime.Goroutines <= 0 {
		t.Errorf("goroutines = %d, want > 0", report.Runtime.Goroutines)
	}
}
