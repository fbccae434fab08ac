package services

import (
	"errors"
	"strings"
	"testing"

	"gorm.io/gorm"
)

func TestCommitBestEffortAllSucceed(t *testing.T) {
	var ran []string
	step := func(name string) BulkStep {
		return BulkStep{Name: name, Run: func(tx *gorm.DB) error {
			ran = append(ran, name)
			return nil
		}}
	}

	result := CommitBestEffort(nil, "test-op", []BulkStep{step("a"), step("b"), step("c")})

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.CompletedCount != 3 || result.TotalCount != 3 {
		t.Fatalf("expected 3/3 completed, got %d/%d", result.CompletedCount, result.TotalCount)
	}
	if len(ran) != 3 {
		t.Fatalf("expected all steps to run, got %v", ran)
	}
}

func TestCommitBestEffortStopsAtFirstFailure(t *testing.T) {
	var ran []string
	boom := errors.New("boom")
	steps := []BulkStep{
		{Name: "first", Run: func(tx *gorm.DB) error { ran = append(ran, "first"); return nil }},
		{Name: "second", Run: func(tx *gorm.DB) error { return boom }},
		{Name: "third", Run: func(tx *gorm.DB) error { ran = append(ran, "third"); return nil }},
	}

	result := CommitBestEffort(nil, "test-op", steps)

	if result.Success {
		t.Fatal("expected failure")
	}
	if result.CompletedCount != 1 || result.TotalCount != 3 {
		t.Fatalf("expected 1/3 completed, got %d/%d", result.CompletedCount, result.TotalCount)
	}
	if result.FailedStep != "second" {
		t.Fatalf("expected failed step %q, got %q", "second", result.FailedStep)
	}
	for _, name := range ran {
		if name == "third" {
			t.Fatal("steps after the failure must not run")
		}
	}

	var batchErr *PartialBatchError
	if !errors.As(result.Error, &batchErr) {
		t.Fatalf("expected PartialBatchError, got %v", result.Error)
	}
	if batchErr.CompletedCount != 1 || batchErr.TotalCount != 3 || batchErr.FailedStep != "second" {
		t.Fatalf("error carries wrong accounting: %+v", batchErr)
	}
	if !errors.Is(result.Error, boom) {
		t.Fatal("expected the cause to unwrap")
	}
}

func TestCommitBestEffortEmpty(t *testing.T) {
	result := CommitBestEffort(nil, "test-op", nil)
	if !result.Success || result.TotalCount != 0 {
		t.Fatalf("expected trivial success, got %+v", result)
	}
}

func TestPartialBatchErrorMessage(t *testing.T) {
	err := &PartialBatchError{
		Op:             "reorder",
		FailedStep:     "reorder-plan-4",
		CompletedCount: 2,
		TotalCount:     5,
		Err:            errors.New("deadlock"),
	}

	msg := err.Error()
	for _, fragment := range []string{"reorder", "reorder-plan-4", "2/5", "deadlock"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in message %q", fragment, msg)
		}
	}
}

func TestInvalidRangeErrorMessage(t *testing.T) {
	err := &InvalidRangeError{Start: 20, End: 10}
	if !strings.Contains(err.Error(), "[20, 10]") {
		t.Fatalf("expected range in message, got %q", err.Error())
	}
}

func TestNotFoundErrorMessage(t *testing.T) {
	err := &NotFoundError{Resource: "plan", ID: 42}
	if err.Error() != "plan 42 not found" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
