package media

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"mediaforge/internal/domain"
	"mediaforge/internal/providers/vertex"
)

type processorFixture struct {
	*serviceFixture
	processor *VideoJobProcessor
}

func newProcessorFixture(projectIDs ...string) *processorFixture {
	f := newServiceFixture(projectIDs...)
	return &processorFixture{
		serviceFixture: f,
		processor:      NewVideoJobProcessor(f.service, f.queue, zerolog.Nop()),
	}
}

func (f *processorFixture) lastPollJob(t *testing.T) domain.PollVideoJob {
	t.Helper()
	if len(f.queue.jobs) == 0 {
		t.Fatal("no jobs enqueued")
	}
	job := f.queue.jobs[len(f.queue.jobs)-1]
	if job.jobType != domain.JobPollVideoGeneration {
		t.Fatalf("got job type %s, want %s", job.jobType, domain.JobPollVideoGeneration)
	}
	var decoded domain.PollVideoJob
	if err := json.Unmarshal(job.payload, &decoded); err != nil {
		t.Fatalf("decode poll job: %v", err)
	}
	return decoded
}

func TestHandleInitiateSchedulesFirstPoll(t *testing.T) {
	f := newProcessorFixture("proj-1")
	f.gateway.initiateName = "projects/p/operations/op-7"

	err := f.processor.HandleInitiate(context.Background(), domain.InitiateVideoJob{
		UserID:      "user-1",
		ProjectID:   "proj-1",
		Prompt:      "drone shot over a fjord",
		OperationID: "op-id-7",
	})
	if err != nil {
		t.Fatalf("HandleInitiate: %v", err)
	}

	poll := f.lastPollJob(t)
	if poll.OperationName != "projects/p/operations/op-7" {
		t.Fatalf("got operation name %s", poll.OperationName)
	}
	if poll.RetryCount != 0 {
		t.Fatalf("first poll retry count = %d, want 0", poll.RetryCount)
	}
	if got := f.queue.jobs[len(f.queue.jobs)-1].delay; got != PollInterval {
		t.Fatalf("got delay %s, want %s", got, PollInterval)
	}
}

func TestHandlePollReschedulesUnfinishedOperation(t *testing.T) {
	f := newProcessorFixture()
	f.gateway.checkOp = &vertex.Operation{Name: "op-name", Done: false}

	err := f.processor.HandlePoll(context.Background(), domain.PollVideoJob{
		UserID: "user-1", OperationName: "op-name", RetryCount: 3,
	})
	if err != nil {
		t.Fatalf("HandlePoll: %v", err)
	}
	if len(f.queue.jobs) != 1 {
		t.Fatalf("got %d successor jobs, want exactly 1", len(f.queue.jobs))
	}
	poll := f.lastPollJob(t)
	if poll.RetryCount != 4 {
		t.Fatalf("got retry count %d, want 4", poll.RetryCount)
	}
	if poll.OperationName != "op-name" {
		t.Fatalf("successor must poll the same handle, got %s", poll.OperationName)
	}
	if got := f.queue.jobs[0].delay; got != PollInterval {
		t.Fatalf("got delay %s, want %s", got, PollInterval)
	}
}

func TestHandlePollCompletesGeneration(t *testing.T) {
	f := newProcessorFixture()
	f.repo.gens["gen-1"] = &domain.GenerationRequest{
		ID: "gen-1", UserID: "user-1", Status: domain.StatusProcessing, OperationName: "op-name",
	}
	f.gateway.checkOp = &vertex.Operation{
		Name: "op-name",
		Done: true,
		Response: &vertex.OperationResult{Videos: []vertex.Prediction{
			{GcsURI: "gs://gen-bucket/video_0.mp4", MimeType: "video/mp4"},
		}},
	}

	err := f.processor.HandlePoll(context.Background(), domain.PollVideoJob{
		UserID: "user-1", OperationName: "op-name", RetryCount: 2,
	})
	if err != nil {
		t.Fatalf("HandlePoll: %v", err)
	}
	if len(f.queue.jobs) != 0 {
		t.Fatal("completed operation must not schedule another poll")
	}
	if f.repo.gens["gen-1"].Status != domain.StatusSucceeded {
		t.Fatalf("got status %s, want SUCCEEDED", f.repo.gens["gen-1"].Status)
	}
	if len(f.repo.results["gen-1"]) != 1 {
		t.Fatalf("got %d results, want 1", len(f.repo.results["gen-1"]))
	}
}

func TestHandlePollFailsOperationError(t *testing.T) {
	f := newProcessorFixture()
	f.repo.gens["gen-1"] = &domain.GenerationRequest{
		ID: "gen-1", UserID: "user-1", Status: domain.StatusProcessing, OperationName: "op-name",
	}
	f.gateway.checkOp = &vertex.Operation{
		Name:  "op-name",
		Done:  true,
		Error: &vertex.OperationError{Code: 400, Message: "Bad Request"},
	}

	err := f.processor.HandlePoll(context.Background(), domain.PollVideoJob{
		UserID: "user-1", OperationName: "op-name", RetryCount: 2,
	})
	if err != nil {
		t.Fatalf("HandlePoll: %v", err)
	}
	if len(f.queue.jobs) != 0 {
		t.Fatal("failed operation must not schedule another poll")
	}
	gen := f.repo.gens["gen-1"]
	if gen.Status != domain.StatusFailed {
		t.Fatalf("got status %s, want FAILED", gen.Status)
	}
	if !strings.Contains(gen.ErrorMessage, "Bad Request") {
		t.Fatalf("error message must carry the operation error, got %q", gen.ErrorMessage)
	}
	if len(f.repo.results["gen-1"]) != 0 {
		t.Fatal("failed operation must not store results")
	}
}

func TestHandlePollStopsAtAttemptCeiling(t *testing.T) {
	f := newProcessorFixture()
	f.repo.gens["gen-1"] = &domain.GenerationRequest{
		ID: "gen-1", UserID: "user-1", Status: domain.StatusProcessing, OperationName: "op-name",
	}

	err := f.processor.HandlePoll(context.Background(), domain.PollVideoJob{
		UserID: "user-1", OperationName: "op-name", RetryCount: MaxPollingAttempts,
	})
	if err == nil {
		t.Fatal("ceiling must surface as a job failure")
	}
	if !strings.Contains(err.Error(), "maximum polling attempts reached for operation: op-name") {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.gateway.checkCalls != 0 {
		t.Fatal("ceiling must short-circuit before another status check")
	}
	if len(f.queue.jobs) != 0 {
		t.Fatal("ceiling must not schedule another poll")
	}
	if f.repo.gens["gen-1"].Status != domain.StatusFailed {
		t.Fatalf("got status %s, want FAILED", f.repo.gens["gen-1"].Status)
	}
}

func TestHandleDispatchesByJobType(t *testing.T) {
	f := newProcessorFixture()
	f.gateway.checkOp = &vertex.Operation{Name: "op-name", Done: false}

	payload, _ := json.Marshal(domain.PollVideoJob{UserID: "user-1", OperationName: "op-name"})
	if err := f.processor.Handle(context.Background(), domain.JobPollVideoGeneration, payload); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if f.gateway.checkCalls != 1 {
		t.Fatalf("got %d status checks, want 1", f.gateway.checkCalls)
	}

	if err := f.processor.Handle(context.Background(), domain.JobType("bogus"), nil); err == nil {
		t.Fatal("unknown job type must fail")
	}
}
