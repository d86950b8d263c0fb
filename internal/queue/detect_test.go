package queue

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/assemblage/backend/pkg/assemblage"
	"github.com/assemblage/backend/pkg/common"

	"github.com/rabbitmq/amqp091-go"
)

type published struct {
	key string
	msg amqp091.Publishing
}

type fakePublisher struct {
	sent []published
	err  error
}

func (f *fakePublisher) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp091.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{key: key, msg: msg})
	return nil
}

func (f *fakePublisher) to(key string) []published {
	var out []published
	for _, p := range f.sent {
		if p.key == key {
			out = append(out, p)
		}
	}
	return out
}

type fakeAcknowledger struct {
	acked   int
	nacked  int
	requeue bool
}

func (f *fakeAcknowledger) Ack(uint64, bool) error { f.acked++; return nil }
func (f *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked++
	f.requeue = requeue
	return nil
}
func (f *fakeAcknowledger) Reject(uint64, bool) error { return nil }

type fakeDetector struct {
	res assemblage.Result
	err error
}

func (f *fakeDetector) Detect(context.Context, assemblage.Request) (assemblage.Result, error) {
	return f.res, f.err
}

func jobBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(DetectJobMsg{JobID: "job_1", Request: assemblage.Request{}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return body
}

func decodeResult(t *testing.T, p published) DetectResultMsg {
	t.Helper()
	var msg DetectResultMsg
	if err := json.Unmarshal(p.msg.Body, &msg); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	return msg
}

func TestProcessDetectMessage_Outcomes(t *testing.T) {
	tests := []struct {
		name       string
		detector   *fakeDetector
		wantStatus string
		wantErr    bool
	}{
		{"Done", &fakeDetector{res: assemblage.Result{Communities: []common.Community{{ID: "0"}}}}, common.StatusDone, false},
		{"Invalid", &fakeDetector{err: common.NewValidationError("actors", "too few")}, common.StatusInvalid, false},
		{"Internal", &fakeDetector{err: errors.New("boom")}, common.StatusInternalError, false},
		{"Upstream", &fakeDetector{err: &common.UpstreamError{Collaborator: "embedding", Err: errors.New("timeout")}}, "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pub := &fakePublisher{}
			err := ProcessDetectMessage(context.Background(), tc.detector, pub, jobBody(t))
			if (err != nil) != tc.wantErr {
				t.Fatalf("expected error %v, got %v", tc.wantErr, err)
			}
			results := pub.to(ResultsQueue)
			if tc.wantErr {
				if len(results) != 0 {
					t.Fatalf("expected no result for a retryable failure, got %d", len(results))
				}
				return
			}
			if len(results) != 1 {
				t.Fatalf("expected 1 result, got %d", len(results))
			}
			msg := decodeResult(t, results[0])
			if msg.JobID != "job_1" || msg.Status != tc.wantStatus {
				t.Fatalf("expected job_1 %s, got %s %s", tc.wantStatus, msg.JobID, msg.Status)
			}
			if tc.wantStatus == common.StatusDone && (msg.Result == nil || len(msg.Result.Communities) != 1) {
				t.Fatalf("expected result payload, got %+v", msg.Result)
			}
		})
	}
}

func TestProcessDetectMessage_Malformed(t *testing.T) {
	pub := &fakePublisher{}
	if err := ProcessDetectMessage(context.Background(), &fakeDetector{}, pub, []byte("{not json")); err != nil {
		t.Fatalf("expected malformed body to settle, got %v", err)
	}
	results := pub.to(ResultsQueue)
	if len(results) != 1 || decodeResult(t, results[0]).Status != common.StatusInvalid {
		t.Fatalf("expected one invalid result, got %+v", results)
	}
}

func TestHandleDelivery_Retry(t *testing.T) {
	upstream := &fakeDetector{err: &common.UpstreamError{Collaborator: "embedding", Err: errors.New("timeout")}}

	t.Run("FirstFailure", func(t *testing.T) {
		pub := &fakePublisher{}
		ack := &fakeAcknowledger{}
		msg := amqp091.Delivery{Acknowledger: ack, Body: jobBody(t)}

		HandleDelivery(context.Background(), upstream, pub, msg, DetectQueue)

		retries := pub.to(DetectQueue + "_retry")
		if len(retries) != 1 {
			t.Fatalf("expected 1 retry publish, got %d", len(retries))
		}
		if got := retriesOf(retries[0].msg.Headers); got != 1 {
			t.Fatalf("expected x-retries 1, got %d", got)
		}
		if ack.acked != 1 {
			t.Fatalf("expected original to be acked, got %d", ack.acked)
		}
	})

	t.Run("Exhausted", func(t *testing.T) {
		pub := &fakePublisher{}
		ack := &fakeAcknowledger{}
		msg := amqp091.Delivery{
			Acknowledger: ack,
			Body:         jobBody(t),
			Headers:      amqp091.Table{"x-retries": int32(MaxRetries)},
		}

		HandleDelivery(context.Background(), upstream, pub, msg, DetectQueue)

		if len(pub.to(DetectQueue+"_dlq")) != 1 {
			t.Fatalf("expected message in DLQ")
		}
		results := pub.to(ResultsQueue)
		if len(results) != 1 {
			t.Fatalf("expected failed result, got %d", len(results))
		}
		got := decodeResult(t, results[0])
		if got.Status != common.StatusUpstreamFailed || !strings.Contains(got.Error, "timeout") {
			t.Fatalf("expected upstream_failed with cause, got %+v", got)
		}
		if ack.acked != 1 {
			t.Fatalf("expected ack after DLQ, got %d", ack.acked)
		}
	})

	t.Run("PublishFails", func(t *testing.T) {
		pub := &fakePublisher{err: errors.New("channel closed")}
		ack := &fakeAcknowledger{}
		msg := amqp091.Delivery{Acknowledger: ack, Body: jobBody(t)}

		HandleDelivery(context.Background(), upstream, pub, msg, DetectQueue)

		if ack.nacked != 1 || !ack.requeue {
			t.Fatalf("expected nack with requeue, got %+v", ack)
		}
	})
}

func TestHandleDelivery_ValidationNotRetried(t *testing.T) {
	pub := &fakePublisher{}
	ack := &fakeAcknowledger{}
	msg := amqp091.Delivery{Acknowledger: ack, Body: jobBody(t)}

	HandleDelivery(context.Background(), &fakeDetector{err: common.NewValidationError("actors", "too few")}, pub, msg, DetectQueue)

	if len(pub.to(DetectQueue+"_retry")) != 0 {
		t.Fatalf("expected no retry for validation failure")
	}
	if ack.acked != 1 {
		t.Fatalf("expected ack, got %d", ack.acked)
	}
}

func TestEnqueueDetect(t *testing.T) {
	pub := &fakePublisher{}
	jobID, err := EnqueueDetect(context.Background(), pub, assemblage.Request{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.HasPrefix(jobID, "job_") {
		t.Fatalf("expected job_ prefix, got %q", jobID)
	}
	jobs := pub.to(DetectQueue)
	if len(jobs) != 1 || jobs[0].msg.DeliveryMode != amqp091.Persistent {
		t.Fatalf("expected one persistent job, got %+v", jobs)
	}
	var job DetectJobMsg
	if err := json.Unmarshal(jobs[0].msg.Body, &job); err != nil || job.JobID != jobID {
		t.Fatalf("expected body with job id %q, got %+v (%v)", jobID, job, err)
	}
}
