package report

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trafficmind/violation-core/internal/rules"
)

type fakeClient struct {
	mu          sync.Mutex
	submitCalls int
	failUntil   int
	uploadErr   error
}

func (f *fakeClient) Login(ctx context.Context, username, password string) error { return nil }

func (f *fakeClient) UploadImage(ctx context.Context, path string) (string, error) {
	if f.uploadErr != nil {
		return "file://" + path, f.uploadErr
	}
	return "https://records.example/img/1.jpg", nil
}

func (f *fakeClient) Submit(ctx context.Context, payload SubmitPayload) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCalls++
	if f.submitCalls <= f.failUntil {
		return 0, errReportDropped
	}
	return 42, nil
}

func TestReporterSubmitsAndRecordsToLog(t *testing.T) {
	client := &fakeClient{}
	log := NewLog()
	r := NewReporter(client, 7, 4, 3, log)

	ctx, cancel := context.WithCancel(context.Background())
	go r.Run(ctx, 100*time.Millisecond)
	defer cancel()

	require.NoError(t, r.Enqueue(Record{
		ID: "v1", Kind: rules.RedLight, TrackID: 1, Direction: "NORTH",
		TurnType: rules.Straight, OccurredAt: time.Now(), SnapshotPath: "/tmp/v1.jpg",
	}))

	require.Eventually(t, func() bool {
		return log.Summarize().Total == 1
	}, time.Second, 5*time.Millisecond)
}

func TestReporterRetriesThenSucceeds(t *testing.T) {
	client := &fakeClient{failUntil: 2}
	log := NewLog()
	r := NewReporter(client, 7, 4, 5, log)

	ctx, cancel := context.WithCancel(context.Background())
	go r.Run(ctx, 100*time.Millisecond)
	defer cancel()

	require.NoError(t, r.Enqueue(Record{ID: "v2", Kind: rules.WrongWay, TrackID: 2, OccurredAt: time.Now()}))

	require.Eventually(t, func() bool {
		return log.Summarize().Total == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestEnqueueReturnsReportDroppedWhenFull(t *testing.T) {
	client := &fakeClient{failUntil: 1000}
	r := NewReporter(client, 7, 1, 0, NewLog())

	require.NoError(t, r.Enqueue(Record{ID: "a"}))
	err := r.Enqueue(Record{ID: "b"})
	require.Error(t, err)
}

func TestLogExportProducesGzippedJSON(t *testing.T) {
	log := NewLog()
	log.Record(Record{ID: "v1", Kind: rules.RedLight})
	log.Record(Record{ID: "v2", Kind: rules.RedLight})
	log.Record(Record{ID: "v3", Kind: rules.WrongWay})

	data, err := log.Export()
	require.NoError(t, err)
	require.NotEmpty(t, data)

	summary := log.Summarize()
	require.Equal(t, 3, summary.Total)
	require.Equal(t, 2, summary.ByKind[rules.RedLight])
	require.Equal(t, 1, summary.ByKind[rules.WrongWay])
}
