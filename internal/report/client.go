package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trafficmind/violation-core/internal/logging"
	"github.com/trafficmind/violation-core/internal/randengine"
)

// RecordsClient is the out-of-process records service surface the Reporter
// drives; authentication and storage internals live entirely on the other
// side of this interface.
type RecordsClient interface {
	Login(ctx context.Context, username, password string) error
	UploadImage(ctx context.Context, path string) (url string, err error)
	Submit(ctx context.Context, payload SubmitPayload) (backendID int, err error)
}

// SubmitPayload is the structured record the records service expects.
type SubmitPayload struct {
	IntersectionID int       `json:"intersectionId"`
	Direction      string    `json:"direction"`
	TurnType       string    `json:"turnType"`
	PlateNumber    string    `json:"plateNumber"`
	VehicleClass   string    `json:"vehicleClass"`
	ViolationType  string    `json:"violationType"`
	ImageURL       string    `json:"imageUrl"`
	Confidence     float32   `json:"aiConfidence"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// HTTPClient is the default RecordsClient, speaking plain JSON-over-HTTP to
// the records service, with a session token captured from Login and
// replayed on subsequent requests.
type HTTPClient struct {
	baseURL        string
	uploadTimeout  time.Duration
	submitTimeout  time.Duration
	http           *http.Client
	mu             sync.Mutex
	sessionToken   string
}

// NewHTTPClient builds an HTTPClient for baseURL.
func NewHTTPClient(baseURL string, uploadTimeout, submitTimeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:       baseURL,
		uploadTimeout: uploadTimeout,
		submitTimeout: submitTimeout,
		http:          &http.Client{},
	}
}

// Login exchanges credentials for a session token; a no-op when username is
// empty, matching deployments where the records service requires none.
func (c *HTTPClient) Login(ctx context.Context, username, password string) error {
	if username == "" {
		return nil
	}
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("report: login failed with status %d", resp.StatusCode)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}
	c.mu.Lock()
	c.sessionToken = out.Token
	c.mu.Unlock()
	return nil
}

// UploadImage uploads the snapshot at path and returns a canonical URL; on
// any failure it falls back to a file:// URL of the local path so a
// violation record is never lost for want of a remote upload.
func (c *HTTPClient) UploadImage(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images", nil)
	if err != nil {
		return "file://" + path, err
	}
	c.applyAuth(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return "file://" + path, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "file://" + path, fmt.Errorf("report: image upload failed with status %d", resp.StatusCode)
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "file://" + path, err
	}
	return out.URL, nil
}

// Submit posts a structured violation record and returns the server-side id.
func (c *HTTPClient) Submit(ctx context.Context, payload SubmitPayload) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.submitTimeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/violations", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.applyAuth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return 0, fmt.Errorf("report: submit failed with status %d", resp.StatusCode)
	}
	var out struct {
		ID int `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *HTTPClient) applyAuth(req *http.Request) {
	c.mu.Lock()
	token := c.sessionToken
	c.mu.Unlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// Reporter is the fire-and-forget reporting pipeline: a bounded channel
// feeding one background worker, so upload/submit failures never block the
// frame loop.
type Reporter struct {
	client     RecordsClient
	intersID   int
	maxRetries int
	queue      chan Record
	rnd        *randengine.Engine

	logV *Log
}

// NewReporter builds a Reporter with the given queue depth; Run must be
// started separately so callers control its lifecycle alongside other
// background workers.
func NewReporter(client RecordsClient, intersectionID, queueSize, maxRetries int, logV *Log) *Reporter {
	return &Reporter{
		client:     client,
		intersID:   intersectionID,
		maxRetries: maxRetries,
		queue:      make(chan Record, queueSize),
		rnd:        randengine.New(uint64(time.Now().UnixNano())),
		logV:       logV,
	}
}

var errReportDropped = fmt.Errorf("report: queue full, record dropped")

// Enqueue offers rec to the background worker without blocking; if the
// queue is full it returns ReportDropped immediately rather than stalling
// the frame loop.
func (r *Reporter) Enqueue(rec Record) error {
	select {
	case r.queue <- rec:
		return nil
	default:
		return errReportDropped
	}
}

// Run drains the queue until ctx is cancelled, then keeps draining for
// gracePeriod before giving up on whatever remains, mirroring the signal
// supervisor's cooperative-shutdown convention.
func (r *Reporter) Run(ctx context.Context, gracePeriod time.Duration) {
	for {
		select {
		case rec := <-r.queue:
			r.process(ctx, rec)
		case <-ctx.Done():
			r.drain(gracePeriod)
			return
		}
	}
}

// drain processes whatever remains in the queue for up to gracePeriod
// before giving up.
func (r *Reporter) drain(gracePeriod time.Duration) {
	deadline := time.After(gracePeriod)
	for {
		select {
		case rec := <-r.queue:
			r.process(context.Background(), rec)
		case <-deadline:
			return
		}
	}
}

func (r *Reporter) process(ctx context.Context, rec Record) {
	if id, ok := r.submitWithRetry(ctx, rec); ok {
		rec.BackendID = id
		if r.logV != nil {
			r.logV.Record(rec)
		}
	}
}

func (r *Reporter) submitWithRetry(ctx context.Context, rec Record) (int, bool) {
	log := logging.For("reporter")
	imageURL, err := r.client.UploadImage(ctx, rec.SnapshotPath)
	if err != nil {
		log.WithField("violation_id", rec.ID).WithField("error", err.Error()).Warn("snapshot upload failed, using local path")
	}

	payload := SubmitPayload{
		IntersectionID: r.intersID,
		Direction:      rec.Direction,
		TurnType:       string(rec.TurnType),
		PlateNumber:    SyntheticPlate(rec.TrackID),
		VehicleClass:   string(rec.Class),
		ViolationType:  string(rec.Kind),
		ImageURL:       imageURL,
		Confidence:     rec.Confidence,
		OccurredAt:     rec.OccurredAt,
	}

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		id, err := r.client.Submit(ctx, payload)
		if err == nil {
			return id, true
		}
		log.WithField("violation_id", rec.ID).WithField("attempt", attempt).WithField("error", err.Error()).Warn("submit failed")
		if attempt == r.maxRetries {
			break
		}
		select {
		case <-time.After(r.backoff(attempt)):
		case <-ctx.Done():
			return 0, false
		}
	}
	return 0, false
}

// backoff returns an exponential delay with jitter via internal/randengine.
func (r *Reporter) backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * 200 * time.Millisecond
	jitter := time.Duration(r.rnd.Int63nSafe(int64(base) + 1))
	return base/2 + jitter/2
}

// NewCorrelationID mints a uuid for a violation record.
func NewCorrelationID() string {
	return uuid.NewString()
}
