package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/reelworthy/api/internal/config"
	"github.com/reelworthy/api/internal/detect"
	"github.com/reelworthy/api/internal/handler"
	"github.com/reelworthy/api/internal/jobs"
	"github.com/reelworthy/api/internal/service"
	"github.com/reelworthy/api/internal/worker"
)

// testApp holds all components needed for testing
type testApp struct {
	app     *fiber.App
	tracker *jobs.Tracker
}

// fakeMedia synthesizes a track with two loud bursts in memory, so the
// whole pipeline runs without ffmpeg.
type fakeMedia struct{}

func (fakeMedia) audio() detect.AudioSample {
	rate := 1000
	samples := make([]float64, 180*rate)
	for i := range samples {
		samples[i] = 0.0001
	}
	for _, b := range [][2]int{{30, 36}, {120, 126}} {
		for i := b[0] * rate; i < b[1]*rate; i++ {
			samples[i] = 0.5
		}
	}
	return detect.AudioSample{Samples: samples, Rate: rate}
}

func (m fakeMedia) ExtractAudio(ctx context.Context, input string) (detect.AudioSample, error) {
	return m.audio(), nil
}

func (m fakeMedia) ExtractAudioFile(ctx context.Context, input, outWav string) error {
	return os.WriteFile(outWav, nil, 0o644)
}

func (m fakeMedia) Duration(ctx context.Context, input string) (float64, error) {
	return m.audio().Duration(), nil
}

func (m fakeMedia) Cut(ctx context.Context, src string, start, duration float64, out string) error {
	return os.WriteFile(out, []byte("clip bytes"), 0o644)
}

// setupApp creates a Fiber app identical to main.go but with a fake
// media tool and no external classifiers, so jobs complete on energy
// signals alone.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	cfg := &config.Config{
		Media: config.MediaConfig{
			UploadDir:   t.TempDir(),
			OutputDir:   t.TempDir(),
			MaxUploadMB: 10,
		},
		Detect: config.DetectConfig{
			Strategy:         "dense",
			Scorer:           "transcript_humor",
			WindowSec:        5,
			StepSec:          2,
			MinRMS:           0.002,
			EnergyWeight:     0.4,
			HumorWeight:      0.6,
			KeywordWeight:    0.4,
			SentimentWeight:  0.6,
			AcceptThreshold:  0.02,
			MaxClips:         3,
			MinSeparationSec: 30,
			ClipRadiusSec:    20,
		},
		Cleanup: config.CleanupConfig{Retries: 2, BackoffMS: 1},
	}

	validate := validator.New()
	tracker := jobs.NewTracker()

	caps := worker.Capabilities{Media: fakeMedia{}}
	jobWorker := worker.New(tracker, nil, caps, cfg)
	jobService := service.NewJobService(tracker, jobWorker, nil, cfg)
	jobHandler := handler.NewJobHandler(jobService, validate, cfg.Media.MaxUploadMB)

	app := fiber.New(fiber.Config{
		BodyLimit: cfg.Media.MaxUploadMB * 1024 * 1024,
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	jobsGroup := api.Group("/jobs")
	jobsGroup.Post("/upload", jobHandler.Upload)
	jobsGroup.Post("/link", jobHandler.Link)
	jobsGroup.Get("/:jobId", jobHandler.Status)
	jobsGroup.Delete("/:jobId", jobHandler.Cleanup)

	app.Get("/download/:jobId/:filename", jobHandler.Download)

	return &testApp{app: app, tracker: tracker}
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// doUpload performs a multipart upload of a fake video file.
func doUpload(t *testing.T, app *fiber.App, filename string) (*http.Response, error) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed to build multipart body: %v", err)
	}
	if _, err := fw.Write([]byte("fake video bytes")); err != nil {
		t.Fatalf("failed to write multipart body: %v", err)
	}
	mw.Close()

	req, err := http.NewRequest(http.MethodPost, "/api/jobs/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return app.Test(req, -1)
}

// pollUntilTerminal polls the status endpoint until the job finishes.
func pollUntilTerminal(t *testing.T, app *fiber.App, jobID string) map[string]interface{} {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := doRequest(app, http.MethodGet, "/api/jobs/"+jobID, "", nil)
		if err != nil {
			t.Fatalf("status request failed: %v", err)
		}
		body := parseJSON(t, resp)

		switch body["status"] {
		case "completed", "failed":
			return body
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("job never reached a terminal status")
	return nil
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// errorCode extracts the error envelope code from a response body.
func errorCode(t *testing.T, body map[string]interface{}) string {
	t.Helper()
	errObj, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error envelope, got %v", body)
	}
	code, _ := errObj["code"].(string)
	return code
}
