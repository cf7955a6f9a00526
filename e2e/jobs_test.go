package e2e

import (
	"net/http"
	"testing"

	"github.com/reelworthy/api/internal/model"
)

func TestUploadJob_FullLifecycle(t *testing.T) {
	ta := setupApp(t)

	resp, err := doUpload(t, ta.app, "stream.mp4")
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	assertStatus(t, resp, http.StatusAccepted)

	body := parseJSON(t, resp)
	jobID, _ := body["jobId"].(string)
	if jobID == "" {
		t.Fatalf("expected a jobId, got %v", body)
	}
	if body["status"] != "queued" {
		t.Errorf("initial status = %v, want queued", body["status"])
	}

	final := pollUntilTerminal(t, ta.app, jobID)
	if final["status"] != "completed" {
		t.Fatalf("job ended as %v (error: %v)", final["status"], final["error"])
	}
	if final["progress"] != float64(100) {
		t.Errorf("final progress = %v, want 100", final["progress"])
	}

	results, ok := final["results"].([]interface{})
	if !ok || len(results) == 0 {
		t.Fatalf("expected clip results, got %v", final["results"])
	}

	first, _ := results[0].(map[string]interface{})
	filename, _ := first["filename"].(string)
	if filename == "" {
		t.Fatalf("first clip has no filename: %v", first)
	}
	if first["rank"] != float64(1) {
		t.Errorf("first clip rank = %v, want 1", first["rank"])
	}

	// The planned clips are downloadable.
	dl, err := doRequest(ta.app, http.MethodGet, "/download/"+jobID+"/"+filename, "", nil)
	if err != nil {
		t.Fatalf("download failed: %v", err)
	}
	assertStatus(t, dl, http.StatusOK)
	if got := readBody(t, dl); got != "clip bytes" {
		t.Errorf("downloaded content = %q", got)
	}

	// Cleanup removes the job and its artifacts.
	del, err := doRequest(ta.app, http.MethodDelete, "/api/jobs/"+jobID, "", nil)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	assertStatus(t, del, http.StatusNoContent)

	gone, err := doRequest(ta.app, http.MethodGet, "/api/jobs/"+jobID, "", nil)
	if err != nil {
		t.Fatalf("status request failed: %v", err)
	}
	assertStatus(t, gone, http.StatusNotFound)
}

func TestUploadJob_RejectsNonVideo(t *testing.T) {
	ta := setupApp(t)

	resp, err := doUpload(t, ta.app, "notes.txt")
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	assertStatus(t, resp, http.StatusBadRequest)

	if code := errorCode(t, parseJSON(t, resp)); code != "VALIDATION_ERROR" {
		t.Errorf("error code = %q", code)
	}
}

func TestUploadJob_MissingFile(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodPost, "/api/jobs/upload", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusBadRequest)
}

func TestLinkJob_InvalidURL(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodPost, "/api/jobs/link", `{"url": "not a url"}`, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusBadRequest)

	if code := errorCode(t, parseJSON(t, resp)); code != "VALIDATION_ERROR" {
		t.Errorf("error code = %q", code)
	}
}

func TestLinkJob_AcceptedThenFailsWithoutFetcher(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodPost, "/api/jobs/link", `{"url": "https://example.com/watch?v=abc"}`, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusAccepted)

	body := parseJSON(t, resp)
	jobID, _ := body["jobId"].(string)
	if jobID == "" {
		t.Fatalf("expected a jobId, got %v", body)
	}

	// The test app has no downloader, so the job must fail, not hang.
	final := pollUntilTerminal(t, ta.app, jobID)
	if final["status"] != "failed" {
		t.Errorf("job ended as %v, want failed", final["status"])
	}
	if final["error"] == nil {
		t.Error("expected a failure message")
	}
}

func TestJobStatus_NotFound(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodGet, "/api/jobs/does-not-exist", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNotFound)

	if code := errorCode(t, parseJSON(t, resp)); code != "NOT_FOUND" {
		t.Errorf("error code = %q", code)
	}
}

func TestDeleteJob_RunningConflict(t *testing.T) {
	ta := setupApp(t)

	job := ta.tracker.Create(model.JobSourceUpload)
	ta.tracker.SetStatus(job.ID, model.JobStatusProcessing)

	resp, err := doRequest(ta.app, http.MethodDelete, "/api/jobs/"+job.ID, "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusConflict)

	if code := errorCode(t, parseJSON(t, resp)); code != "CONFLICT" {
		t.Errorf("error code = %q", code)
	}
}

func TestDeleteJob_UnknownIsNoContent(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodDelete, "/api/jobs/never-existed", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNoContent)
}

func TestDownload_TraversalRejected(t *testing.T) {
	ta := setupApp(t)

	job := ta.tracker.Create(model.JobSourceUpload)
	ta.tracker.SetPaths(job.ID, "", t.TempDir())

	resp, err := doRequest(ta.app, http.MethodGet, "/download/"+job.ID+"/%2e%2e%2fsecret", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNotFound)
}
