package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/akolanti/smartsort/internal/api"
	"github.com/akolanti/smartsort/internal/data/sqlStore"
	"github.com/akolanti/smartsort/internal/data/store"
	"github.com/akolanti/smartsort/internal/domain/docModel"
	"github.com/akolanti/smartsort/internal/ingest"
	"github.com/akolanti/smartsort/internal/job"
	"github.com/akolanti/smartsort/internal/storage"
	"github.com/go-chi/chi/v5"
)

type fixture struct {
	router  *chi.Mux
	sandbox *storage.Sandbox
	docs    *sqlStore.Store
	queue   *store.InMemoryJobQueue
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sb, err := storage.New(filepath.Join(t.TempDir(), "root"))
	if err != nil {
		t.Fatal(err)
	}
	docs, err := sqlStore.Open(filepath.Join(t.TempDir(), "smartsort.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = docs.Close() })
	q := store.InitInMemoryJobQueue()

	InitJobHandler(job.InitJobService(job.ServiceConfig{
		Queue:     q,
		Documents: docs,
		Rules:     docs,
		Ingester:  ingest.NewService(sb, docs, q),
		Reviewer:  ingest.NewReviewService(sb, docs),
	}))

	r := chi.NewRouter()
	r.Get("/health", HealthHandler)
	r.Get("/queue", GetQueueHandler)
	r.Get("/jobs/{id}", GetJobStatusHandler)
	r.Post("/jobs/{id}/requeue", RequeueJobHandler)
	r.Post("/documents/ingest", PostIngestHandler)
	r.Post("/documents/upload", UploadDocumentHandler)
	r.Get("/documents", ListDocumentsHandler)
	r.Get("/documents/{id}", GetDocumentHandler)
	r.Patch("/documents/{id}", PatchDocumentHandler)
	r.Post("/documents/{id}/approve", ApproveDocumentHandler)
	r.Post("/documents/{id}/reject", RejectDocumentHandler)
	return &fixture{router: r, sandbox: sb, docs: docs, queue: q}
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func (f *fixture) writeInbox(t *testing.T, name, body string) {
	t.Helper()
	abs := filepath.Join(f.sandbox.Root(), "00_inbox", name)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decoding %q: %v", rr.Body.String(), err)
	}
	return out
}

func TestIngestThenPollJob(t *testing.T) {
	f := newFixture(t)
	f.writeInbox(t, "memo.txt", "quarterly memo")

	rr := f.do(http.MethodPost, "/documents/ingest", `{"inbox_path":"00_inbox/memo.txt"}`)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("ingest status = %d body=%s", rr.Code, rr.Body.String())
	}
	res := decode[api.IngestResponse](t, rr)
	if res.DocumentId == 0 || len(res.JobIds) != 4 || res.StatusURLs[0] != "/jobs/"+res.JobIds[0] {
		t.Fatalf("response = %+v", res)
	}

	rr = f.do(http.MethodGet, res.StatusURLs[0], "")
	if rr.Code != http.StatusOK {
		t.Fatalf("job status = %d", rr.Code)
	}
	jobRes := decode[api.JobResponse](t, rr)
	if jobRes.Status != "PENDING" || jobRes.JobType != "extract_text" || jobRes.DocumentId != res.DocumentId {
		t.Errorf("job = %+v", jobRes)
	}

	rr = f.do(http.MethodGet, "/queue", "")
	if q := decode[api.QueueResponse](t, rr); q.Length != 4 {
		t.Errorf("queue length = %d", q.Length)
	}

	rr = f.do(http.MethodPost, "/documents/ingest", `{"inbox_path":"00_inbox/memo.txt"}`)
	if rr.Code != http.StatusOK || !decode[api.IngestResponse](t, rr).IsDuplicate {
		t.Errorf("second ingest = %d", rr.Code)
	}
}

func TestErrorStatusCodes(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name     string
		method   string
		target   string
		body     string
		want     int
		resource string
	}{
		{"unknown job", http.MethodGet, "/jobs/nope", "", http.StatusNotFound, "nope"},
		{"requeue unknown job", http.MethodPost, "/jobs/nope/requeue", "", http.StatusNotFound, "nope"},
		{"missing inbox path", http.MethodPost, "/documents/ingest", `{}`, http.StatusBadRequest, ""},
		{"outside inbox", http.MethodPost, "/documents/ingest", `{"inbox_path":"03_sorted/x.txt"}`, http.StatusForbidden, "03_sorted/x.txt"},
		{"missing file", http.MethodPost, "/documents/ingest", `{"inbox_path":"00_inbox/ghost.txt"}`, http.StatusNotFound, "00_inbox/ghost.txt"},
		{"bad document id", http.MethodGet, "/documents/abc", "", http.StatusBadRequest, "abc"},
		{"unknown document", http.MethodGet, "/documents/42", "", http.StatusNotFound, "42"},
		{"bad status filter", http.MethodGet, "/documents?status=LOST", "", http.StatusBadRequest, ""},
		{"limit too large", http.MethodGet, "/documents?limit=5000", "", http.StatusBadRequest, ""},
		{"approve unknown", http.MethodPost, "/documents/42/approve", "", http.StatusNotFound, "42"},
		{"malformed patch", http.MethodPatch, "/documents/42", `{`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.do(tt.method, tt.target, tt.body)
			if rr.Code != tt.want {
				t.Errorf("%s %s = %d, want %d (%s)", tt.method, tt.target, rr.Code, tt.want, rr.Body.String())
			}
			res := decode[api.ErrorResponse](t, rr)
			if res.Error.Code != tt.want || res.Error.Message == "" || res.Error.Resource != tt.resource {
				t.Errorf("error body = %+v", res)
			}
		})
	}
}

func TestErrorCarriesTraceId(t *testing.T) {
	rr := httptest.NewRecorder()
	rr.Header().Set("X-Trace-Id", "trace-42")
	WriteErrorResponse(rr, http.StatusNotFound, "7", "document not found")

	res := decode[api.ErrorResponse](t, rr)
	want := api.ErrorDetail{Code: http.StatusNotFound, Message: "document not found", Resource: "7", TraceId: "trace-42"}
	if res.Error != want {
		t.Errorf("error = %+v, want %+v", res.Error, want)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
}

func TestReviewFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.writeInbox(t, "bill.pdf", "%PDF-1.4 bill")
	res := decode[api.IngestResponse](t, f.do(http.MethodPost, "/documents/ingest", `{"inbox_path":"00_inbox/bill.pdf"}`))
	target := "/documents/" + jsonNumber(res.DocumentId)

	if rr := f.do(http.MethodPost, target+"/approve", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("approving an INGESTED document = %d", rr.Code)
	}

	doc, _ := f.docs.GetDocument(ctx, res.DocumentId)
	doc.Status = docModel.StatusNeedsReview
	doc.Category = "Bills"
	if err := f.docs.UpdateDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}

	rr := f.do(http.MethodPatch, target, `{"user_approved_filename":"2024-bill.pdf"}`)
	if rr.Code != http.StatusOK || decode[api.ReviewResponse](t, rr).Document.UserFilename != "2024-bill.pdf" {
		t.Fatalf("patch = %d", rr.Code)
	}

	rr = f.do(http.MethodPost, target+"/approve", `{"final_target_path":"03_sorted/Bills/2024"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("approve = %d %s", rr.Code, rr.Body.String())
	}
	approved := decode[api.ReviewResponse](t, rr).Document
	if approved.Status != docModel.StatusApproved || approved.UserCategory != "Bills" ||
		approved.UserFilename != "2024-bill.pdf" || approved.UserTargetPath != "03_sorted/Bills/2024" {
		t.Errorf("approved = %+v", approved)
	}

	rr = f.do(http.MethodGet, "/documents?status=APPROVED", "")
	if list := decode[api.DocumentListResponse](t, rr); len(list.Documents) != 1 || list.Limit != 50 {
		t.Errorf("list = %+v", list)
	}

	rr = f.do(http.MethodPost, target+"/reject", "")
	if rr.Code != http.StatusOK || decode[api.ReviewResponse](t, rr).Document.Status != docModel.StatusError {
		t.Errorf("reject = %d", rr.Code)
	}
	if ok, _ := f.sandbox.Exists("99_errors/" + res.SHA256 + "_bill.pdf"); !ok {
		t.Error("rejected file not copied to errors")
	}
}

func TestUploadDocument(t *testing.T) {
	f := newFixture(t)
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("document", "upload.txt")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("uploaded content"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/documents/upload", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("upload = %d %s", rr.Code, rr.Body.String())
	}
	if ok, _ := f.sandbox.Exists("00_inbox/upload.txt"); !ok {
		t.Error("upload not written to inbox")
	}

	rr = f.do(http.MethodPost, "/documents/upload", "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("upload without form = %d", rr.Code)
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rr := f.do(http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("health = %d", rr.Code)
	}
	if h := decode[job.Health](t, rr); h.Status != "ok" {
		t.Errorf("health = %+v", h)
	}

	f.docs.Close()
	rr = f.do(http.MethodGet, "/health", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("health with closed db = %d", rr.Code)
	}
}

func TestUninitialisedHandler(t *testing.T) {
	mu.Lock()
	saved := handlerInstance
	handlerInstance = nil
	mu.Unlock()
	defer func() {
		mu.Lock()
		handlerInstance = saved
		mu.Unlock()
	}()

	rr := httptest.NewRecorder()
	GetQueueHandler(rr, httptest.NewRequest(http.MethodGet, "/queue", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", rr.Code)
	}
}

func jsonNumber(id int64) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}
