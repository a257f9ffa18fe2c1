package routes

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfqa/internal/app"
	"pdfqa/internal/config"
	"pdfqa/internal/testutil"
	"pdfqa/internal/vectorstore"
	"pdfqa/models"
	"pdfqa/services"
	"pdfqa/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type harness struct {
	router    *gin.Engine
	cfg       *config.Config
	completer *testutil.FakeCompleter
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := &config.Config{
		GinMode:              gin.TestMode,
		CORSOrigins:          []string{"http://localhost:5173"},
		UploadDir:            t.TempDir(),
		MaxFileSize:          10 << 20,
		UploadChunkSize:      1 << 20,
		MaxMultipartMemory:   8 << 20,
		TopK:                 2,
		SplitterBufferSize:   1,
		BreakpointPercentile: 95,
	}
	store, err := vectorstore.NewLocalStore("")
	require.NoError(t, err)

	completer := &testutil.FakeCompleter{Fallback: services.FallbackAnswer}
	a, err := app.NewWithComponents(cfg, testutil.NewFakeEmbedder(), completer, store)
	require.NoError(t, err)

	return &harness{router: NewRouter(a), cfg: cfg, completer: completer}
}

func (h *harness) upload(t *testing.T, filename string, content []byte, owner string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	if owner != "" {
		require.NoError(t, mw.WriteField("uuid", owner))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload_pdf", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *harness) ask(t *testing.T, question, owner string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{}
	if question != "" {
		form.Set("question", question)
	}
	if owner != "" {
		form.Set("uuid", owner)
	}
	req := httptest.NewRequest(http.MethodPost, "/ask_question", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func syllabus(t *testing.T) []byte {
	t.Helper()
	path := testutil.WritePDF(t, t.TempDir(), "syllabus.pdf",
		"Course: Biology 101. Office hours are Monday 3-5pm in Room 204.",
		"The final exam is worth 40% of the grade. Late work loses 10% per day.",
	)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) utils.ErrorResponse {
	t.Helper()
	var resp utils.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRoot(t *testing.T) {
	h := newHarness(t)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"PDF Chatbot API"}`, w.Body.String())
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestUploadRejectsNonPDFExtension(t *testing.T) {
	h := newHarness(t)

	// valid PDF bytes do not matter, only the name does
	for _, name := range []string{"notes.txt", "syllabus.PDF", "pdf"} {
		w := h.upload(t, name, syllabus(t), "A")
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
		assert.Equal(t, "Only PDF files are allowed", decodeError(t, w).Detail, name)
	}

	entries, err := os.ReadDir(h.cfg.UploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadMissingFields(t *testing.T) {
	h := newHarness(t)

	w := h.upload(t, "", nil, "A")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.upload(t, "syllabus.pdf", syllabus(t), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "uuid is required", decodeError(t, w).Detail)
}

func TestUploadRejectsUnsafeUUID(t *testing.T) {
	h := newHarness(t)

	for _, owner := range []string{"../../../escaped", "/../user_A", "a b"} {
		w := h.upload(t, "syllabus.pdf", syllabus(t), owner)
		assert.Equal(t, http.StatusBadRequest, w.Code, owner)
		resp := decodeError(t, w)
		assert.Equal(t, "invalid uuid", resp.Detail, owner)
		assert.Equal(t, utils.KindValidation, resp.ErrorCode, owner)
	}

	entries, err := os.ReadDir(h.cfg.UploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadAndAsk(t *testing.T) {
	h := newHarness(t)

	w := h.upload(t, "syllabus.pdf", syllabus(t), "A")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var up models.UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &up))
	assert.Equal(t, "PDF syllabus.pdf processed and stored for UUID A", up.Message)
	assert.Equal(t, "syllabus.pdf", up.Filename)
	assert.Equal(t, 2, up.PageCount)
	assert.Positive(t, up.ChunkCount)
	assert.Equal(t, "success", up.Status)

	_, err := os.Stat(filepath.Join(h.cfg.UploadDir, "A_syllabus.pdf"))
	assert.NoError(t, err)

	w = h.ask(t, "When are office hours?", "A")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var ans models.AskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ans))
	assert.Equal(t, "When are office hours?", ans.Question)
	assert.Contains(t, ans.Answer, "Monday 3-5pm")
	require.NotEmpty(t, ans.Metadata)
	assert.LessOrEqual(t, len(ans.Metadata), 2)
	assert.Equal(t, models.ChunkMetadata{Source: "syllabus.pdf", UUID: "A", Page: 1}, ans.Metadata[0])
	assert.Contains(t, w.Body.String(), `"metadata":[{"source":"syllabus.pdf","uuid":"A","page":1}`)

	w = h.ask(t, "When are office hours?", "B")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ans))
	assert.Equal(t, services.FallbackAnswer, ans.Answer)
	assert.Contains(t, w.Body.String(), `"metadata":[]`)
}

func TestUploadWithoutTextIsUnprocessable(t *testing.T) {
	h := newHarness(t)
	path := testutil.WritePDF(t, t.TempDir(), "scan.pdf", "", " ")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	w := h.upload(t, "scan.pdf", data, "A")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decodeError(t, w)
	assert.True(t, strings.HasPrefix(resp.Detail, "Error processing PDF: "), resp.Detail)
	assert.Equal(t, utils.KindExtraction, resp.ErrorCode)
}

func TestAskValidation(t *testing.T) {
	h := newHarness(t)

	w := h.ask(t, "", "A")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "question is required", decodeError(t, w).Detail)

	w = h.ask(t, "hello?", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "uuid is required", decodeError(t, w).Detail)
}

func TestAskRejectsUnsafeUUID(t *testing.T) {
	h := newHarness(t)

	w := h.ask(t, "hello?", "/../user_A")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid uuid", decodeError(t, w).Detail)
	assert.Empty(t, h.completer.LastRequest())
}

func TestAskProviderFailure(t *testing.T) {
	h := newHarness(t)
	h.completer.StartErr = errors.New("401 invalid api key")

	w := h.ask(t, "hello?", "A")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.True(t, strings.HasPrefix(resp.Detail, "Error answering question: "), resp.Detail)
	assert.Contains(t, resp.Detail, "401 invalid api key")
	assert.Equal(t, utils.KindGeneration, resp.ErrorCode)
}
