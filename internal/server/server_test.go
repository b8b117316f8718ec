package server

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBotContent = `
entity:
  schemaName: demo_bot
  displayName: Demo Bot
components:
  - kind: DialogComponent
    displayName: Greeting
    schemaName: demo_bot.topic.Greeting
    state: Active
`

const testDialog = `{
	"activities": [
		{"type": "message", "text": "hello", "from": {"role": "user"}, "channelData": {"webchat:internal:position": 1000}},
		{"type": "message", "text": "hi there", "from": {"role": "bot"}, "channelData": {"webchat:internal:position": 2000}}
	]
}`

const testTranscript = `{
	"activities": [
		{"type": "message", "text": "hello", "from": {"role": 1}, "timestamp": 1735689600.0}
	]
}`

func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for field, content := range fields {
		part, err := writer.CreateFormFile(field, field+".dat")
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	New("0").Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestIndexPage(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	New("0").Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "botscope")
}

func TestAnalyseUpload(t *testing.T) {
	body, contentType := multipartBody(t, map[string]string{
		"botContent": testBotContent,
		"dialog":     testDialog,
	})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyse", body)
	req.Header.Set("Content-Type", contentType)

	New("0").Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report := rec.Body.String()
	assert.Contains(t, report, "# Demo Bot")
	assert.Contains(t, report, "## Conversation Trace")
}

func TestAnalyseUploadMissingFile(t *testing.T) {
	body, contentType := multipartBody(t, map[string]string{"botContent": testBotContent})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyse", body)
	req.Header.Set("Content-Type", contentType)

	New("0").Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing dialog upload")
}

func TestAnalyseUploadMalformedDialog(t *testing.T) {
	body, contentType := multipartBody(t, map[string]string{
		"botContent": testBotContent,
		"dialog":     "{not json",
	})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyse", body)
	req.Header.Set("Content-Type", contentType)

	New("0").Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "analysis failed")
}

func TestTranscriptUpload(t *testing.T) {
	body, contentType := multipartBody(t, map[string]string{"transcript": testTranscript})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/transcript", body)
	req.Header.Set("Content-Type", contentType)

	New("0").Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "# transcript")
	assert.Contains(t, rec.Body.String(), "## Conversation Trace")
}
