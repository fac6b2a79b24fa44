package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rojin-sharrr/mcp-google-calendar/internal/apierr"
)

// writeBatchResponse builds a multipart/mixed batch response. Each entry is
// (contentID, statusCode, body); an empty contentID omits the header.
func writeBatchResponse(t *testing.T, w http.ResponseWriter, parts []fakePart) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Type", "application/http")
		if p.contentID != "" {
			hdr.Set("Content-ID", p.contentID)
		}
		pw, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		if p.raw != "" {
			io.WriteString(pw, p.raw)
			continue
		}
		fmt.Fprintf(pw, "HTTP/1.1 %d %s\r\n", p.status, http.StatusText(p.status))
		fmt.Fprintf(pw, "Content-Type: application/json\r\n")
		fmt.Fprintf(pw, "Content-Length: %d\r\n\r\n", len(p.body))
		io.WriteString(pw, p.body)
	}
	require.NoError(t, mw.Close())

	w.Header().Set("Content-Type", "multipart/mixed; boundary="+mw.Boundary())
	w.Write(buf.Bytes())
}

type fakePart struct {
	contentID string
	status    int
	body      string
	raw       string
}

func TestEncodeRequests(t *testing.T) {
	reqs := []SubRequest{
		{Method: "GET", Path: "/calendar/v3/calendars/primary/events?maxResults=10"},
		{Method: "POST", Path: "/calendar/v3/calendars/primary/events", Body: map[string]string{"summary": "standup"}},
	}

	payload, contentType, err := EncodeRequests(reqs)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(contentType, "multipart/mixed; boundary="))

	body := string(payload)
	assert.Contains(t, body, "GET /calendar/v3/calendars/primary/events?maxResults=10 HTTP/1.1")
	assert.Contains(t, body, "POST /calendar/v3/calendars/primary/events HTTP/1.1")
	assert.Contains(t, body, "Content-ID: <item-1>")
	assert.Contains(t, body, "Content-ID: <item-2>")
	assert.Contains(t, body, `{"summary":"standup"}`)
}

func TestDecodeResponsesOrdering(t *testing.T) {
	// Parts arrive in reverse order; Content-ID must restore request order.
	rec := httptest.NewRecorder()
	writeBatchResponse(t, rec, []fakePart{
		{contentID: "<response-item-2>", status: 404, body: `{"error":{"code":404}}`},
		{contentID: "<response-item-1>", status: 200, body: `{"id":"evt1"}`},
	})
	resp := rec.Result()
	defer resp.Body.Close()

	out, err := DecodeResponses(resp.Body, resp.Header.Get("Content-Type"), 2)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, 200, out[0].StatusCode)
	assert.Equal(t, `{"id":"evt1"}`, string(out[0].Body))
	assert.Equal(t, 404, out[1].StatusCode)
}

func TestDecodeResponsesPositionalFallback(t *testing.T) {
	rec := httptest.NewRecorder()
	writeBatchResponse(t, rec, []fakePart{
		{status: 200, body: `{"id":"a"}`},
		{status: 200, body: `{"id":"b"}`},
	})
	resp := rec.Result()
	defer resp.Body.Close()

	out, err := DecodeResponses(resp.Body, resp.Header.Get("Content-Type"), 2)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"a"}`, string(out[0].Body))
	assert.Equal(t, `{"id":"b"}`, string(out[1].Body))
}

func TestDecodeResponsesUnparseablePart(t *testing.T) {
	rec := httptest.NewRecorder()
	writeBatchResponse(t, rec, []fakePart{
		{contentID: "<response-item-1>", status: 200, body: `{"id":"a"}`},
		{contentID: "<response-item-2>", raw: "this is not an http message"},
	})
	resp := rec.Result()
	defer resp.Body.Close()

	out, err := DecodeResponses(resp.Body, resp.Header.Get("Content-Type"), 2)
	require.NoError(t, err)
	assert.NoError(t, out[0].Err)
	assert.Error(t, out[1].Err)
}

func TestDecodeResponsesMissingPart(t *testing.T) {
	rec := httptest.NewRecorder()
	writeBatchResponse(t, rec, []fakePart{
		{contentID: "<response-item-1>", status: 200, body: `{"id":"a"}`},
	})
	resp := rec.Result()
	defer resp.Body.Close()

	out, err := DecodeResponses(resp.Body, resp.Header.Get("Content-Type"), 2)
	require.NoError(t, err)
	assert.NoError(t, out[0].Err)
	assert.Error(t, out[1].Err)
	assert.Contains(t, out[1].Err.Error(), "no response part")
}

func TestEngineSizeValidation(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	e := NewEngine(srv.Client(), WithEndpoint(srv.URL))

	_, err := e.Do(context.Background(), nil)
	var ve *apierr.ValidationError
	require.ErrorAs(t, err, &ve)

	oversized := make([]SubRequest, MaxBatchSize+1)
	for i := range oversized {
		oversized[i] = SubRequest{Method: "GET", Path: "/calendar/v3/users/me/calendarList"}
	}
	_, err = e.Do(context.Background(), oversized)
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, err.Error(), "51")

	// Validation must happen before any network traffic.
	assert.Equal(t, 0, calls)
}

func TestEngineSuccess(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.Equal(t, http.MethodPost, r.Method)
		require.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/mixed"))
		writeBatchResponse(t, w, []fakePart{
			{contentID: "<response-item-1>", status: 200, body: `{"items":[]}`},
			{contentID: "<response-item-2>", status: 200, body: `{"items":[]}`},
		})
	}))
	defer srv.Close()

	e := NewEngine(srv.Client(), WithEndpoint(srv.URL))
	out, err := e.Do(context.Background(), []SubRequest{
		{Method: "GET", Path: "/calendar/v3/calendars/primary/events"},
		{Method: "GET", Path: "/calendar/v3/calendars/work/events"},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 1, calls)
}

func TestEngineRetriesTransientFailure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeBatchResponse(t, w, []fakePart{
			{contentID: "<response-item-1>", status: 200, body: `{}`},
		})
	}))
	defer srv.Close()

	e := NewEngine(srv.Client(), WithEndpoint(srv.URL), WithMaxAttempts(5))
	out, err := e.Do(context.Background(), []SubRequest{
		{Method: "GET", Path: "/calendar/v3/calendars/primary/events"},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 3, calls)
}

func TestEngineDoesNotRetryClientError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"code":400,"message":"bad"}}`)
	}))
	defer srv.Close()

	e := NewEngine(srv.Client(), WithEndpoint(srv.URL), WithMaxAttempts(5))
	_, err := e.Do(context.Background(), []SubRequest{
		{Method: "GET", Path: "/calendar/v3/calendars/primary/events"},
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestEngineDoesNotRetrySubRequestFailures(t *testing.T) {
	// One call, one part fails: the batch must not be re-issued.
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeBatchResponse(t, w, []fakePart{
			{contentID: "<response-item-1>", status: 200, body: `{"items":[]}`},
			{contentID: "<response-item-2>", status: 404, body: `{"error":{"code":404}}`},
		})
	}))
	defer srv.Close()

	e := NewEngine(srv.Client(), WithEndpoint(srv.URL), WithMaxAttempts(5))
	out, err := e.Do(context.Background(), []SubRequest{
		{Method: "GET", Path: "/calendar/v3/calendars/primary/events"},
		{Method: "GET", Path: "/calendar/v3/calendars/missing/events"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 200, out[0].StatusCode)
	assert.Equal(t, 404, out[1].StatusCode)
}

func TestEngineExhaustsRetryBudget(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e := NewEngine(srv.Client(), WithEndpoint(srv.URL), WithMaxAttempts(3))
	_, err := e.Do(context.Background(), []SubRequest{
		{Method: "GET", Path: "/calendar/v3/calendars/primary/events"},
	})
	require.Error(t, err)
	var rle *apierr.RateLimitError
	assert.True(t, errors.As(err, &rle), "expected a rate limit error, got %v", err)
	assert.Equal(t, 3, calls)
}

func TestParseStringOrArray(t *testing.T) {
	tests := []struct {
		name    string
		param   interface{}
		want    []string
		wantErr bool
	}{
		{name: "single string", param: "primary", want: []string{"primary"}},
		{name: "array", param: []interface{}{"primary", "work@example.com"}, want: []string{"primary", "work@example.com"}},
		{name: "string slice", param: []string{"primary"}, want: []string{"primary"}},
		{name: "nil", param: nil, wantErr: true},
		{name: "empty string", param: "", wantErr: true},
		{name: "empty array", param: []interface{}{}, wantErr: true},
		{name: "non-string element", param: []interface{}{"primary", 42}, wantErr: true},
		{name: "wrong type", param: 42, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStringOrArray(tt.param, "calendarId")
			if tt.wantErr {
				require.Error(t, err)
				var ve *apierr.ValidationError
				assert.True(t, errors.As(err, &ve))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type fakeMetrics struct {
	calls   int
	size    int
	status  string
	retries int
}

func (f *fakeMetrics) RecordBatchCall(_ context.Context, size int, status string) {
	f.calls++
	f.size = size
	f.status = status
}

func (f *fakeMetrics) RecordBatchRetry(_ context.Context) {
	f.retries++
}

func TestEngineRecordsMetrics(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeBatchResponse(t, w, []fakePart{
			{contentID: "<response-item-1>", status: 200, body: `{}`},
			{contentID: "<response-item-2>", status: 200, body: `{}`},
		})
	}))
	defer srv.Close()

	recorder := &fakeMetrics{}
	e := NewEngine(srv.Client(), WithEndpoint(srv.URL), WithMaxAttempts(5))
	e.SetMetrics(recorder)

	_, err := e.Do(context.Background(), []SubRequest{
		{Method: "GET", Path: "/calendar/v3/calendars/primary/events"},
		{Method: "GET", Path: "/calendar/v3/calendars/work/events"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, recorder.calls)
	assert.Equal(t, 2, recorder.size)
	assert.Equal(t, "success", recorder.status)
	assert.Equal(t, 1, recorder.retries)
}
