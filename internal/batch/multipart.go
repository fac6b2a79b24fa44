package batch

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// contentIDForIndex tags a sub-request part so its response can be matched
// back even if the server reorders parts. The server echoes the id with a
// "response-" prefix.
func contentIDForIndex(i int) string {
	return fmt.Sprintf("<item-%d>", i+1)
}

// indexFromContentID recovers the zero-based sub-request index from a
// response part's Content-ID header. Returns -1 when the header is absent or
// not in the expected shape.
func indexFromContentID(id string) int {
	id = strings.Trim(id, "<>")
	id = strings.TrimPrefix(id, "response-")
	id = strings.TrimPrefix(id, "item-")
	n, err := strconv.Atoi(id)
	if err != nil || n < 1 {
		return -1
	}
	return n - 1
}

// EncodeRequests encodes the sub-requests as a multipart/mixed body. It
// returns the body and the Content-Type header value carrying the boundary.
// Each part is an application/http message: a request line with the relative
// path, then headers, then the JSON body for writes.
func EncodeRequests(reqs []SubRequest) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	// A unique boundary guards against payload bytes colliding with the
	// delimiter.
	if err := w.SetBoundary("batch_" + uuid.NewString()); err != nil {
		return nil, "", fmt.Errorf("failed to set multipart boundary: %w", err)
	}

	for i, req := range reqs {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Type", "application/http")
		// Direct assignment keeps the exact "Content-ID" spelling; Set would
		// canonicalize the key to "Content-Id".
		hdr["Content-ID"] = []string{contentIDForIndex(i)}
		hdr.Set("Content-Transfer-Encoding", "binary")

		part, err := w.CreatePart(hdr)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create part %d: %w", i, err)
		}

		var body []byte
		if req.Body != nil {
			body, err = json.Marshal(req.Body)
			if err != nil {
				return nil, "", fmt.Errorf("failed to encode body of part %d: %w", i, err)
			}
		}

		fmt.Fprintf(part, "%s %s HTTP/1.1\r\n", req.Method, req.Path)
		if len(body) > 0 {
			fmt.Fprintf(part, "Content-Type: application/json\r\n")
			fmt.Fprintf(part, "Content-Length: %d\r\n", len(body))
		}
		fmt.Fprintf(part, "\r\n")
		if len(body) > 0 {
			part.Write(body)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	return buf.Bytes(), "multipart/mixed; boundary=" + w.Boundary(), nil
}

// DecodeResponses splits a multipart/mixed response body into n sub-responses
// ordered to match the original sub-requests. Parts are matched by Content-ID
// when present, by arrival position otherwise. A part that cannot be parsed
// becomes an error outcome at its position rather than failing the batch.
func DecodeResponses(body io.Reader, contentType string, n int) ([]SubResponse, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("malformed batch response content type %q: %w", contentType, err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		return nil, fmt.Errorf("unexpected batch response content type %q", mediaType)
	}
	boundary := params["boundary"]
	if boundary == "" {
		return nil, fmt.Errorf("batch response is missing its multipart boundary")
	}

	out := make([]SubResponse, n)
	seen := make([]bool, n)
	for i := range out {
		out[i] = SubResponse{Err: fmt.Errorf("no response part received for sub-request %d", i)}
	}

	mr := multipart.NewReader(body, boundary)
	pos := 0
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read batch response part: %w", err)
		}

		idx := indexFromContentID(part.Header.Get("Content-ID"))
		if idx < 0 || idx >= n || seen[idx] {
			// Fall back to positional correlation.
			idx = pos
		}
		pos++
		if idx >= n {
			part.Close()
			continue
		}

		out[idx] = decodePart(part)
		seen[idx] = true
		part.Close()
	}

	return out, nil
}

// decodePart parses the embedded application/http message of one part.
func decodePart(part io.Reader) SubResponse {
	resp, err := http.ReadResponse(bufio.NewReader(part), nil)
	if err != nil {
		return SubResponse{Err: fmt.Errorf("unparseable sub-response: %w", err)}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return SubResponse{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read sub-response body: %w", err)}
	}

	return SubResponse{StatusCode: resp.StatusCode, Body: payload}
}
