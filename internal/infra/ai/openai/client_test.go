package openai

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gioaltam/Inspection-agent/internal/domain/report"
	"github.com/Gioaltam/Inspection-agent/internal/logging"
)

type stubCompleter struct {
	responses []string
	errs      []error
	calls     int
	requests  []openai.ChatCompletionRequest
}

func (s *stubCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	i := s.calls
	s.calls++
	s.requests = append(s.requests, req)
	if i < len(s.errs) && s.errs[i] != nil {
		return openai.ChatCompletionResponse{}, s.errs[i]
	}
	text := ""
	if i < len(s.responses) {
		text = s.responses[i]
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: text}},
		},
	}, nil
}

func testClient(stub *stubCompleter, retries int) *Client {
	return &Client{
		api:     stub,
		log:     logging.Nop(),
		Model:   "gpt-4o",
		MaxPx:   64,
		Retries: retries,
		Backoff: time.Millisecond,
	}
}

func testImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photo.jpg")
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

const detailedNotes = "Location:\nFront entry\nIssues to Address:\nCracked threshold, repair recommended"

func TestDescribeReturnsNotes(t *testing.T) {
	stub := &stubCompleter{responses: []string{detailedNotes}}
	c := testClient(stub, 2)

	out, err := c.Describe(context.Background(), testImage(t))
	require.NoError(t, err)
	assert.Equal(t, detailedNotes, out)
	assert.Equal(t, 1, stub.calls)
}

func TestDescribeSecondPassOnEvasiveAnswer(t *testing.T) {
	stub := &stubCompleter{responses: []string{"Lovely blue door.", detailedNotes}}
	c := testClient(stub, 0)

	out, err := c.Describe(context.Background(), testImage(t))
	require.NoError(t, err)
	assert.Equal(t, detailedNotes, out)
	require.Equal(t, 2, stub.calls)

	first := stub.requests[0].Messages[1].MultiContent[0].Text
	second := stub.requests[1].Messages[1].MultiContent[0].Text
	assert.NotEqual(t, first, second)
}

func TestDescribeKeepsFirstAnswerWhenSecondPassFails(t *testing.T) {
	stub := &stubCompleter{
		responses: []string{"Lovely blue door.", ""},
		errs:      []error{nil, errors.New("boom")},
	}
	c := testClient(stub, 0)

	out, err := c.Describe(context.Background(), testImage(t))
	require.NoError(t, err)
	assert.Equal(t, "Lovely blue door.", out)
}

func TestDescribeRetriesTransientErrors(t *testing.T) {
	stub := &stubCompleter{
		responses: []string{"", "", detailedNotes},
		errs:      []error{errors.New("transient"), errors.New("transient"), nil},
	}
	c := testClient(stub, 3)

	out, err := c.Describe(context.Background(), testImage(t))
	require.NoError(t, err)
	assert.Equal(t, detailedNotes, out)
	assert.Equal(t, 3, stub.calls)
}

func TestDescribeExhaustedRetries(t *testing.T) {
	stub := &stubCompleter{
		errs: []error{errors.New("down"), errors.New("down"), errors.New("down")},
	}
	c := testClient(stub, 2)

	_, err := c.Describe(context.Background(), testImage(t))
	assert.ErrorIs(t, err, report.ErrAnalysisFailed)
	assert.Equal(t, 3, stub.calls)
}

func TestDescribeQuotaErrorIsNotRetried(t *testing.T) {
	stub := &stubCompleter{
		errs: []error{&openai.APIError{HTTPStatusCode: 429, Message: "quota"}},
	}
	c := testClient(stub, 5)

	_, err := c.Describe(context.Background(), testImage(t))
	assert.ErrorIs(t, err, report.ErrQuotaExceeded)
	assert.Equal(t, 1, stub.calls)
}

func TestDescribeSendsDataURL(t *testing.T) {
	stub := &stubCompleter{responses: []string{detailedNotes}}
	c := testClient(stub, 0)

	_, err := c.Describe(context.Background(), testImage(t))
	require.NoError(t, err)

	parts := stub.requests[0].Messages[1].MultiContent
	require.Len(t, parts, 2)
	require.NotNil(t, parts[1].ImageURL)
	assert.Contains(t, parts[1].ImageURL.URL, "data:image/jpeg;base64,")
}

func TestDescribeMissingImage(t *testing.T) {
	stub := &stubCompleter{}
	c := testClient(stub, 0)

	_, err := c.Describe(context.Background(), filepath.Join(t.TempDir(), "missing.jpg"))
	assert.Error(t, err)
	assert.Equal(t, 0, stub.calls)
}
