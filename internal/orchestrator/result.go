package orchestrator

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/ajitpratap0/logexport/pkg/errors"
)

// Status is the outcome of one configuration entry in an invocation.
type Status string

const (
	// StatusStarted means the export task was accepted by the service
	StatusStarted Status = "EXPORT_STARTED"
	// StatusFailed means submission failed; Error says why
	StatusFailed Status = "EXPORT_FAILED"
	// StatusDeferred means the invocation ran out of budget before the entry
	// could start; the next cycle picks it up
	StatusDeferred Status = "EXPORT_DEFERRED"
	// StatusSkipped means another invocation holds the entry's lease
	StatusSkipped Status = "EXPORT_SKIPPED"
)

// Statuses lists every status in reporting order
var Statuses = []Status{StatusStarted, StatusFailed, StatusDeferred, StatusSkipped}

// Result records what happened to one entry.
type Result struct {
	LogGroupName string           `json:"logGroupName"`
	Destination  string           `json:"destination,omitempty"`
	TaskID       string           `json:"taskId,omitempty"`
	Error        string           `json:"error,omitempty"`
	ErrorType    errors.ErrorType `json:"errorType,omitempty"`
	Status       Status           `json:"status"`
}

// Report is the outcome of one invocation. Results has one element per
// configuration entry, in scan order.
type Report struct {
	InvocationID string         `json:"invocationId"`
	Window       Window         `json:"window"`
	Results      []Result       `json:"results"`
	Counts       map[Status]int `json:"counts"`
	Duration     time.Duration  `json:"-"`
}

func newReport(invocationID string, window Window, results []Result) *Report {
	counts := make(map[Status]int, len(Statuses))
	for _, r := range results {
		counts[r.Status]++
	}
	return &Report{
		InvocationID: invocationID,
		Window:       window,
		Results:      results,
		Counts:       counts,
	}
}

// Count returns how many results have status s
func (r *Report) Count(s Status) int {
	return r.Counts[s]
}

// Message summarises the report the way the function response reports it
func (r *Report) Message() string {
	if len(r.Results) == 0 {
		return "No log group configurations found"
	}
	return "CloudWatch Logs export process completed"
}

// Response is the function's return value.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

type responseBody struct {
	Message string   `json:"message"`
	Results []Result `json:"results"`
}

// Response renders the report as the function response. Per-entry failures
// never change the status code.
func (r *Report) Response() (Response, error) {
	results := r.Results
	if results == nil {
		results = []Result{}
	}
	body, err := json.Marshal(responseBody{Message: r.Message(), Results: results})
	if err != nil {
		return Response{}, errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode response body")
	}
	return Response{StatusCode: http.StatusOK, Body: string(body)}, nil
}
