package replicate

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/basel-ax/roomdream/internal/domain"
)

// Job statuses reported by the predictions API.
const (
	StatusStarting   = "starting"
	StatusProcessing = "processing"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"
)

// Job is a prediction as returned by the API.
type Job struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  json.RawMessage `json:"error"`
}

// Terminal reports whether the job will not change state any more.
func (j *Job) Terminal() bool {
	switch j.Status {
	case StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

// Result maps a terminal job to the caller-facing outcome. Any error field,
// non-succeeded status or unparseable output URL is a failure.
func (j *Job) Result() domain.GenerationResult {
	res := domain.GenerationResult{JobID: j.ID, State: domain.GenerationFailed}

	if msg := j.errorMessage(); msg != "" {
		res.Reason = msg
		return res
	}
	if j.Status != StatusSucceeded {
		res.Reason = "status " + j.Status
		return res
	}

	out, err := j.outputURL()
	if err != nil {
		res.Reason = err.Error()
		return res
	}

	res.State = domain.GenerationSucceeded
	res.OutputURL = out
	return res
}

func (j *Job) errorMessage() string {
	if len(j.Error) == 0 || string(j.Error) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(j.Error, &s); err == nil {
		return s
	}
	return string(j.Error)
}

// outputURL accepts a single URL string, or a list of URLs where the last
// entry is the final rendering.
func (j *Job) outputURL() (string, error) {
	if len(j.Output) == 0 || string(j.Output) == "null" {
		return "", fmt.Errorf("missing output")
	}

	var raw string
	var single string
	var list []string
	switch {
	case json.Unmarshal(j.Output, &single) == nil:
		raw = single
	case json.Unmarshal(j.Output, &list) == nil && len(list) > 0:
		raw = list[len(list)-1]
	default:
		return "", fmt.Errorf("unexpected output %s", string(j.Output))
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid output url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid output url %q", raw)
	}
	return raw, nil
}
