package replicate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/basel-ax/roomdream/internal/domain"
)

func TestJobResult(t *testing.T) {
	tests := []struct {
		name   string
		job    Job
		state  domain.GenerationState
		output string
	}{
		{
			name:   "string output",
			job:    Job{Status: StatusSucceeded, Output: []byte(`"https://cdn.example/a.png"`)},
			state:  domain.GenerationSucceeded,
			output: "https://cdn.example/a.png",
		},
		{
			name:   "list output uses last entry",
			job:    Job{Status: StatusSucceeded, Output: []byte(`["https://cdn.example/edges.png","https://cdn.example/b.png"]`)},
			state:  domain.GenerationSucceeded,
			output: "https://cdn.example/b.png",
		},
		{
			name:  "failed status",
			job:   Job{Status: StatusFailed},
			state: domain.GenerationFailed,
		},
		{
			name:  "canceled status",
			job:   Job{Status: StatusCanceled},
			state: domain.GenerationFailed,
		},
		{
			name:  "error set on succeeded job",
			job:   Job{Status: StatusSucceeded, Output: []byte(`"https://cdn.example/a.png"`), Error: []byte(`"NSFW content detected"`)},
			state: domain.GenerationFailed,
		},
		{
			name:  "missing output",
			job:   Job{Status: StatusSucceeded, Output: []byte(`null`)},
			state: domain.GenerationFailed,
		},
		{
			name:  "relative output",
			job:   Job{Status: StatusSucceeded, Output: []byte(`"/tmp/out.png"`)},
			state: domain.GenerationFailed,
		},
		{
			name:  "non-url output",
			job:   Job{Status: StatusSucceeded, Output: []byte(`{"image":"x"}`)},
			state: domain.GenerationFailed,
		},
		{
			name:  "empty list",
			job:   Job{Status: StatusSucceeded, Output: []byte(`[]`)},
			state: domain.GenerationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tt.job.Result()
			assert.Equal(t, tt.state, res.State)
			assert.Equal(t, tt.output, res.OutputURL)
			if tt.state == domain.GenerationFailed {
				assert.NotEmpty(t, res.Reason)
			}
		})
	}
}

func TestJobTerminal(t *testing.T) {
	assert.False(t, (&Job{Status: StatusStarting}).Terminal())
	assert.False(t, (&Job{Status: StatusProcessing}).Terminal())
	assert.True(t, (&Job{Status: StatusSucceeded}).Terminal())
	assert.True(t, (&Job{Status: StatusFailed}).Terminal())
	assert.True(t, (&Job{Status: StatusCanceled}).Terminal())
}
