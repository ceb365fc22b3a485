package tracker_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/ogulcanaydogan/xcli/pkg/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrompter_Answers(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"  yes  \n", true},
		{"n\n", false},
		{"\n", false},
		{"maybe\n", false},
		{"y", true},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var out bytes.Buffer
			p := tracker.NewPrompter(strings.NewReader(tt.input), &out, true)
			got, err := p.Confirm(context.Background(), "Spend more?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Spend more? [y/N]")
		})
	}
}

func TestPrompter_SuccessiveQuestions(t *testing.T) {
	p := tracker.NewPrompter(strings.NewReader("y\nn\n"), io.Discard, true)
	first, err := p.Confirm(context.Background(), "one")
	require.NoError(t, err)
	second, err := p.Confirm(context.Background(), "two")
	require.NoError(t, err)
	assert.True(t, first)
	assert.False(t, second)
}

func TestPrompter_NonInteractive(t *testing.T) {
	var out bytes.Buffer
	p := tracker.NewPrompter(strings.NewReader("y\n"), &out, false)
	ok, err := p.Confirm(context.Background(), "Spend more?")
	assert.ErrorIs(t, err, tracker.ErrNonInteractive)
	assert.False(t, ok)
	assert.Empty(t, out.String())
}

func TestPrompter_ContextCancelled(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	p := tracker.NewPrompter(r, io.Discard, true)
	ok, err := p.Confirm(ctx, "Spend more?")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ok)
}
