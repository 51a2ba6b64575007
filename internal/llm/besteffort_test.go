package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	response string
	err      error
}

func (f *fakeClient) Complete(ctx context.Context, prompt string) (string, error) {
	return f.response, f.err
}

func (f *fakeClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f.response, f.err
}

type testPlan struct {
	Analysis string   `json:"analysis"`
	Items    []string `json:"items"`
}

func TestCallJSON_RemotePath(t *testing.T) {
	client := &fakeClient{response: `{"analysis":"ok","items":["a","b"]}`}

	res := CallJSON(context.Background(), client, nil, "sys", "user", func() testPlan {
		return testPlan{Analysis: "fallback"}
	})

	assert.True(t, res.Remote())
	assert.Equal(t, SourceRemote, res.Source)
	assert.Equal(t, "ok", res.Value.Analysis)
	assert.Equal(t, []string{"a", "b"}, res.Value.Items)
	assert.NoError(t, res.Err)
}

func TestCallJSON_TransportErrorFallsBack(t *testing.T) {
	client := &fakeClient{err: errors.New("connection refused")}

	res := CallJSON(context.Background(), client, nil, "sys", "user", func() testPlan {
		return testPlan{Analysis: "fallback"}
	})

	assert.False(t, res.Remote())
	assert.Equal(t, SourceFallback, res.Source)
	assert.Equal(t, "fallback", res.Value.Analysis)
	assert.Error(t, res.Err)
}

func TestCallJSON_GarbageResponseFallsBack(t *testing.T) {
	client := &fakeClient{response: "I could not produce JSON today, sorry."}

	res := CallJSON(context.Background(), client, nil, "sys", "user", func() testPlan {
		return testPlan{Analysis: "fallback"}
	})

	assert.Equal(t, SourceFallback, res.Source)
	assert.Equal(t, "fallback", res.Value.Analysis)
}

func TestDecodeResponse_CodeFence(t *testing.T) {
	value, err := DecodeResponse[testPlan]("```json\n{\"analysis\":\"fenced\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "fenced", value.Analysis)
}

func TestDecodeResponse_BracesInStrings(t *testing.T) {
	// The old first-'{'/last-'}' scan broke on this input.
	value, err := DecodeResponse[testPlan](`{"analysis":"use {curly} braces","items":[]}`)
	require.NoError(t, err)
	assert.Equal(t, "use {curly} braces", value.Analysis)
}

func TestDecodeResponse_TrailingProse(t *testing.T) {
	_, err := DecodeResponse[testPlan](`{"analysis":"x"} Hope that helps!`)
	assert.Error(t, err)
}

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "no fence", in: `{"a":1}`, want: `{"a":1}`},
		{name: "json fence", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "surrounding whitespace", in: "  \n```json\n{}\n```\n ", want: "{}"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripCodeFences(tc.in))
		})
	}
}
