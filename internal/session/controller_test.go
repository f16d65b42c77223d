package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipcanvas/internal/banner"
	"clipcanvas/internal/gemini"
)

type generatorMock struct {
	mu    sync.Mutex
	calls []generateCall

	GenerateFunc func(ctx context.Context, prompt string, highQuality bool) (string, error)
	events       *[]string
}

type generateCall struct {
	Prompt      string
	HighQuality bool
}

func (m *generatorMock) GenerateImage(ctx context.Context, prompt string, highQuality bool) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, generateCall{Prompt: prompt, HighQuality: highQuality})
	if m.events != nil {
		*m.events = append(*m.events, "generate")
	}
	m.mu.Unlock()

	if m.GenerateFunc == nil {
		return "data:image/png;base64,AAAA", nil
	}
	return m.GenerateFunc(ctx, prompt, highQuality)
}

type gateMock struct {
	HasCredentialFunc func(ctx context.Context) bool
	hasCalls          int
	requestCalls      int
	events            *[]string
}

func (m *gateMock) HasCredential(ctx context.Context) bool {
	m.hasCalls++
	if m.events != nil {
		*m.events = append(*m.events, "check")
	}
	if m.HasCredentialFunc == nil {
		return false
	}
	return m.HasCredentialFunc(ctx)
}

func (m *gateMock) RequestCredential(ctx context.Context) {
	m.requestCalls++
	if m.events != nil {
		*m.events = append(*m.events, "request")
	}
}

type stepClock struct {
	t time.Time
}

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newController(gen ImageGenerator, gate AccessGate) *Controller {
	clock := &stepClock{t: time.UnixMilli(1_700_000_000_000)}
	return New(Options{Generator: gen, Gate: gate, Now: clock.Now})
}

func TestNew_InitialState(t *testing.T) {
	c := newController(&generatorMock{}, &gateMock{})
	st := c.Snapshot()

	assert.False(t, st.Loading)
	assert.Empty(t, st.Error)
	assert.Empty(t, st.History)
	assert.Equal(t, NoSelection, st.CurrentIndex)
	assert.Equal(t, banner.StyleGaming, st.Config.Style)
	assert.True(t, st.ShowSafeZone)

	_, ok := c.Current()
	assert.False(t, ok)
}

func TestGenerate_DefaultScenario(t *testing.T) {
	gen := &generatorMock{}
	gate := &gateMock{}
	c := newController(gen, gate)

	require.NoError(t, c.Generate(context.Background()))

	require.Len(t, gen.calls, 1)
	assert.Equal(t, "Gaming style, focus on high energy clips channel aesthetics", gen.calls[0].Prompt)
	assert.False(t, gen.calls[0].HighQuality)
	assert.Equal(t, 0, gate.hasCalls)
	assert.Equal(t, 0, gate.requestCalls)

	st := c.Snapshot()
	require.Len(t, st.History, 1)
	assert.Equal(t, 0, st.CurrentIndex)
	assert.Equal(t, "data:image/png;base64,AAAA", st.History[0].URL)
	assert.Equal(t, gen.calls[0].Prompt, st.History[0].Prompt)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Error)
}

func TestGenerate_CustomPrompt(t *testing.T) {
	gen := &generatorMock{}
	c := newController(gen, &gateMock{})
	require.NoError(t, c.SetStyle(banner.StylePodcast))
	c.SetCustomPrompt("two mics, warm studio")

	require.NoError(t, c.Generate(context.Background()))
	require.Len(t, gen.calls, 1)
	assert.Equal(t, "Podcast style: two mics, warm studio", gen.calls[0].Prompt)
}

func TestGenerate_PrependsNewestFirst(t *testing.T) {
	n := 0
	gen := &generatorMock{GenerateFunc: func(ctx context.Context, prompt string, hq bool) (string, error) {
		n++
		return "data:image/png;base64," + string(rune('A'+n)), nil
	}}
	c := newController(gen, &gateMock{})

	for i := 0; i < 3; i++ {
		before := len(c.Snapshot().History)
		require.NoError(t, c.Generate(context.Background()))
		st := c.Snapshot()
		assert.Len(t, st.History, before+1)
		assert.Equal(t, 0, st.CurrentIndex)
	}

	st := c.Snapshot()
	assert.Equal(t, "data:image/png;base64,D", st.History[0].URL)
	assert.Equal(t, "data:image/png;base64,B", st.History[2].URL)
	for i := 0; i+1 < len(st.History); i++ {
		assert.Greater(t, st.History[i].Timestamp, st.History[i+1].Timestamp)
	}
}

func TestGenerate_SameInstantKeepsTimestampsUnique(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	c := New(Options{Generator: &generatorMock{}, Now: func() time.Time { return fixed }})

	require.NoError(t, c.Generate(context.Background()))
	require.NoError(t, c.Generate(context.Background()))

	st := c.Snapshot()
	require.Len(t, st.History, 2)
	assert.Equal(t, fixed.UnixMilli()+1, st.History[0].Timestamp)
	assert.Equal(t, fixed.UnixMilli(), st.History[1].Timestamp)
}

func TestGenerate_HighQualityWithoutCredential(t *testing.T) {
	var events []string
	gen := &generatorMock{events: &events}
	gate := &gateMock{events: &events}
	c := newController(gen, gate)
	c.SetHighQuality(true)

	require.NoError(t, c.Generate(context.Background()))

	assert.Equal(t, []string{"check", "request", "generate"}, events)
	assert.Equal(t, 1, gate.requestCalls)
	require.Len(t, gen.calls, 1)
	assert.True(t, gen.calls[0].HighQuality)
	assert.Len(t, c.Snapshot().History, 1)
}

func TestGenerate_HighQualityWithCredential(t *testing.T) {
	var events []string
	gate := &gateMock{events: &events, HasCredentialFunc: func(context.Context) bool { return true }}
	c := newController(&generatorMock{events: &events}, gate)
	c.ToggleHighQuality()

	require.NoError(t, c.Generate(context.Background()))
	assert.Equal(t, []string{"check", "generate"}, events)
	assert.Equal(t, 0, gate.requestCalls)
}

func TestGenerate_EntityNotFound(t *testing.T) {
	gen := &generatorMock{GenerateFunc: func(context.Context, string, bool) (string, error) {
		return "", &gemini.APIError{StatusCode: 404, Status: "NOT_FOUND", Message: "Requested entity was not found."}
	}}
	gate := &gateMock{HasCredentialFunc: func(context.Context) bool { return true }}
	c := newController(gen, gate)
	c.SetHighQuality(true)

	require.NoError(t, c.Generate(context.Background()))

	st := c.Snapshot()
	assert.Equal(t, MsgKeyError, st.Error)
	assert.Equal(t, 1, gate.requestCalls)
	assert.Empty(t, st.History)
	assert.False(t, st.Loading)
}

func TestGenerate_EntityNotFoundPlainError(t *testing.T) {
	gen := &generatorMock{GenerateFunc: func(context.Context, string, bool) (string, error) {
		return "", errors.New("rpc error: Requested entity was not found.")
	}}
	gate := &gateMock{}
	c := newController(gen, gate)

	require.NoError(t, c.Generate(context.Background()))
	assert.Equal(t, MsgKeyError, c.Snapshot().Error)
	assert.Equal(t, 1, gate.requestCalls)
}

func TestGenerate_OtherFailureKeepsHistory(t *testing.T) {
	fail := false
	gen := &generatorMock{GenerateFunc: func(context.Context, string, bool) (string, error) {
		if fail {
			return "", gemini.ErrNoImageReturned
		}
		return "data:image/png;base64,OK", nil
	}}
	gate := &gateMock{}
	c := newController(gen, gate)

	require.NoError(t, c.Generate(context.Background()))
	before := c.Snapshot()

	fail = true
	require.NoError(t, c.Generate(context.Background()))

	st := c.Snapshot()
	assert.Equal(t, MsgGenericFailure, st.Error)
	assert.Equal(t, before.History, st.History)
	assert.Equal(t, before.CurrentIndex, st.CurrentIndex)
	assert.Equal(t, 0, gate.requestCalls)
	assert.False(t, st.Loading)
}

func TestGenerate_ClearsPreviousError(t *testing.T) {
	fail := true
	gen := &generatorMock{GenerateFunc: func(context.Context, string, bool) (string, error) {
		if fail {
			return "", errors.New("boom")
		}
		return "data:image/png;base64,OK", nil
	}}
	c := newController(gen, &gateMock{})

	require.NoError(t, c.Generate(context.Background()))
	assert.Equal(t, MsgGenericFailure, c.Snapshot().Error)

	fail = false
	require.NoError(t, c.Generate(context.Background()))
	assert.Empty(t, c.Snapshot().Error)
}

func TestGenerate_NoGenerator(t *testing.T) {
	c := New(Options{})
	require.NoError(t, c.Generate(context.Background()))
	assert.Equal(t, MsgGenericFailure, c.Snapshot().Error)
}

func TestGenerate_LoadingOnlyWhileInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	gen := &generatorMock{GenerateFunc: func(context.Context, string, bool) (string, error) {
		close(started)
		<-release
		return "data:image/png;base64,OK", nil
	}}
	c := newController(gen, &gateMock{})

	assert.False(t, c.Snapshot().Loading)

	done := make(chan error, 1)
	go func() { done <- c.Generate(context.Background()) }()

	<-started
	assert.True(t, c.Snapshot().Loading)

	assert.ErrorIs(t, c.Generate(context.Background()), ErrGenerationInProgress)
	assert.True(t, c.Snapshot().Loading)

	close(release)
	require.NoError(t, <-done)

	st := c.Snapshot()
	assert.False(t, st.Loading)
	assert.Len(t, st.History, 1)
	assert.Len(t, gen.calls, 1)
}

func TestGenerate_UsesConfigAtInvocation(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	gen := &generatorMock{GenerateFunc: func(context.Context, string, bool) (string, error) {
		close(started)
		<-release
		return "data:image/png;base64,OK", nil
	}}
	c := newController(gen, &gateMock{})

	done := make(chan error, 1)
	go func() { done <- c.Generate(context.Background()) }()
	<-started

	require.NoError(t, c.SetStyle(banner.StyleNature))
	close(release)
	require.NoError(t, <-done)

	st := c.Snapshot()
	assert.Equal(t, "Gaming style, focus on high energy clips channel aesthetics", st.History[0].Prompt)
	assert.Equal(t, banner.StyleNature, st.Config.Style)
}

func TestSelectBanner(t *testing.T) {
	c := newController(&generatorMock{}, &gateMock{})
	for i := 0; i < 3; i++ {
		require.NoError(t, c.Generate(context.Background()))
	}
	before := c.Snapshot().History

	require.NoError(t, c.SelectBanner(2))
	st := c.Snapshot()
	assert.Equal(t, 2, st.CurrentIndex)
	assert.Equal(t, before, st.History)

	cur, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, before[2], cur)

	assert.ErrorIs(t, c.SelectBanner(3), ErrIndexOutOfRange)
	assert.ErrorIs(t, c.SelectBanner(-1), ErrIndexOutOfRange)
	assert.Equal(t, 2, c.Snapshot().CurrentIndex)
}

func TestConfigChangesKeepHistory(t *testing.T) {
	c := newController(&generatorMock{}, &gateMock{})
	require.NoError(t, c.Generate(context.Background()))
	require.NoError(t, c.Generate(context.Background()))
	require.NoError(t, c.SelectBanner(1))
	before := c.Snapshot()

	require.NoError(t, c.SetStyle(banner.StyleVibrant))
	c.SetCustomPrompt("confetti")
	c.ToggleHighQuality()
	c.ToggleSafeZone()

	st := c.Snapshot()
	assert.Equal(t, before.History, st.History)
	assert.Equal(t, 1, st.CurrentIndex)
	assert.Equal(t, banner.GenerationConfig{Style: banner.StyleVibrant, CustomPrompt: "confetti", HighQuality: true}, st.Config)
	assert.False(t, st.ShowSafeZone)

	assert.ErrorIs(t, c.SetStyle("Vaporwave"), banner.ErrUnknownStyle)
	assert.Equal(t, banner.StyleVibrant, c.Snapshot().Config.Style)
}

func TestFind(t *testing.T) {
	c := newController(&generatorMock{}, &gateMock{})
	require.NoError(t, c.Generate(context.Background()))
	st := c.Snapshot()

	b, ok := c.Find(st.History[0].Timestamp)
	require.True(t, ok)
	assert.Equal(t, st.History[0], b)

	_, ok = c.Find(42)
	assert.False(t, ok)
}

func TestSnapshotIsACopy(t *testing.T) {
	c := newController(&generatorMock{}, &gateMock{})
	require.NoError(t, c.Generate(context.Background()))

	st := c.Snapshot()
	st.History[0].Prompt = "mutated"
	assert.NotEqual(t, "mutated", c.Snapshot().History[0].Prompt)

	cur, ok := st.Current()
	require.True(t, ok)
	assert.Equal(t, "mutated", cur.Prompt)
}
