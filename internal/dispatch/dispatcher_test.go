package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ShayCichocki/sot/internal/completion"
	"github.com/ShayCichocki/sot/internal/completion/completiontest"
	"github.com/ShayCichocki/sot/pkg/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func threePoints() models.Skeleton {
	return models.Skeleton{{Index: 1, Label: "A"}, {Index: 2, Label: "B"}, {Index: 3, Label: "C"}}
}

func pointMarker(index int) string {
	return "writing of point " + models.Point{Index: index}.String()
}

func TestDispatch_AllSucceed(t *testing.T) {
	fake := completiontest.NewFake(completiontest.Reply{Text: "default"}).
		On(pointMarker(1), completiontest.Reply{Text: "about A"}).
		On(pointMarker(2), completiontest.Reply{Text: "about B"}).
		On(pointMarker(3), completiontest.Reply{Text: "about C"})

	results := New(fake, Config{}).Dispatch(context.Background(), "List 3 tips", threePoints())

	require.Len(t, results, 3)
	for i, want := range []string{"about A", "about B", "about C"} {
		assert.Equal(t, i+1, results[i].Index)
		assert.Equal(t, models.StatusSuccess, results[i].Status)
		assert.Equal(t, want, results[i].Text)
	}
	assert.Equal(t, 3, fake.Calls())
}

func TestDispatch_PromptCarriesOutline(t *testing.T) {
	fake := completiontest.NewFake(completiontest.Reply{Text: "x"})

	New(fake, Config{}).Dispatch(context.Background(), "List 3 tips", threePoints())

	prompts := fake.Prompts()
	require.Len(t, prompts, 3)
	for _, p := range prompts {
		assert.Contains(t, p, "List 3 tips")
		assert.Contains(t, p, "1. A\n2. B\n3. C")
	}
}

func TestDispatch_TimeoutIsContained(t *testing.T) {
	fake := completiontest.NewFake(completiontest.Reply{Text: "ok"}).
		On(pointMarker(2), completiontest.Reply{Text: "late", Delay: 2 * time.Second})

	start := time.Now()
	results := New(fake, Config{PointTimeout: 50 * time.Millisecond}).
		Dispatch(context.Background(), "q", threePoints())

	assert.Less(t, time.Since(start), time.Second, "timed out point should not hold the job")
	require.Len(t, results, 3)
	assert.True(t, results[0].OK())
	assert.Equal(t, models.StatusError, results[1].Status)
	assert.Equal(t, models.ErrorKindTimeout, results[1].ErrorKind)
	assert.Empty(t, results[1].Text)
	assert.True(t, results[2].OK())
}

func TestDispatch_BackendErrorIsContained(t *testing.T) {
	fake := completiontest.NewFake(completiontest.Reply{Text: "ok"}).
		On(pointMarker(1), completiontest.Reply{Err: &completion.Failure{Kind: models.ErrorKindRateLimited, Message: "429"}}).
		On(pointMarker(3), completiontest.Reply{Err: errors.New("connection reset by peer")})

	results := New(fake, Config{}).Dispatch(context.Background(), "q", threePoints())

	require.Len(t, results, 3)
	assert.Equal(t, models.ErrorKindRateLimited, results[0].ErrorKind)
	assert.Equal(t, "429", results[0].Message)
	assert.True(t, results[1].OK())
	assert.Equal(t, models.ErrorKindTransport, results[2].ErrorKind)
	assert.Contains(t, results[2].Message, "connection reset")
}

type panickyClient struct{}

func (panickyClient) Complete(ctx context.Context, prompt string, params completion.Params) (*completion.Response, error) {
	panic("boom")
}

func TestDispatch_PanicIsContained(t *testing.T) {
	results := New(panickyClient{}, Config{}).Dispatch(context.Background(), "q", threePoints())

	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, models.StatusError, r.Status)
		assert.Contains(t, r.Message, "boom")
	}
}

func TestDispatch_ConcurrencyBound(t *testing.T) {
	skel := make(models.Skeleton, 6)
	for i := range skel {
		skel[i] = models.Point{Index: i + 1, Label: "p"}
	}
	fake := completiontest.NewFake(completiontest.Reply{Text: "ok", Delay: 30 * time.Millisecond})

	results := New(fake, Config{Concurrency: 2}).Dispatch(context.Background(), "q", skel)

	require.Len(t, results, 6)
	for _, r := range results {
		assert.True(t, r.OK())
	}
	assert.LessOrEqual(t, fake.PeakInFlight(), 2)
	assert.Equal(t, 6, fake.Calls())
}

func TestDispatch_AllConcurrentByDefault(t *testing.T) {
	fake := completiontest.NewFake(completiontest.Reply{Text: "ok", Delay: 100 * time.Millisecond})

	start := time.Now()
	New(fake, Config{}).Dispatch(context.Background(), "q", threePoints())

	assert.Equal(t, 3, fake.PeakInFlight())
	assert.Less(t, time.Since(start), 250*time.Millisecond)
}

func TestDispatch_ArrivalOrderDoesNotMatter(t *testing.T) {
	// Later points finish first.
	fake := completiontest.NewFake(completiontest.Reply{Text: "x"}).
		On(pointMarker(1), completiontest.Reply{Text: "first", Delay: 60 * time.Millisecond}).
		On(pointMarker(2), completiontest.Reply{Text: "second", Delay: 30 * time.Millisecond}).
		On(pointMarker(3), completiontest.Reply{Text: "third"})

	var mu sync.Mutex
	var settled []int
	observer := func(e Event) {
		if e.Type != EventSettled {
			return
		}
		mu.Lock()
		settled = append(settled, e.Point.Index)
		mu.Unlock()
	}

	results := New(fake, Config{}, WithObserver(observer)).Dispatch(context.Background(), "q", threePoints())

	assert.Equal(t, []int{3, 2, 1}, settled)
	assert.Equal(t, "first", results[0].Text)
	assert.Equal(t, "second", results[1].Text)
	assert.Equal(t, "third", results[2].Text)
}

func TestDispatch_CancelQueuedPoints(t *testing.T) {
	fake := completiontest.NewFake(completiontest.Reply{Text: "ok", Delay: 5 * time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)

	results := New(fake, Config{Concurrency: 1}).Dispatch(ctx, "q", threePoints())

	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, i+1, r.Index)
		assert.Equal(t, models.ErrorKindCancelled, r.ErrorKind)
	}
	assert.Equal(t, 1, fake.Calls(), "queued points must not reach the backend after cancellation")
}

func TestDispatch_CancelKeepsCompletedPoints(t *testing.T) {
	fake := completiontest.NewFake(completiontest.Reply{Text: "slow", Delay: 5 * time.Second}).
		On(pointMarker(1), completiontest.Reply{Text: "fast"})
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	results := New(fake, Config{}).Dispatch(ctx, "q", threePoints())

	assert.True(t, results[0].OK())
	assert.Equal(t, "fast", results[0].Text)
	assert.Equal(t, models.ErrorKindCancelled, results[1].ErrorKind)
	assert.Equal(t, models.ErrorKindCancelled, results[2].ErrorKind)
}

func TestDispatch_AlreadyCancelled(t *testing.T) {
	fake := completiontest.NewFake(completiontest.Reply{Text: "ok"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := New(fake, Config{}).Dispatch(ctx, "q", threePoints())

	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, models.ErrorKindCancelled, r.ErrorKind)
	}
	assert.Zero(t, fake.Calls())
}

func TestDispatch_EmptySkeleton(t *testing.T) {
	fake := completiontest.NewFake(completiontest.Reply{Text: "ok"})

	results := New(fake, Config{}).Dispatch(context.Background(), "q", nil)

	assert.Empty(t, results)
	assert.Zero(t, fake.Calls())
}

func TestDispatch_ObserverSeesEveryPoint(t *testing.T) {
	fake := completiontest.NewFake(completiontest.Reply{Text: "ok"}).
		On(pointMarker(2), completiontest.Reply{Err: errors.New("bad gateway")})

	var mu sync.Mutex
	counts := map[EventType]int{}
	observer := func(e Event) {
		mu.Lock()
		counts[e.Type]++
		mu.Unlock()
	}

	New(fake, Config{}, WithObserver(observer)).Dispatch(context.Background(), "q", threePoints())

	assert.Equal(t, 3, counts[EventStarted])
	assert.Equal(t, 3, counts[EventSettled])
}
