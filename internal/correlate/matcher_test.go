package correlate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/chabad360/dawctl/osc"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestMatcher_FIFO(t *testing.T) {
	m := NewMatcher()
	first := m.Expect("/track/count")
	second := m.Expect("/track/count")
	require.Equal(t, 2, m.Len())

	_, err := uuid.Parse(first.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	require.True(t, m.Resolve(osc.NewMessage("/track/count", int32(3))))

	select {
	case <-first.Done():
	default:
		t.Fatal("oldest request should complete first")
	}
	select {
	case <-second.Done():
		t.Fatal("second request completed early")
	default:
	}

	reply, err := first.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int32(3)}, reply.Arguments)

	require.True(t, m.Resolve(osc.NewMessage("/track/count", int32(4))))
	reply, err = second.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int32(4)}, reply.Arguments)
	assert.Zero(t, m.Len())
}

func TestMatcher_ByAddress(t *testing.T) {
	m := NewMatcher()
	name := m.Expect("/project/name")
	track := m.Expect("/track/*/name")

	assert.False(t, m.Resolve(osc.NewMessage("/track/count", int32(1))), "unrelated reply")
	assert.True(t, m.Resolve(osc.NewMessage("/track/2/name", "Keys")))
	assert.True(t, m.Resolve(osc.NewMessage("/project/name", "Song")))

	reply, err := track.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/track/2/name", reply.Address)

	reply, err = name.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Song", reply.Arguments[0])
}

func TestMatcher_Tagged(t *testing.T) {
	m := NewMatcher()
	untagged := m.Expect("/project/name")
	tagged := m.ExpectTagged("/project/name")

	require.True(t, m.Resolve(osc.NewMessage("/project/name", "Song", tagged.ID)))

	reply, err := tagged.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"Song"}, reply.Arguments, "tag is stripped from the reply")

	select {
	case <-untagged.Done():
		t.Fatal("tagged reply must not complete an untagged request")
	default:
	}
	assert.Equal(t, 1, m.Len())
	m.Close()
}

func TestMatcher_TaggedWrongAddress(t *testing.T) {
	m := NewMatcher()
	p := m.ExpectTagged("/project/name")

	assert.False(t, m.Resolve(osc.NewMessage("/track/count", p.ID)))
	assert.Equal(t, 1, m.Len())
	m.Close()
}

func TestMatcher_Timeout(t *testing.T) {
	m := NewMatcher()
	p := m.Expect("/project/path")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	reply, err := p.Wait(ctx)
	assert.Nil(t, reply)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	assert.Zero(t, m.Len(), "timed out request is withdrawn")
	assert.False(t, m.Resolve(osc.NewMessage("/project/path", "/tmp")), "late reply is unmatched")
}

func TestMatcher_WaitCanceled(t *testing.T) {
	m := NewMatcher()
	p := m.Expect("/track/count")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reply, err := p.Wait(ctx)
	assert.Nil(t, reply)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTimeout, "an interrupt is not a missed deadline")
	assert.Zero(t, m.Len(), "canceled request is withdrawn")
}

func TestMatcher_Close(t *testing.T) {
	m := NewMatcher()
	a := m.Expect("/track/count")
	b := m.ExpectTagged("/project/name")

	m.Close()

	_, err := a.Wait(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	_, err = b.Wait(context.Background())
	assert.ErrorIs(t, err, ErrClosed)

	c := m.Expect("/track/count")
	_, err = c.Wait(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.Zero(t, m.Len())
}

func TestMatcher_Concurrent(t *testing.T) {
	m := NewMatcher()
	const n = 50

	pending := make([]*Pending, n)
	for i := range pending {
		pending[i] = m.Expect("/track/count")
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Resolve(osc.NewMessage("/track/count", int32(i)))
		}(i)
	}
	wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for _, p := range pending {
		_, err := p.Wait(ctx)
		require.NoError(t, err)
	}
	assert.Zero(t, m.Len())
}

func TestPending_Cancel(t *testing.T) {
	m := NewMatcher()
	p := m.ExpectTagged("/track/count")
	p.Cancel()

	assert.Zero(t, m.Len())
	_, err := p.Wait(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, m.Resolve(osc.NewMessage("/track/count", int32(1), p.ID)))
}
