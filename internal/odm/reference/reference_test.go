package reference

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantle-web/mantle/internal/odm/field"
	"github.com/mantle-web/mantle/internal/web/form"
)

type author struct {
	Name string
}

// countingLookup wraps a fixed table and counts lookups so the
// resolve-once contract is observable.
func countingLookup(table map[string]*author, calls *atomic.Int64) LookupFunc[string, *author] {
	return func(_ context.Context, key string) (*author, bool, error) {
		calls.Add(1)
		a, ok := table[key]
		return a, ok, nil
	}
}

func TestResolveOnce(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int64
	key := field.NewString("author_id")
	key.Set("a1")

	ref := New[string, *author](key, countingLookup(map[string]*author{"a1": {Name: "alice"}}, &calls))

	a, found, err := ref.Resolve(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "alice", a.Name)
	assert.True(t, ref.Cached())

	a, found, err = ref.Resolve(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "alice", a.Name)
	assert.Equal(t, int64(1), calls.Load(), "a second resolve must not query again")
}

func TestResolveCachesAbsence(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int64
	key := field.NewString("author_id")
	key.Set("missing")

	ref := New[string, *author](key, countingLookup(map[string]*author{}, &calls))

	_, found, err := ref.Resolve(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = ref.Resolve(ctx)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, int64(1), calls.Load(), "the absent outcome caches like a hit")
}

func TestResolveUnsetKeySkipsLookup(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int64
	key := field.NewString("author_id", field.AsOptional())

	ref := New[string, *author](key, countingLookup(map[string]*author{}, &calls))

	_, found, err := ref.Resolve(ctx)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, int64(0), calls.Load(), "an unset key resolves absent with no store call")
	assert.True(t, ref.Cached())
}

func TestResolveErrorDoesNotCache(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int64
	boom := errors.New("store down")
	key := field.NewString("author_id")
	key.Set("a1")

	failOnce := func(_ context.Context, k string) (*author, bool, error) {
		if calls.Add(1) == 1 {
			return nil, false, boom
		}
		return &author{Name: "alice"}, true, nil
	}
	ref := New[string, *author](key, failOnce)

	_, _, err := ref.Resolve(ctx)
	assert.ErrorIs(t, err, boom)
	assert.False(t, ref.Cached(), "errors leave the cache unresolved")

	a, found, err := ref.Resolve(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "alice", a.Name)
}

func TestConcurrentFirstResolve(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int64
	key := field.NewString("author_id")
	key.Set("a1")

	ref := New[string, *author](key, countingLookup(map[string]*author{"a1": {Name: "alice"}}, &calls))

	const workers = 32
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			a, found, err := ref.Resolve(ctx)
			assert.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, "alice", a.Name)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), calls.Load(), "concurrent first callers share one lookup")
}

func TestSetKeyResetsCache(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int64
	key := field.NewString("author_id")
	key.Set("a1")

	ref := New[string, *author](key, countingLookup(map[string]*author{
		"a1": {Name: "alice"},
		"a2": {Name: "bob"},
	}, &calls))

	a, _, err := ref.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", a.Name)

	ref.SetKey("a2")
	assert.False(t, ref.Cached())

	a, _, err = ref.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bob", a.Name)
	assert.Equal(t, int64(2), calls.Load())
}

func TestPrimeAvoidsLookup(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int64
	key := field.NewString("author_id")
	key.Set("a1")

	ref := New[string, *author](key, countingLookup(map[string]*author{}, &calls))
	ref.Prime(&author{Name: "primed"}, true)

	a, found, err := ref.Resolve(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "primed", a.Name)
	assert.Equal(t, int64(0), calls.Load(), "a primed reference never queries")
}

func TestResetForcesRequery(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int64
	key := field.NewString("author_id")
	key.Set("a1")

	ref := New[string, *author](key, countingLookup(map[string]*author{"a1": {Name: "alice"}}, &calls))

	_, _, err := ref.Resolve(ctx)
	require.NoError(t, err)
	ref.Reset()
	_, _, err = ref.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}

func TestSelectOptionsPrependsNoneForOptionalKey(t *testing.T) {
	ctx := context.Background()
	source := OptionSourceFunc[string](func(context.Context) ([]form.Option[string], error) {
		return []form.Option[string]{form.Choice("a1", "Alice")}, nil
	})

	optKey := field.NewString("author_id", field.AsOptional())
	ref := New[string, *author](optKey, nil,
		WithOptionSource[string, *author](source),
		WithNoneLabel[string, *author]("(none)"))

	opts, err := ref.SelectOptions(ctx)
	require.NoError(t, err)
	require.Len(t, opts, 2)
	assert.Nil(t, opts[0].Value)
	assert.Equal(t, "(none)", opts[0].Label)
	require.NotNil(t, opts[1].Value)
	assert.Equal(t, "a1", *opts[1].Value)

	mandKey := field.NewString("author_id")
	ref = New[string, *author](mandKey, nil, WithOptionSource[string, *author](source))
	opts, err = ref.SelectOptions(ctx)
	require.NoError(t, err)
	require.Len(t, opts, 1, "mandatory keys get no empty entry")
}

func TestSelectOptionsWithoutSource(t *testing.T) {
	key := field.NewString("author_id")
	ref := New[string, *author](key, nil)
	opts, err := ref.SelectOptions(context.Background())
	require.NoError(t, err)
	assert.Nil(t, opts)
}
