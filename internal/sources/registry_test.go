package sources

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lipidlibrarian/pkg/models"
)

type fakeSource struct {
	Stub
	lipids []*models.Lipid
}

func (f *fakeSource) QueryID(context.Context, string) ([]*models.Lipid, error) {
	return f.lipids, nil
}

func TestRegistryBuildsOnce(t *testing.T) {
	var built atomic.Int32
	r := NewRegistry(nil)
	r.Register(LipidMaps, func() (Source, error) {
		built.Add(1)
		return &fakeSource{Stub: Stub{name: LipidMaps}}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, ok := r.Get(LipidMaps)
			assert.True(t, ok)
			assert.Equal(t, LipidMaps, s.Name())
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), built.Load())
}

func TestRegistryDegradesToStub(t *testing.T) {
	var built atomic.Int32
	r := NewRegistry(nil)
	r.Register(Lion, func() (Source, error) {
		built.Add(1)
		return nil, errors.New("missing obo file")
	})

	s, ok := r.Get(Lion)
	require.True(t, ok)
	_, isStub := s.(*Stub)
	assert.True(t, isStub)
	out, err := s.QueryLipid(context.Background(), models.NewLipid())
	assert.NoError(t, err)
	assert.Empty(t, out)

	_, _ = r.Get(Lion)
	assert.Equal(t, int32(1), built.Load(), "a failed constructor is not retried")
}

func TestRegistrySelect(t *testing.T) {
	r := NewRegistry(nil)
	lipid := models.NewLipid()
	r.RegisterSource(&fakeSource{Stub: Stub{name: SwissLipids}, lipids: []*models.Lipid{lipid}})
	r.RegisterSource(NewStub(Alex123))

	got := r.Select([]string{SwissLipids, "hmdb"})
	require.Len(t, got, 1)
	out, err := got[SwissLipids].QueryID(context.Background(), "SLM:000000001")
	require.NoError(t, err)
	assert.Equal(t, []*models.Lipid{lipid}, out)
	assert.Equal(t, []string{SwissLipids, Alex123}, r.Names())
}

func TestSample(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6}
	assert.Equal(t, items, Sample(items, 0))
	assert.Equal(t, items, Sample(items, 10))

	got := Sample(items, 3)
	require.Len(t, got, 3)
	assert.IsIncreasing(t, got)
	assert.Subset(t, items, got)
}
