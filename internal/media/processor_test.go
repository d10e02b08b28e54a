package media_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innkeep/innkeep/internal/hotel"
	"github.com/innkeep/innkeep/internal/media"
	"github.com/innkeep/innkeep/pkg/queue"
	"github.com/innkeep/innkeep/pkg/staging"
	"github.com/innkeep/innkeep/pkg/storage"
)

type fakeStorage struct {
	mu    sync.Mutex
	calls []string

	delays map[string]time.Duration
	fails  map[string]error
}

func (f *fakeStorage) Put(ctx context.Context, r io.Reader, size int64, _ ...storage.Option) (*storage.Object, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	content := string(data)

	f.mu.Lock()
	f.calls = append(f.calls, content)
	f.mu.Unlock()

	if d := f.delays[content]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.fails[content]; err != nil {
		return nil, err
	}

	return &storage.Object{Key: content, URL: "https://cdn.test/" + content, Size: size}, nil
}

func (f *fakeStorage) Delete(context.Context, string) error { return nil }

func (f *fakeStorage) URL(key string) string { return "https://cdn.test/" + key }

func (f *fakeStorage) uploaded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeRepo struct {
	mu         sync.Mutex
	hotel      *hotel.Hotel
	findErr    error
	persistErr error
	setCalls   [][]string
	mergeCalls [][]string
}

func (f *fakeRepo) lookup(hotelID, ownerID uuid.UUID) (*hotel.Hotel, error) {
	if f.hotel == nil || f.hotel.ID != hotelID || f.hotel.OwnerID != ownerID {
		return nil, hotel.ErrNotFound
	}
	return f.hotel, nil
}

func (f *fakeRepo) FindOwned(_ context.Context, hotelID, ownerID uuid.UUID) (*hotel.Hotel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.findErr != nil {
		return nil, f.findErr
	}
	h, err := f.lookup(hotelID, ownerID)
	if err != nil {
		return nil, err
	}
	cp := *h
	return &cp, nil
}

func (f *fakeRepo) SetPhotoURLs(_ context.Context, hotelID, ownerID uuid.UUID, urls []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.persistErr != nil {
		return f.persistErr
	}
	h, err := f.lookup(hotelID, ownerID)
	if err != nil {
		return err
	}
	f.setCalls = append(f.setCalls, urls)
	h.PhotoURLs = urls
	return nil
}

func (f *fakeRepo) MergePhotoURLs(_ context.Context, hotelID, ownerID uuid.UUID, urls []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.persistErr != nil {
		return nil, f.persistErr
	}
	h, err := f.lookup(hotelID, ownerID)
	if err != nil {
		return nil, err
	}
	f.mergeCalls = append(f.mergeCalls, urls)
	h.PhotoURLs = append(append([]string(nil), urls...), h.PhotoURLs...)
	return h.PhotoURLs, nil
}

type fakeInvalidator struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (f *fakeInvalidator) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	return f.err
}

type fixture struct {
	storage *fakeStorage
	repo    *fakeRepo
	inv     *fakeInvalidator
	staging *staging.Store

	hotelID uuid.UUID
	actorID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	hotelID := uuid.New()
	actorID := uuid.New()

	return &fixture{
		storage: &fakeStorage{
			delays: map[string]time.Duration{},
			fails:  map[string]error{},
		},
		repo: &fakeRepo{hotel: &hotel.Hotel{
			ID:        hotelID,
			OwnerID:   actorID,
			Name:      "Seaside Inn",
			PhotoURLs: []string{"https://cdn.test/existing"},
		}},
		inv:     &fakeInvalidator{},
		staging: staging.New(t.TempDir()),
		hotelID: hotelID,
		actorID: actorID,
	}
}

func (fx *fixture) processor(t *testing.T, opts ...media.ProcessorOption) *media.Processor {
	t.Helper()

	p, err := media.NewProcessor(fx.storage, fx.repo, fx.inv, fx.staging, opts...)
	require.NoError(t, err)
	return p
}

// stage writes one file per content string and returns the descriptors.
func (fx *fixture) stage(t *testing.T, contents ...string) []staging.File {
	t.Helper()

	inputs := make([]staging.Input, len(contents))
	for i, c := range contents {
		inputs[i] = staging.Input{
			Reader:   bytes.NewReader([]byte(c)),
			Name:     fmt.Sprintf("photo%d.jpg", i),
			MIMEType: "image/jpeg",
		}
	}

	files, err := fx.staging.Stage(context.Background(), inputs...)
	require.NoError(t, err)
	return files
}

func (fx *fixture) job(t *testing.T, files []staging.File, merge bool) *queue.Job {
	t.Helper()

	payload := media.UploadPayload{
		Files:   files,
		HotelID: fx.hotelID,
		ActorID: fx.actorID,
		Merge:   merge,
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	return &queue.Job{
		ID:          "42",
		Queue:       media.QueueName,
		Attempt:     1,
		MaxAttempts: 3,
		Payload:     raw,
	}
}

func requireCleaned(t *testing.T, files []staging.File) {
	t.Helper()

	for _, f := range files {
		_, err := os.Stat(f.Path)
		assert.True(t, os.IsNotExist(err), "staged file %s should be deleted", f.Path)
	}
}

func TestProcessor_Process_AllSucceed(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	files := fx.stage(t, "aaa", "bbb")

	out, err := fx.processor(t).Process(context.Background(), fx.job(t, files, false))
	require.NoError(t, err)

	result, ok := out.(*media.UploadResult)
	require.True(t, ok)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Zero(t, result.FailureCount)
	assert.Empty(t, result.Failures)
	assert.Equal(t, []string{"https://cdn.test/aaa", "https://cdn.test/bbb"}, result.URLs)

	require.Len(t, fx.repo.setCalls, 1)
	assert.Equal(t, result.URLs, fx.repo.setCalls[0])
	assert.Empty(t, fx.repo.mergeCalls)

	assert.Equal(t, []string{media.CacheKey(fx.hotelID)}, fx.inv.keys)
	requireCleaned(t, files)
}

func TestProcessor_Process_PartialFailureWithMerge(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	files := fx.stage(t, "first", "broken", "third")

	// The first file finishes last; the result must still be ordered by
	// submission index.
	fx.storage.delays["first"] = 50 * time.Millisecond
	fx.storage.fails["broken"] = errors.New("provider exploded")

	out, err := fx.processor(t).Process(context.Background(), fx.job(t, files, true))
	require.NoError(t, err)

	result := out.(*media.UploadResult)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.FailureCount)
	assert.Equal(t, []string{"https://cdn.test/first", "https://cdn.test/third"}, result.URLs)

	require.Len(t, result.Failures, 1)
	assert.Equal(t, 1, result.Failures[0].Index)
	assert.Equal(t, "photo1.jpg", result.Failures[0].OriginalName)
	assert.Contains(t, result.Failures[0].Reason, "provider exploded")

	assert.Equal(t, result.SuccessCount+result.FailureCount, len(files))

	require.Len(t, fx.repo.mergeCalls, 1)
	assert.Equal(t, result.URLs, fx.repo.mergeCalls[0])
	assert.Equal(t, []string{
		"https://cdn.test/first",
		"https://cdn.test/third",
		"https://cdn.test/existing",
	}, fx.repo.hotel.PhotoURLs)

	requireCleaned(t, files)
}

func TestProcessor_Process_OversizeNeverUploaded(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	files := fx.stage(t, "small", "huge")
	files[1].Size = 6 << 20

	out, err := fx.processor(t).Process(context.Background(), fx.job(t, files, false))
	require.NoError(t, err)

	result := out.(*media.UploadResult)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.FailureCount)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 1, result.Failures[0].Index)
	assert.Contains(t, result.Failures[0].Reason, "exceeds limit")

	assert.Equal(t, []string{"small"}, fx.storage.uploaded())
	requireCleaned(t, files)
}

func TestProcessor_Process_NonImageRejected(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	files := fx.stage(t, "report")
	files[0].MIMEType = "application/pdf"

	out, err := fx.processor(t).Process(context.Background(), fx.job(t, files, false))
	require.NoError(t, err)

	result := out.(*media.UploadResult)
	assert.Zero(t, result.SuccessCount)
	assert.Equal(t, 1, result.FailureCount)
	assert.Empty(t, fx.storage.uploaded())
	requireCleaned(t, files)
}

func TestProcessor_Process_ItemTimeout(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	files := fx.stage(t, "slow", "fast")
	fx.storage.delays["slow"] = 500 * time.Millisecond

	p := fx.processor(t, media.WithItemTimeout(50*time.Millisecond))

	out, err := p.Process(context.Background(), fx.job(t, files, false))
	require.NoError(t, err)

	result := out.(*media.UploadResult)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.FailureCount)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 0, result.Failures[0].Index)
	assert.Equal(t, "upload timed out", result.Failures[0].Reason)
	requireCleaned(t, files)
}

func TestProcessor_Process_HotelNotFound(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.repo.hotel = nil
	files := fx.stage(t, "orphan")

	_, err := fx.processor(t).Process(context.Background(), fx.job(t, files, false))
	require.Error(t, err)
	assert.ErrorIs(t, err, media.ErrHotelNotFound)

	// Cleanup is guaranteed even on the fatal path.
	requireCleaned(t, files)
}

func TestProcessor_Process_PersistFailureRetries(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	dbDown := errors.New("connection refused")
	fx.repo.persistErr = dbDown
	files := fx.stage(t, "payload")

	_, err := fx.processor(t).Process(context.Background(), fx.job(t, files, false))
	require.ErrorIs(t, err, dbDown)
	assert.NotErrorIs(t, err, media.ErrHotelNotFound)
	requireCleaned(t, files)
}

func TestProcessor_Process_MergeSkipsPersistWithoutSuccesses(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	files := fx.stage(t, "doomed")
	fx.storage.fails["doomed"] = errors.New("provider exploded")

	out, err := fx.processor(t).Process(context.Background(), fx.job(t, files, true))
	require.NoError(t, err)

	result := out.(*media.UploadResult)
	assert.Zero(t, result.SuccessCount)
	assert.Equal(t, 1, result.FailureCount)
	assert.Empty(t, fx.repo.mergeCalls)
	assert.Equal(t, []string{"https://cdn.test/existing"}, fx.repo.hotel.PhotoURLs)
	requireCleaned(t, files)
}

func TestProcessor_Process_CacheFailureDoesNotFailJob(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.inv.err = errors.New("redis down")
	files := fx.stage(t, "cached")

	out, err := fx.processor(t).Process(context.Background(), fx.job(t, files, false))
	require.NoError(t, err)
	assert.Equal(t, 1, out.(*media.UploadResult).SuccessCount)
	requireCleaned(t, files)
}

func TestProcessor_Process_InvalidPayloadCancels(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	job := &queue.Job{ID: "42", Queue: media.QueueName, Payload: []byte("not json")}

	_, err := fx.processor(t).Process(context.Background(), job)
	require.Error(t, err)
	assert.ErrorIs(t, err, queue.ErrInvalidPayload)
}

func TestNewProcessor_RequiresCollaborators(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	_, err := media.NewProcessor(nil, fx.repo, fx.inv, fx.staging)
	require.ErrorIs(t, err, media.ErrStorageRequired)

	_, err = media.NewProcessor(fx.storage, nil, fx.inv, fx.staging)
	require.ErrorIs(t, err, media.ErrRepoRequired)

	_, err = media.NewProcessor(fx.storage, fx.repo, fx.inv, nil)
	require.ErrorIs(t, err, media.ErrStagingRequired)
}
