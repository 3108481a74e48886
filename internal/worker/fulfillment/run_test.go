package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"reelgen/internal/ai"
	"reelgen/internal/config"
	"reelgen/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	sent     map[string][][]byte
	deleted  []int64
	archived []int64
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{sent: make(map[string][][]byte)}
}

func (q *fakeQueue) Send(ctx context.Context, queue string, payload []byte) error {
	q.sent[queue] = append(q.sent[queue], payload)
	return nil
}

func (q *fakeQueue) ReadWithPoll(ctx context.Context, queue string, timeoutSec, maxMessages int) ([]*Message, error) {
	return nil, nil
}

func (q *fakeQueue) Delete(ctx context.Context, queue string, msgIDs []int64) error {
	q.deleted = append(q.deleted, msgIDs...)
	return nil
}

func (q *fakeQueue) Archive(ctx context.Context, queue string, msgIDs []int64) error {
	q.archived = append(q.archived, msgIDs...)
	return nil
}

type fakeVideoRepo struct {
	completed map[string]model.VideoResult
	failed    []string
}

func newFakeVideoRepo() *fakeVideoRepo {
	return &fakeVideoRepo{completed: make(map[string]model.VideoResult)}
}

func (r *fakeVideoRepo) Create(ctx context.Context, job *model.VideoJob) (*model.VideoJob, error) {
	return job, nil
}

func (r *fakeVideoRepo) GetByIDAndUser(ctx context.Context, jobID, userID string) (*model.VideoJob, error) {
	return nil, nil
}

func (r *fakeVideoRepo) MarkCompleted(ctx context.Context, jobID string, res model.VideoResult) error {
	r.completed[jobID] = res
	return nil
}

func (r *fakeVideoRepo) MarkFailed(ctx context.Context, jobID string) error {
	r.failed = append(r.failed, jobID)
	return nil
}

type fakeAI struct {
	scriptErr error
	videoErr  error
	calls     int
}

func (f *fakeAI) GenerateScript(ctx context.Context, prompt, videoType string) (string, error) {
	if f.scriptErr != nil {
		return "", f.scriptErr
	}
	return "SCENE 1: " + prompt, nil
}

func (f *fakeAI) GenerateVideo(ctx context.Context, script, videoType string, settings ai.VideoSettings) (*ai.VideoResult, error) {
	f.calls++
	if f.videoErr != nil {
		return nil, f.videoErr
	}
	return &ai.VideoResult{
		VideoURL:     "https://provider.example.com/v/abc.mp4",
		ThumbnailURL: "https://provider.example.com/t/abc.jpg",
		Duration:     30,
		Resolution:   settings.Resolution,
		Format:       "mp4",
	}, nil
}

func (f *fakeAI) GenerateImage(ctx context.Context, prompt, style string) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeAI) GenerateVoiceover(ctx context.Context, text, voice string) ([]byte, error) {
	return nil, errors.New("not implemented")
}

type fakeArchiver struct {
	fail bool
}

func (a *fakeArchiver) Archive(ctx context.Context, jobID, sourceURL, kind string) (string, error) {
	if a.fail {
		return "", errors.New("bucket unavailable")
	}
	return "https://media.example.com/videos/" + jobID + "/" + kind, nil
}

type fakePublisher struct {
	published [][]byte
}

func (p *fakePublisher) Publish(ctx context.Context, topic string, payload []byte) (string, error) {
	p.published = append(p.published, payload)
	return "msg-1", nil
}

func testConfig() *config.Config {
	return &config.Config{
		FulfillmentQueueName:           "video_fulfillment_queue",
		FulfillmentDeadLetterQueueName: "video_fulfillment_queue_dlq",
		FulfillmentMaxRetries:          2,
		FulfillmentBackoffInitialSec:   0,
		FulfillmentBackoffMaxSec:       0,
		VideoEventsTopic:               "video-events",
	}
}

func testPayload() *model.VideoJobMessage {
	return &model.VideoJobMessage{
		JobID:      "job-1",
		UserID:     "user-1",
		Prompt:     "Launch our new summer shoe line",
		Type:       model.VideoTypeProduct,
		Resolution: model.Resolution1080p,
	}
}

func TestProcessJobSuccess(t *testing.T) {
	repo := newFakeVideoRepo()
	d := Deps{
		Queue:    newFakeQueue(),
		Videos:   repo,
		AI:       &fakeAI{},
		Archiver: &fakeArchiver{},
	}

	err := processJob(context.Background(), zerolog.Nop(), testConfig(), d, testPayload())
	require.NoError(t, err)

	res, ok := repo.completed["job-1"]
	require.True(t, ok, "job must be marked completed")
	assert.Equal(t, "https://media.example.com/videos/job-1/video", res.VideoURL)
	assert.Equal(t, "https://media.example.com/videos/job-1/thumbnail", res.ThumbnailURL)
	assert.Equal(t, 30, res.DurationSeconds)
	assert.Empty(t, repo.failed)
}

func TestProcessJobArchiveFailureKeepsProviderURL(t *testing.T) {
	repo := newFakeVideoRepo()
	d := Deps{
		Queue:    newFakeQueue(),
		Videos:   repo,
		AI:       &fakeAI{},
		Archiver: &fakeArchiver{fail: true},
	}

	err := processJob(context.Background(), zerolog.Nop(), testConfig(), d, testPayload())
	require.NoError(t, err)

	res := repo.completed["job-1"]
	assert.Equal(t, "https://provider.example.com/v/abc.mp4", res.VideoURL)
}

func TestProcessJobRetriesThenFails(t *testing.T) {
	aiClient := &fakeAI{videoErr: errors.New("provider overloaded")}
	repo := newFakeVideoRepo()
	d := Deps{
		Queue:  newFakeQueue(),
		Videos: repo,
		AI:     aiClient,
	}

	err := processJob(context.Background(), zerolog.Nop(), testConfig(), d, testPayload())
	require.Error(t, err)
	assert.Equal(t, 2, aiClient.calls, "generation should be attempted once per retry")
	assert.Empty(t, repo.completed)
}

func TestHandleFailure(t *testing.T) {
	queue := newFakeQueue()
	repo := newFakeVideoRepo()
	pub := &fakePublisher{}
	cfg := testConfig()
	d := Deps{
		Queue:     queue,
		Videos:    repo,
		AI:        &fakeAI{},
		Publisher: pub,
	}

	handleFailure(context.Background(), zerolog.Nop(), cfg, d, 7, testPayload(), errors.New("provider overloaded"))

	assert.Equal(t, []string{"job-1"}, repo.failed)
	require.Len(t, queue.sent[cfg.FulfillmentDeadLetterQueueName], 1)
	assert.Equal(t, []int64{7}, queue.archived, "the original message is archived, not deleted")

	require.Len(t, pub.published, 1)
	var ev jobEvent
	require.NoError(t, json.Unmarshal(pub.published[0], &ev))
	assert.Equal(t, "job-1", ev.JobID)
	assert.Equal(t, string(model.VideoStatusFailed), ev.Status)
	assert.Contains(t, ev.Error, "provider overloaded")
}
