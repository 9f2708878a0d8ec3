package service

import (
	"testing"

	"learnsphere_backend/internal/model"
	"learnsphere_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mockProgressStore struct {
	progress    *model.CourseProgress
	findErr     error
	createErr   error
	updateErr   error
	createCalls int
	updateCalls int
	lastSaved   *model.CourseProgress
}

func (m *mockProgressStore) FindByUserAndCourse(userID, courseID uint) (*model.CourseProgress, error) {
	return m.progress, m.findErr
}

func (m *mockProgressStore) Create(progress *model.CourseProgress) error {
	m.createCalls++
	if m.createErr != nil {
		return m.createErr
	}
	m.progress = progress
	return nil
}

func (m *mockProgressStore) Update(progress *model.CourseProgress) error {
	m.updateCalls++
	if m.updateErr != nil {
		return m.updateErr
	}
	m.lastSaved = progress
	return nil
}

type mockCatalogStore struct {
	course *model.Course
	err    error
}

func (m *mockCatalogStore) FindWithCatalog(id uint) (*model.Course, error) {
	return m.course, m.err
}

// 与 gateCourse 对应的零进度树
func freshProgress() *model.CourseProgress {
	return &model.CourseProgress{
		UserID:   1,
		CourseID: 1,
		Lectures: []model.LectureProgress{
			{
				LectureID: 10,
				Videos: []model.VideoProgress{
					{VideoID: 100},
					{VideoID: 101},
				},
			},
			{
				LectureID: 11,
				Videos: []model.VideoProgress{
					{VideoID: 102},
				},
			},
		},
	}
}

func TestGetOrInitializeProgress_BuildsTreeFromCatalog(t *testing.T) {
	store := &mockProgressStore{}
	svc := NewProgressService(store, &mockCatalogStore{course: gateCourse()})

	progress, err := svc.GetOrInitializeProgress(1, 1)
	require.NoError(t, err)
	require.NotNil(t, progress)

	assert.Equal(t, 1, store.createCalls)
	assert.Equal(t, 3, progress.TotalVideos())
	assert.Equal(t, 0, progress.CompletedVideos())
	assert.Zero(t, progress.ProgressPercentage)
	for _, lp := range progress.Lectures {
		for _, vp := range lp.Videos {
			assert.False(t, vp.IsCompleted)
			assert.Zero(t, vp.WatchPercentage)
		}
	}
}

func TestGetOrInitializeProgress_ReturnsExistingWithoutCreate(t *testing.T) {
	existing := freshProgress()
	store := &mockProgressStore{progress: existing}
	svc := NewProgressService(store, &mockCatalogStore{course: gateCourse()})

	progress, err := svc.GetOrInitializeProgress(1, 1)
	require.NoError(t, err)
	assert.Same(t, existing, progress)
	assert.Zero(t, store.createCalls)
}

func TestInitializeProgress_CourseMissingOrEmpty(t *testing.T) {
	svc := NewProgressService(&mockProgressStore{}, &mockCatalogStore{course: nil})
	_, err := svc.InitializeProgress(1, 1)
	assert.Equal(t, util.KindNotFound, util.KindOf(err))

	svc = NewProgressService(&mockProgressStore{}, &mockCatalogStore{course: &model.Course{}})
	_, err = svc.InitializeProgress(1, 1)
	assert.Equal(t, util.KindNotFound, util.KindOf(err))
}

// 并发初始化撞唯一键时应读回已有记录而不是报错
func TestInitializeProgress_DuplicateKeyFallsBackToFetch(t *testing.T) {
	existing := freshProgress()
	store := &mockProgressStore{createErr: gorm.ErrDuplicatedKey}
	svc := NewProgressService(store, &mockCatalogStore{course: gateCourse()})

	store.progress = existing
	progress, err := svc.InitializeProgress(1, 1)
	require.NoError(t, err)
	assert.Same(t, existing, progress)
}

func TestReportVideoWatch_TakesMaxAndClamps(t *testing.T) {
	store := &mockProgressStore{progress: freshProgress()}
	svc := NewProgressService(store, &mockCatalogStore{course: gateCourse()})

	progress, err := svc.ReportVideoWatch(1, 1, 10, 100, 45)
	require.NoError(t, err)
	assert.InDelta(t, 45, progress.Lectures[0].Videos[0].WatchPercentage, 0.001)
	assert.False(t, progress.Lectures[0].Videos[0].IsCompleted)
	assert.NotNil(t, progress.Lectures[0].Videos[0].LastWatchedAt)

	// 更低的上报不回退
	progress, err = svc.ReportVideoWatch(1, 1, 10, 100, 20)
	require.NoError(t, err)
	assert.InDelta(t, 45, progress.Lectures[0].Videos[0].WatchPercentage, 0.001)

	// 超界截断
	progress, err = svc.ReportVideoWatch(1, 1, 10, 100, 150)
	require.NoError(t, err)
	assert.InDelta(t, 100, progress.Lectures[0].Videos[0].WatchPercentage, 0.001)

	progress, err = svc.ReportVideoWatch(1, 1, 10, 101, -5)
	require.NoError(t, err)
	assert.InDelta(t, 0, progress.Lectures[0].Videos[1].WatchPercentage, 0.001)
}

func TestReportVideoWatch_ThresholdMarksCompletedAndAggregates(t *testing.T) {
	store := &mockProgressStore{progress: freshProgress()}
	svc := NewProgressService(store, &mockCatalogStore{course: gateCourse()})

	progress, err := svc.ReportVideoWatch(1, 1, 10, 100, 80)
	require.NoError(t, err)
	assert.True(t, progress.Lectures[0].Videos[0].IsCompleted)
	assert.InDelta(t, 100.0/3.0, progress.ProgressPercentage, 0.001)

	progress, err = svc.ReportVideoWatch(1, 1, 10, 101, 79.9)
	require.NoError(t, err)
	assert.False(t, progress.Lectures[0].Videos[1].IsCompleted)
	assert.InDelta(t, 100.0/3.0, progress.ProgressPercentage, 0.001)

	// 完成位一旦置上，低上报也不清掉
	progress, err = svc.ReportVideoWatch(1, 1, 10, 100, 10)
	require.NoError(t, err)
	assert.True(t, progress.Lectures[0].Videos[0].IsCompleted)
}

func TestReportVideoWatch_UnknownTargets(t *testing.T) {
	store := &mockProgressStore{progress: freshProgress()}
	svc := NewProgressService(store, &mockCatalogStore{course: gateCourse()})

	_, err := svc.ReportVideoWatch(1, 1, 10, 999, 50)
	assert.Equal(t, util.KindNotFound, util.KindOf(err))

	_, err = svc.ReportVideoWatch(1, 1, 99, 100, 50)
	assert.Equal(t, util.KindNotFound, util.KindOf(err))

	store.progress = nil
	_, err = svc.ReportVideoWatch(1, 1, 10, 100, 50)
	assert.Equal(t, util.KindNotFound, util.KindOf(err))
}

func TestMarkVideoComplete_SetsFlagWithoutTouchingWatch(t *testing.T) {
	progress := freshProgress()
	progress.Lectures[0].Videos[0].WatchPercentage = 30

	store := &mockProgressStore{progress: progress}
	svc := NewProgressService(store, &mockCatalogStore{course: gateCourse()})

	result, err := svc.MarkVideoComplete(1, 1, 10, 100)
	require.NoError(t, err)

	video := result.Lectures[0].Videos[0]
	assert.True(t, video.IsCompleted)
	assert.InDelta(t, 30, video.WatchPercentage, 0.001)
	assert.NotNil(t, video.LastWatchedAt)
	assert.InDelta(t, 100.0/3.0, result.ProgressPercentage, 0.001)
	assert.Equal(t, 1, store.updateCalls)
}

func TestMarkVideoComplete_UnknownTargets(t *testing.T) {
	store := &mockProgressStore{progress: freshProgress()}
	svc := NewProgressService(store, &mockCatalogStore{course: gateCourse()})

	_, err := svc.MarkVideoComplete(1, 1, 10, 999)
	assert.Equal(t, util.KindNotFound, util.KindOf(err))

	store.progress = nil
	_, err = svc.MarkVideoComplete(1, 1, 10, 100)
	assert.Equal(t, util.KindNotFound, util.KindOf(err))
	assert.Zero(t, store.updateCalls)
}

func TestForceCompleteAll(t *testing.T) {
	store := &mockProgressStore{progress: freshProgress()}
	svc := NewProgressService(store, &mockCatalogStore{course: gateCourse()})

	progress, err := svc.ForceCompleteAll(1, 1)
	require.NoError(t, err)
	assert.InDelta(t, 100, progress.ProgressPercentage, 0.001)
	for _, lp := range progress.Lectures {
		for _, vp := range lp.Videos {
			assert.True(t, vp.IsCompleted)
			assert.InDelta(t, 100, vp.WatchPercentage, 0.001)
			assert.NotNil(t, vp.LastWatchedAt)
		}
	}
	assert.Equal(t, 1, store.updateCalls)
}

func TestForceIncompleteAll(t *testing.T) {
	progress := freshProgress()
	progress.Lectures[0].Videos[0].IsCompleted = true
	progress.Lectures[0].Videos[0].WatchPercentage = 100
	progress.ProgressPercentage = 100.0 / 3.0

	store := &mockProgressStore{progress: progress}
	svc := NewProgressService(store, &mockCatalogStore{course: gateCourse()})

	result, err := svc.ForceIncompleteAll(1, 1)
	require.NoError(t, err)
	assert.Zero(t, result.ProgressPercentage)
	for _, lp := range result.Lectures {
		for _, vp := range lp.Videos {
			assert.False(t, vp.IsCompleted)
			assert.Zero(t, vp.WatchPercentage)
		}
	}
}

func TestCheckVideoAccess_UsesLiveProgress(t *testing.T) {
	progress := freshProgress()
	progress.Lectures[0].Videos[0].WatchPercentage = 85

	svc := NewProgressService(&mockProgressStore{progress: progress}, &mockCatalogStore{course: gateCourse()})

	ok, err := svc.CheckVideoAccess(1, 1, 10, 101)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CheckVideoAccess(1, 1, 11, 102)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckVideoAccess_CourseMissing(t *testing.T) {
	svc := NewProgressService(&mockProgressStore{}, &mockCatalogStore{course: nil})

	_, err := svc.CheckVideoAccess(1, 1, 10, 100)
	assert.Equal(t, util.KindNotFound, util.KindOf(err))
}
