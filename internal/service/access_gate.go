package service

import (
	"fmt"

	"learnsphere_backend/internal/model"
	"learnsphere_backend/internal/util"
)

// CatalogEntry 展平后目录中的一个 (章节,视频) 位置
type CatalogEntry struct {
	LectureID uint
	VideoID   uint
}

// FlattenCatalog 把课程目录展平成单一有序序列：章节 order 升序，章节内视频 order 升序
// 目录的 Preload 已按 order 排序，这里只做一次线性展开
func FlattenCatalog(course *model.Course) []CatalogEntry {
	var entries []CatalogEntry
	for _, lecture := range course.Lectures {
		for _, video := range lecture.Videos {
			entries = append(entries, CatalogEntry{LectureID: lecture.ID, VideoID: video.ID})
		}
	}
	return entries
}

// CanAccessVideo 判定某视频当前是否可播放，每次请求都重新计算
//
// 规则：序列首个视频无条件放行；其余视频要求展平序列中紧邻的前一个视频
// 观看进度达到完成阈值。前驱没有任何进度记录时拒绝放行。
// 请求的 (lectureId, videoId) 不在目录里按 NotFound 处理，不是 false。
func CanAccessVideo(catalog []CatalogEntry, progress *model.CourseProgress, lectureID, videoID uint) (bool, error) {
	position := -1
	for i, entry := range catalog {
		if entry.LectureID == lectureID && entry.VideoID == videoID {
			position = i
			break
		}
	}
	if position < 0 {
		return false, util.NotFoundError(fmt.Sprintf("video %d not found in course catalog", videoID))
	}

	if position == 0 {
		return true, nil
	}

	prev := catalog[position-1]
	if progress == nil {
		return false, nil
	}

	watched := make(map[uint]float64)
	for _, lp := range progress.Lectures {
		for _, vp := range lp.Videos {
			watched[vp.VideoID] = vp.WatchPercentage
		}
	}

	percentage, ok := watched[prev.VideoID]
	if !ok {
		return false, nil
	}
	return percentage >= model.VideoCompletionThreshold, nil
}
