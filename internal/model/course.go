package model

// Course 课程目录，章节与视频按 Order 字段排序
// swagger:model Course
type Course struct {
	BaseModel
	Title        string    `gorm:"size:255;not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	Thumbnail    string    `gorm:"size:255" json:"thumbnail"`
	InstructorID uint      `gorm:"index;type:bigint unsigned;not null" json:"instructorId"`
	Instructor   *User     `gorm:"foreignKey:InstructorID" json:"instructor,omitempty"`
	IsPublished  bool      `gorm:"default:false" json:"isPublished"`
	Lectures     []Lecture `gorm:"foreignKey:CourseID" json:"lectures,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

// swagger:model Lecture
type Lecture struct {
	BaseModel
	CourseID uint    `gorm:"index;type:bigint unsigned;not null" json:"courseId"`
	Title    string  `gorm:"size:255;not null" json:"title"`
	Order    int     `gorm:"default:0" json:"order"`
	Videos   []Video `gorm:"foreignKey:LectureID" json:"videos,omitempty"`
}

func (Lecture) TableName() string {
	return "lectures"
}

// swagger:model Video
type Video struct {
	BaseModel
	LectureID       uint   `gorm:"index;type:bigint unsigned;not null" json:"lectureId"`
	Title           string `gorm:"size:255;not null" json:"title"`
	URL             string `gorm:"size:512" json:"url"`
	Order           int    `gorm:"default:0" json:"order"`
	DurationSeconds int    `gorm:"default:0" json:"durationSeconds"`
}

func (Video) TableName() string {
	return "videos"
}
