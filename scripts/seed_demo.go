// 手动导入演示数据脚本
//
// 创建一名讲师、一门三讲的示例课程和对应的课后测验，
// 用于本地联调或演示环境的初始化。
//
// 用法: go run scripts/seed_demo.go

package main

import (
	"log"
	"os"

	"learnsphere_backend/internal/config"
	"learnsphere_backend/internal/model"
	"learnsphere_backend/pkg/database"
	"learnsphere_backend/pkg/logger"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

func main() {
	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}

	logger.InitLogger(&cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("demo123456"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("密码哈希失败: %v", err)
	}

	instructor := model.User{
		Name:     "Demo Instructor",
		Email:    "instructor@learnsphere.dev",
		Password: string(hash),
		Role:     model.Instructor,
	}
	if err := db.Where(model.User{Email: instructor.Email}).FirstOrCreate(&instructor).Error; err != nil {
		log.Fatalf("创建讲师失败: %v", err)
	}

	course := model.Course{
		Title:        "Go 后端入门",
		Description:  "从零搭建一个 Go Web 服务",
		InstructorID: instructor.ID,
		IsPublished:  true,
		Lectures: []model.Lecture{
			{
				Title: "环境与工具", Order: 1,
				Videos: []model.Video{
					{Title: "安装与工作区", Order: 1, DurationSeconds: 420},
					{Title: "模块与依赖", Order: 2, DurationSeconds: 610},
				},
			},
			{
				Title: "HTTP 服务", Order: 2,
				Videos: []model.Video{
					{Title: "路由与处理器", Order: 1, DurationSeconds: 540},
				},
			},
			{
				Title: "数据持久化", Order: 3,
				Videos: []model.Video{
					{Title: "连接数据库", Order: 1, DurationSeconds: 480},
					{Title: "模型与迁移", Order: 2, DurationSeconds: 505},
				},
			},
		},
	}
	if err := db.Where(model.Course{Title: course.Title, InstructorID: instructor.ID}).
		FirstOrCreate(&course).Error; err != nil {
		log.Fatalf("创建课程失败: %v", err)
	}

	quiz := model.Quiz{
		CourseID:     course.ID,
		Title:        "结课测验",
		PassingScore: model.DefaultPassingScore,
		MaxAttempts:  model.DefaultMaxAttempts,
		IsActive:     true,
		CreatedBy:    instructor.ID,
		Questions: []model.QuizQuestion{
			{
				Question:           "Go 模块的依赖清单文件是哪个？",
				Options:            model.StringSlice{"go.sum", "go.mod", "Gopkg.toml", "vendor.json"},
				CorrectAnswerIndex: 1,
				Explanation:        "go.mod 声明模块路径与依赖，go.sum 只记录校验和。",
				Order:              1,
			},
			{
				Question:           "net/http 中注册处理函数用哪个方法？",
				Options:            model.StringSlice{"http.Serve", "http.HandleFunc", "http.Get"},
				CorrectAnswerIndex: 1,
				Order:              2,
			},
		},
	}
	if err := db.Where(model.Quiz{CourseID: course.ID, Title: quiz.Title}).
		FirstOrCreate(&quiz).Error; err != nil {
		log.Fatalf("创建测验失败: %v", err)
	}

	log.Printf("演示数据导入完成: course=%d quiz=%d instructor=%d", course.ID, quiz.ID, instructor.ID)
}
