// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medi-smart-go/internal/agent"
	"medi-smart-go/internal/config"
	"medi-smart-go/internal/handler"
	"medi-smart-go/internal/middleware"
	"medi-smart-go/internal/model"
	"medi-smart-go/internal/pipeline"
	"medi-smart-go/internal/repository"
	"medi-smart-go/internal/service"
	"medi-smart-go/pkg/database"
	"medi-smart-go/pkg/embedding"
	"medi-smart-go/pkg/kafka"
	"medi-smart-go/pkg/llm"
	"medi-smart-go/pkg/log"
	"medi-smart-go/pkg/search"
	"medi-smart-go/pkg/vectorstore"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis 与 Kafka 生产者
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	kafka.InitProducer(cfg.Kafka)

	if err := database.DB.AutoMigrate(&model.HealthRecord{}, &model.UserProfile{}); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	// 4. 初始化 Repository
	conversationRepo := repository.NewConversationRepository(database.RDB)
	healthRecordRepo := repository.NewHealthRecordRepository(database.DB)

	// 5. 初始化外部服务客户端与向量记忆库
	embeddingClient := embedding.NewClient(cfg.Embedding)
	llmClient := llm.NewClient(cfg.LLM)
	searchClient := search.NewClient(cfg.Search)
	memoryStore := vectorstore.New(cfg.Memory, embeddingClient)

	// 6. 初始化编排引擎与 Service (依赖注入)
	assembler := agent.NewContextAssembler(healthRecordRepo, memoryStore, cfg.Agent)
	engine := agent.NewEngine(llmClient, searchClient, assembler, cfg.Search)
	chatService := service.NewChatService(engine, conversationRepo, kafka.ProduceMemoryTask)
	recordService := service.NewRecordService(healthRecordRepo, memoryStore, kafka.ProduceMemoryTask)
	conversationService := service.NewConversationService(conversationRepo)

	// 7. 启动后台 Kafka 消费者处理记忆索引任务
	processor := pipeline.NewProcessor(memoryStore)
	go kafka.StartConsumer(cfg.Kafka, processor)

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	// 添加我们自定义的日志中间件和 Gin 的 Recovery 中间件
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 9. 注册路由
	apiV1 := r.Group("/api/v1")
	{
		apiV1.POST("/chat", handler.NewChatHandler(chatService).Chat)

		records := apiV1.Group("/records")
		{
			recordHandler := handler.NewRecordHandler(recordService)
			records.POST("", recordHandler.SaveRecord)
			records.GET("", recordHandler.ListRecords)
			records.DELETE("/:id", recordHandler.DeleteRecord)
		}

		profile := apiV1.Group("/profile")
		{
			recordHandler := handler.NewRecordHandler(recordService)
			profile.GET("", recordHandler.GetProfile)
			profile.PUT("", recordHandler.SaveProfile)
		}

		apiV1.GET("/users/conversation", handler.NewConversationHandler(conversationService).GetConversations)
	}
	// Chat 路由 (WebSocket)
	r.GET("/chat", handler.NewChatHandler(chatService).Handle)

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 关闭 HTTP 服务器
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	// Kafka 消费循环会随进程退出自然结束，无需单独关闭。
	log.Info("服务已优雅关闭")
}
