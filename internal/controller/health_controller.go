package controller

import (
	"learnpath_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type HealthController struct {
	DB  *gorm.DB
	RDB *redis.Client
}

func NewHealthController(db *gorm.DB, rdb *redis.Client) *HealthController {
	return &HealthController{DB: db, RDB: rdb}
}

// @Summary 健康检查
// @Description 检查服务及其依赖的数据库和缓存状态
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	components := gin.H{}

	sqlDB, err := c.DB.DB()
	if err != nil || sqlDB.Ping() != nil {
		util.Error(ctx, http.StatusServiceUnavailable, util.KindServiceUnavailable, "数据库不可用")
		return
	}
	components["database"] = "up"

	// 缓存是可选依赖，降级不影响健康状态
	if c.RDB != nil {
		if err := c.RDB.Ping(ctx.Request.Context()).Err(); err == nil {
			components["cache"] = "up"
		} else {
			components["cache"] = "down"
		}
	}

	util.Success(ctx, gin.H{
		"status":     "ok",
		"components": components,
	})
}
