package controller

import (
	"learnpath_backend/internal/service"
	"learnpath_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type PlanController struct {
	Service *service.PlanService
}

func NewPlanController(svc *service.PlanService) *PlanController {
	return &PlanController{Service: svc}
}

// @Summary 创建学习路径
// @Description 根据学习目标和学时预算编排多里程碑学习路径，可附带生成测验
// @Tags 学习路径
// @Accept json
// @Produce json
// @Param body body service.CreatePlanRequest true "规划请求"
// @Success 201 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /api/plan [post]
func (c *PlanController) CreatePlan(ctx *gin.Context) {
	var req service.CreatePlanRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if user := util.GetUserFromContext(ctx); user != nil {
		req.UserID = user.UserID
	}

	resp, err := c.Service.CreatePlan(ctx.Request.Context(), req)
	if err != nil {
		util.AppErrorResponse(ctx, err)
		return
	}

	// 路径已落库，降级场景同样返回201，警告只出现在信封层
	if len(resp.Warnings) > 0 {
		util.CreatedPartial(ctx, resp, resp.Warnings)
		return
	}
	util.Created(ctx, resp)
}

// @Summary 获取学习路径详情
// @Tags 学习路径
// @Produce json
// @Param id path string true "路径ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/plan/{id} [get]
func (c *PlanController) GetPlan(ctx *gin.Context) {
	id := ctx.Param("id")

	path, err := c.Service.GetPlan(ctx.Request.Context(), id)
	if err != nil {
		util.AppErrorResponse(ctx, err)
		return
	}

	util.Success(ctx, path)
}

// @Summary 根据学习进度重新规划
// @Description 剔除已完成的资源并重排剩余里程碑，保持原有学时预算
// @Tags 学习路径
// @Accept json
// @Produce json
// @Param id path string true "路径ID"
// @Param body body service.ReplanRequest true "进度信息"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/plan/{id}/replan [post]
func (c *PlanController) Replan(ctx *gin.Context) {
	id := ctx.Param("id")

	var req service.ReplanRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	path, err := c.Service.Replan(ctx.Request.Context(), id, req)
	if err != nil {
		util.AppErrorResponse(ctx, err)
		return
	}

	util.Success(ctx, path)
}

// @Summary 获取当前用户的学习路径列表
// @Tags 学习路径
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response
// @Router /api/user/plans [get]
func (c *PlanController) ListUserPlans(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	paths, total, err := c.Service.ListUserPlans(user.UserID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"items": paths, "total": total})
}
