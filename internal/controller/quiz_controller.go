package controller

import (
	"learnpath_backend/internal/service"
	"learnpath_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	Service *service.QuizService
}

func NewQuizController(svc *service.QuizService) *QuizController {
	return &QuizController{Service: svc}
}

// @Summary 生成测验
// @Description 基于指定资源生成带引用依据的测验，响应不包含答案
// @Tags 测验
// @Accept json
// @Produce json
// @Param body body service.GenerateQuizRequest true "生成请求"
// @Success 201 {object} util.Response
// @Failure 422 {object} util.Response
// @Router /api/quiz/generate [post]
func (c *QuizController) Generate(ctx *gin.Context) {
	var req service.GenerateQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.Service.Generate(ctx.Request.Context(), req)
	if err != nil {
		util.AppErrorResponse(ctx, err)
		return
	}

	util.Created(ctx, quiz)
}

// @Summary 提交测验答案
// @Description 服务端判分，返回逐题对错、正确选项和解析
// @Tags 测验
// @Accept json
// @Produce json
// @Param body body service.SubmitQuizRequest true "答案"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/quiz/submit [post]
func (c *QuizController) Submit(ctx *gin.Context) {
	var req service.SubmitQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.Service.Submit(ctx.Request.Context(), req)
	if err != nil {
		util.AppErrorResponse(ctx, err)
		return
	}

	util.Success(ctx, result)
}
