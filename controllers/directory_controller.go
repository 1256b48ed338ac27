package controllers

import (
	"net/http"

	"carecall-http-service/internal/error/response"
	"carecall-http-service/models"
	"carecall-http-service/services/container"

	"github.com/gin-gonic/gin"
)

// DirectoryController 处理客户档案目录的只读查询
type DirectoryController struct {
	BaseControllerImpl
}

// NewDirectoryController 创建一个新的档案目录控制器
func (f *ControllerFactory) NewDirectoryController(ctx *gin.Context) *DirectoryController {
	return &DirectoryController{
		BaseControllerImpl: BaseControllerImpl{
			Container: f.Container,
			Context:   ctx,
		},
	}
}

// GetClient 处理客户档案查询
// @Summary      获取客户档案
// @Tags         Directory
// @Produce      json
// @Param        id path int true "客户ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /clients/{id} [get]
func (c *DirectoryController) GetClient() {
	id, ok := parseIDParam(c.Context, "id")
	if !ok {
		return
	}
	client, err := c.Container.GetRepository().GetClient(id)
	if err != nil {
		response.NotFound(c.Context, "客户不存在")
		return
	}
	response.Success(c.Context, client)
}

// GetContacts 处理紧急联系人查询
// @Summary      获取客户的紧急联系人
// @Description  按通知优先级升序返回
// @Tags         Directory
// @Produce      json
// @Param        id path int true "客户ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /clients/{id}/contacts [get]
func (c *DirectoryController) GetContacts() {
	id, ok := parseIDParam(c.Context, "id")
	if !ok {
		return
	}
	contacts, err := c.Container.GetRepository().ListContactsByClient(id)
	if err != nil {
		respondServiceError(c.Context, err)
		return
	}
	response.Success(c.Context, gin.H{
		"contacts": contacts,
		"total":    len(contacts),
	})
}

// GetMedications 处理在用药物查询
// @Summary      获取客户的在用药物
// @Description  按优先级升序返回在用药物及渲染好的清单文本
// @Tags         Directory
// @Produce      json
// @Param        id path int true "客户ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /clients/{id}/medications [get]
func (c *DirectoryController) GetMedications() {
	id, ok := parseIDParam(c.Context, "id")
	if !ok {
		return
	}
	medications, err := c.Container.GetRepository().ListActiveMedications(id)
	if err != nil {
		respondServiceError(c.Context, err)
		return
	}
	response.Success(c.Context, gin.H{
		"medications": medications,
		"rendered":    models.RenderMedicationList(medications),
		"total":       len(medications),
	})
}

// HandleDirectoryFunc 返回一个处理档案目录请求的Gin处理函数
func HandleDirectoryFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	factory := NewControllerFactory(container)

	return func(ctx *gin.Context) {
		controller := factory.NewDirectoryController(ctx)

		switch method {
		case "getClient":
			controller.GetClient()
		case "getContacts":
			controller.GetContacts()
		case "getMedications":
			controller.GetMedications()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的方法",
				"data":    nil,
			})
		}
	}
}
