package controller

import (
	"rag-pipeline-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
)

type IBaseController interface {
	RegisterRoutes(r fiber.Router)
	Welcome(ctx *fiber.Ctx) error
}

type baseController struct {
	appName    string
	appVersion string
}

func NewBaseController(appName, appVersion string) IBaseController {
	return &baseController{appName: appName, appVersion: appVersion}
}

func (c *baseController) RegisterRoutes(r fiber.Router) {
	r.Get("/v1/", c.Welcome)
}

func (c *baseController) Welcome(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Welcome", fiber.Map{
		"app_name":    c.appName,
		"app_version": c.appVersion,
	}))
}
