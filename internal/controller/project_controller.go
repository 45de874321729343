package controller

import (
	"rag-pipeline-be/internal/dto"
	"rag-pipeline-be/internal/pkg/serverutils"
	"rag-pipeline-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IProjectController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	GetOrCreate(ctx *fiber.Ctx) error
	GetAll(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
}

type projectController struct {
	service service.IProjectService
}

func NewProjectController(service service.IProjectService) IProjectController {
	return &projectController{service: service}
}

func (c *projectController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/v1/projects")
	h.Get("", c.GetAll)
	h.Post("", c.Create)
	h.Post("/get-or-create", c.GetOrCreate)
	h.Get("/:project_id", c.Show)
}

func parseProjectRequest(ctx *fiber.Ctx) (*dto.CreateProjectRequest, error) {
	var req dto.CreateProjectRequest
	if err := ctx.BodyParser(&req); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (c *projectController) Create(ctx *fiber.Ctx) error {
	req, err := parseProjectRequest(ctx)
	if err != nil {
		return err
	}

	project, err := c.service.Create(ctx.UserContext(), req.ProjectId)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Project created", dto.NewProjectResponse(project)))
}

func (c *projectController) GetOrCreate(ctx *fiber.Ctx) error {
	req, err := parseProjectRequest(ctx)
	if err != nil {
		return err
	}

	project, err := c.service.GetOrCreate(ctx.UserContext(), req.ProjectId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get project", dto.NewProjectResponse(project)))
}

func (c *projectController) GetAll(ctx *fiber.Ctx) error {
	res, err := c.service.List(ctx.UserContext(), ctx.QueryInt("page", 1), ctx.QueryInt("page_size", 10))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get all projects", res))
}

func (c *projectController) Show(ctx *fiber.Ctx) error {
	project, err := c.service.Get(ctx.UserContext(), ctx.Params("project_id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get project", dto.NewProjectResponse(project)))
}
