package controller

import (
	"rag-pipeline-be/internal/dto"
	"rag-pipeline-be/internal/pkg/serverutils"
	"rag-pipeline-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IDataController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	Process(ctx *fiber.Ctx) error
	Ingest(ctx *fiber.Ctx) error
	ListChunks(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
}

type dataController struct {
	ingestService service.IIngestService
	chunkService  service.IChunkService
}

func NewDataController(ingestService service.IIngestService, chunkService service.IChunkService) IDataController {
	return &dataController{
		ingestService: ingestService,
		chunkService:  chunkService,
	}
}

func (c *dataController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/v1/data")
	h.Post("/upload/:project_id", c.Upload)
	h.Post("/process/:project_id", c.Process)
	h.Post("/ingest/:project_id", c.Ingest)
	h.Get("/chunks/:project_id", c.ListChunks)
	h.Delete("/chunks/:project_id", c.Reset)
}

func (c *dataController) Upload(ctx *fiber.Ctx) error {
	file, err := ctx.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "File is required")
	}

	res, err := c.ingestService.SaveUpload(ctx.UserContext(), ctx.Params("project_id"), file)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("File uploaded", res))
}

func (c *dataController) Process(ctx *fiber.Ctx) error {
	var req dto.ProcessFileRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	req.ProjectId = ctx.Params("project_id")

	res, err := c.ingestService.ProcessFile(ctx.UserContext(), req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("File processed", res))
}

func (c *dataController) Ingest(ctx *fiber.Ctx) error {
	var req dto.IngestRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	req.ProjectId = ctx.Params("project_id")

	res, err := c.ingestService.Process(ctx.UserContext(), req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Text ingested", res))
}

func (c *dataController) ListChunks(ctx *fiber.Ctx) error {
	res, err := c.chunkService.ListChunks(ctx.UserContext(), ctx.Params("project_id"), ctx.QueryInt("page", 1), ctx.QueryInt("page_size", 50))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get chunks", res))
}

func (c *dataController) Reset(ctx *fiber.Ctx) error {
	res, err := c.ingestService.ResetProject(ctx.UserContext(), ctx.Params("project_id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Project data reset", res))
}
