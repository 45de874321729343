package controller

import (
	"rag-pipeline-be/internal/dto"
	"rag-pipeline-be/internal/pkg/serverutils"
	"rag-pipeline-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type INLPController interface {
	RegisterRoutes(r fiber.Router)
	PushIndex(ctx *fiber.Ctx) error
	IndexInfo(ctx *fiber.Ctx) error
	Search(ctx *fiber.Ctx) error
	Answer(ctx *fiber.Ctx) error
	DeleteIndex(ctx *fiber.Ctx) error
}

type nlpController struct {
	nlpService       service.INLPService
	vectorIndex      service.IVectorIndexService
	publisherService service.IPublisherService
}

func NewNLPController(
	nlpService service.INLPService,
	vectorIndex service.IVectorIndexService,
	publisherService service.IPublisherService,
) INLPController {
	return &nlpController{
		nlpService:       nlpService,
		vectorIndex:      vectorIndex,
		publisherService: publisherService,
	}
}

func (c *nlpController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/v1/nlp/index")
	h.Post("/push/:project_id", c.PushIndex)
	h.Get("/info/:project_id", c.IndexInfo)
	h.Post("/search/:project_id", c.Search)
	h.Post("/answer/:project_id", c.Answer)
	h.Delete("/:project_id", c.DeleteIndex)
}

func (c *nlpController) PushIndex(ctx *fiber.Ctx) error {
	var req dto.IndexPushRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
	}
	projectId := ctx.Params("project_id")

	if req.Async {
		job := dto.IndexProjectMessage{ProjectId: projectId, DoReset: req.DoReset}
		if err := c.publisherService.EnqueueIndex(ctx.UserContext(), job); err != nil {
			return err
		}
		return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Index job queued", job))
	}

	res, err := c.vectorIndex.IndexProject(ctx.UserContext(), projectId, req.DoReset)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Project indexed", res))
}

func (c *nlpController) IndexInfo(ctx *fiber.Ctx) error {
	res, err := c.vectorIndex.CollectionInfo(ctx.UserContext(), ctx.Params("project_id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get index info", res))
}

func (c *nlpController) Search(ctx *fiber.Ctx) error {
	var req dto.SearchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	docs, err := c.nlpService.Search(ctx.UserContext(), ctx.Params("project_id"), req.Text, req.Limit)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Search done", dto.SearchResponse{Results: docs}))
}

func (c *nlpController) Answer(ctx *fiber.Ctx) error {
	var req dto.AnswerRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.nlpService.Answer(ctx.UserContext(), ctx.Params("project_id"), req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Answer done", dto.NewAnswerResponse(res)))
}

func (c *nlpController) DeleteIndex(ctx *fiber.Ctx) error {
	if err := c.vectorIndex.ResetCollection(ctx.UserContext(), ctx.Params("project_id")); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Index deleted", nil))
}
