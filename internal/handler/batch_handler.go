package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-batch-grader/internal/archive"
	"github.com/noah-isme/gema-batch-grader/internal/budget"
	"github.com/noah-isme/gema-batch-grader/internal/dto"
	"github.com/noah-isme/gema-batch-grader/internal/service"
	"github.com/noah-isme/gema-batch-grader/internal/utils"
)

const maxArchiveBytes int64 = 50 * 1024 * 1024

// BatchHandler exposes batch grading endpoints.
type BatchHandler struct {
	service service.BatchGradingService
	logger  zerolog.Logger
}

// NewBatchHandler builds a batch handler instance.
func NewBatchHandler(service service.BatchGradingService, logger zerolog.Logger) *BatchHandler {
	return &BatchHandler{
		service: service,
		logger:  logger.With().Str("component", "batch_handler").Logger(),
	}
}

// Register wires the routes below /api/v1/batches.
func (h *BatchHandler) Register(router fiber.Router) {
	router.Post("", h.createBatch)
	router.Get("", h.listBatches)
	router.Get("/:id", h.getBatch)
}

func (h *BatchHandler) createBatch(c *fiber.Ctx) error {
	rubricPayload := c.FormValue("rubric")
	if rubricPayload == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "rubric is required")
	}

	var rubric dto.RubricRequest
	if err := json.Unmarshal([]byte(rubricPayload), &rubric); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "rubric must be valid JSON")
	}

	file, err := c.FormFile("archive")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "archive file is required")
	}

	if file.Size > maxArchiveBytes {
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, "archive exceeds the 50 MB limit")
	}

	data, err := readUpload(file)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "archive could not be read")
	}

	response, err := h.service.RunBatch(c.Context(), rubric, file.Filename, data)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "batch graded", response)
}

func (h *BatchHandler) getBatch(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "batch id is required")
	}

	response, err := h.service.GetBatch(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "batch retrieved", response)
}

func (h *BatchHandler) listBatches(c *fiber.Ctx) error {
	limit := queryInt(c, "limit", 20)
	offset := queryInt(c, "offset", 0)

	responses, total, err := h.service.ListBatches(c.Context(), limit, offset)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "batches retrieved", fiber.Map{
		"batches": responses,
		"total":   total,
	})
}

func (h *BatchHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrs validator.ValidationErrors

	switch {
	case errors.As(err, &validationErrs):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrs.Error())
	case errors.Is(err, archive.ErrUnsupportedArchiveType),
		errors.Is(err, archive.ErrInvalidArchive):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, archive.ErrNoStudentFolders),
		errors.Is(err, budget.ErrBudgetTooSmall):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrBatchRunNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	default:
		h.logger.Error().Err(err).Msg("batch request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	reader, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return io.ReadAll(reader)
}

func queryInt(c *fiber.Ctx, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return value
}
