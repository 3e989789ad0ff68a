package echoapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tutorboard/core/whiteboard"
)

type (
	SanitizeRequest struct {
		Commands     json.RawMessage `json:"commands"`
		CanvasWidth  float64         `json:"canvasWidth" validate:"omitempty,gt=0,lte=10000"`
		CanvasHeight float64         `json:"canvasHeight" validate:"omitempty,gt=0,lte=10000"`
	}

	SanitizeResponse struct {
		Commands []whiteboard.Command `json:"commands"`
		Report   whiteboard.Report    `json:"report"`
	}

	whiteboardApi struct {
		svc      whiteboard.Service
		validate *validator.Validate
	}
)

func registerWhiteboardAPI(g *echo.Group, svc whiteboard.Service, validate *validator.Validate) {
	api := whiteboardApi{
		svc:      svc,
		validate: validate,
	}

	wg := g.Group("/whiteboard")
	wg.POST("/sanitize", api.sanitize)
	wg.POST("/validate", api.submit)

	g.GET("/sessions/:sessionID/attempts", api.queryAttempts)
	g.GET("/attempts/:id", api.retrieveAttempt)
}

// Handlers

func (api *whiteboardApi) sanitize(ctx echo.Context) error {
	var data SanitizeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SanitizeRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	var canvas []whiteboard.Canvas
	if data.CanvasWidth > 0 || data.CanvasHeight > 0 {
		canvas = append(canvas, whiteboard.Canvas{Width: data.CanvasWidth, Height: data.CanvasHeight})
	}
	cmds, rep := api.svc.Sanitize(data.Commands, canvas...)
	return ctx.JSON(http.StatusOK, SanitizeResponse{Commands: cmds, Report: rep})
}

func (api *whiteboardApi) submit(ctx echo.Context) error {
	var data whiteboard.Submission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Submission")
	}

	res, err := api.svc.Submit(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "submitting attempt")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *whiteboardApi) queryAttempts(ctx echo.Context) error {
	filter, err := bindAttemptFilter(ctx)
	if err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx, whiteboard.OrderableFields)

	attempts, err := api.svc.QueryAttempts(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying attempts")
	}
	if attempts == nil {
		attempts = []whiteboard.Attempt{}
	}
	return ctx.JSON(http.StatusOK, attempts)
}

func (api *whiteboardApi) retrieveAttempt(ctx echo.Context) error {
	att, err := api.svc.GetAttempt(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == whiteboard.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "retrieving attempt")
	}
	return ctx.JSON(http.StatusOK, att)
}
