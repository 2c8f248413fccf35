package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/damacus/iron-files/internal/services"
	"github.com/damacus/iron-files/internal/session"
	"github.com/damacus/iron-files/internal/transfer"
)

const maxConfigBody = 64 << 10

// Connector checks that a configuration reaches its bucket
type Connector interface {
	Connect(ctx context.Context, cfg services.Configuration) error
}

type ConnectionHandler struct {
	connector Connector
	holder    *session.Holder
	boards    *transfer.Boards
	log       zerolog.Logger
}

func NewConnectionHandler(connector Connector, holder *session.Holder, boards *transfer.Boards, log zerolog.Logger) *ConnectionHandler {
	return &ConnectionHandler{connector: connector, holder: holder, boards: boards, log: log}
}

type connectResponse struct {
	Response
	Config *services.Configuration `json:"config,omitempty"`
}

// Connect verifies the posted configuration and saves it in the cookie
func (h *ConnectionHandler) Connect(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxConfigBody))
	if err != nil {
		return c.JSON(http.StatusBadRequest, Response{Message: "Could not read request body"})
	}

	cfg, err := services.ParseConfiguration(body)
	if err != nil {
		h.log.Debug().Err(err).Msg("connect rejected before contacting the store")
		return c.JSON(http.StatusBadRequest, Response{Message: "Missing required fields: " + err.Error()})
	}

	if err := h.connector.Connect(c.Request().Context(), cfg); err != nil {
		return c.JSON(http.StatusUnauthorized, Response{
			Message: "Failed to connect to S3. Please check your credentials.",
		})
	}

	if err := h.holder.Save(c, cfg); err != nil {
		h.log.Error().Err(err).Msg("saving configuration cookie failed")
		return c.JSON(http.StatusInternalServerError, Response{Message: "Internal server error"})
	}
	h.holder.SessionID(c)

	redacted := cfg.Redacted()
	h.log.Info().Str("bucket", cfg.BucketName).Str("region", cfg.Region).Msg("connected")
	return c.JSON(http.StatusOK, connectResponse{
		Response: Response{Success: true, Message: "Successfully connected to S3"},
		Config:   &redacted,
	})
}

// Disconnect clears the saved configuration and the session's upload board
func (h *ConnectionHandler) Disconnect(c echo.Context) error {
	if id, ok := SessionID(c); ok {
		h.boards.Drop(id)
	}
	h.holder.Clear(c)
	return c.JSON(http.StatusOK, Response{Success: true, Message: "Disconnected successfully"})
}
