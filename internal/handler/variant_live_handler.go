package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_catalog/internal/middleware"
	"github.com/GTDGit/gtd_catalog/internal/models"
	"github.com/GTDGit/gtd_catalog/internal/service"
	"github.com/GTDGit/gtd_catalog/internal/utils"
	"github.com/GTDGit/gtd_catalog/internal/variant"
)

const (
	liveReadLimit   = 1 << 20
	liveIdleTimeout = 5 * time.Minute
	liveWriteWait   = 10 * time.Second
)

// liveMessage is one answer on a preview session: either a regenerated variant list or
// an error.
type liveMessage struct {
	Options      []variant.Option  `json:"options,omitempty"`
	Variants     []variant.Variant `json:"variants,omitempty"`
	Combinations *int              `json:"combinations,omitempty"`
	Error        *utils.ErrorInfo  `json:"error,omitempty"`
}

// VariantLiveHandler runs websocket preview sessions: each option form the admin sends
// is answered with the variant list it would produce.
type VariantLiveHandler struct {
	catalogService *service.CatalogService
	rateLimiter    *middleware.InvalidAuthRateLimiter
	upgrader       websocket.Upgrader
}

// NewVariantLiveHandler constructs a VariantLiveHandler. Sessions authenticate with a
// token in the query string, so any origin may connect. rl throttles invalid tokens and
// may be nil.
func NewVariantLiveHandler(catalogService *service.CatalogService, rl *middleware.InvalidAuthRateLimiter) *VariantLiveHandler {
	return &VariantLiveHandler{
		catalogService: catalogService,
		rateLimiter:    rl,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Preview handles GET /v1/admin/products/:id/variants/live?token=<jwt>
func (h *VariantLiveHandler) Preview(c *gin.Context) {
	claims, ok := queryTokenClaims(c, h.rateLimiter)
	if !ok {
		return
	}
	id, ok := productID(c)
	if !ok {
		return
	}

	product, err := h.catalogService.Product(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err, "Failed to open preview session")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		log.Warn().Err(err).Int("product_id", id).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(liveReadLimit)
	log.Info().Int("product_id", id).Int("user_id", claims.UserID).Msg("Variant preview session started")

	ctx := c.Request.Context()
	for {
		if err := conn.SetReadDeadline(time.Now().Add(liveIdleTimeout)); err != nil {
			return
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Int("product_id", id).Msg("Variant preview session ended")
			}
			return
		}

		var req service.OptionsRequest
		msg := liveMessage{Error: &utils.ErrorInfo{Code: "INVALID_REQUEST", Message: "Invalid message"}}
		if err := json.Unmarshal(data, &req); err == nil {
			msg = h.answer(ctx, product, &req)
		}
		if !h.write(conn, msg) {
			return
		}
	}
}

func (h *VariantLiveHandler) answer(ctx context.Context, product *models.Product, req *service.OptionsRequest) liveMessage {
	result, err := h.catalogService.PreviewForProduct(ctx, product, req)
	if err == nil {
		n := result.Combinations
		return liveMessage{Variants: result.Variants, Options: result.Options, Combinations: &n}
	}

	_, info, ok := classifyError(err)
	if !ok {
		log.Error().Err(err).Int("product_id", product.ID).Msg("Variant preview failed")
		info.Message = "Failed to preview variants"
	}
	return liveMessage{Error: info}
}

func (h *VariantLiveHandler) write(conn *websocket.Conn, msg liveMessage) bool {
	if err := conn.SetWriteDeadline(time.Now().Add(liveWriteWait)); err != nil {
		return false
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Debug().Err(err).Msg("Variant preview write failed")
		return false
	}
	return true
}
