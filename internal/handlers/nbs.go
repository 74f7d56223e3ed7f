package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/ashmitsharp/classtrib-api/internal/database/db"
	"github.com/ashmitsharp/classtrib-api/internal/models"
	"github.com/ashmitsharp/classtrib-api/internal/utils"
	"github.com/ashmitsharp/classtrib-api/pkg/logger"
	"github.com/gofiber/fiber/v3"
	"golang.org/x/sync/errgroup"
)

const (
	defaultNBSLimit = 50
	maxNBSLimit     = 100
)

// NBSStore searches the NBS reference table
type NBSStore interface {
	CountNBS(ctx context.Context, search string) (int64, error)
	SearchNBS(ctx context.Context, arg db.SearchNBSParams) ([]models.NBSEntry, error)
}

type NBSHandler struct {
	store NBSStore
}

func NewNBSHandler(store NBSStore) *NBSHandler {
	return &NBSHandler{store: store}
}

// Search lists NBS entries matching q on code, descriptions or LC 116 item
// GET /api/nbs?q=&page=1&limit=50
func (h *NBSHandler) Search(c fiber.Ctx) error {
	search := strings.TrimSpace(c.Query("q"))

	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultNBSLimit)))
	if err != nil {
		limit = defaultNBSLimit
	}
	limit = max(1, min(maxNBSLimit, limit))

	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	var (
		total   int64
		entries []models.NBSEntry
	)

	g, ctx := errgroup.WithContext(c.Context())
	g.Go(func() error {
		var err error
		total, err = h.store.CountNBS(ctx, search)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = h.store.SearchNBS(ctx, db.SearchNBSParams{
			Query:  search,
			Limit:  int32(limit),
			Offset: int32((page - 1) * limit),
		})
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to search NBS")
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "failed to search NBS table")
	}

	return utils.PaginatedResponse(c, entries, page, limit, total)
}
