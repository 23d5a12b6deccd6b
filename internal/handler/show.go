package handler

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cinefy/cinefy-server/internal/model"
	"github.com/cinefy/cinefy-server/internal/repository"
)

// ShowHandler exposes read-only show catalog endpoints for guests.
// Show creation and catalog ingestion belong to the external admin
// layer; this core only lists what it needs for seat selection.
type ShowHandler struct {
	Shows     *repository.ShowRepo      // catalog reads
	Inventory *repository.InventoryRepo // occupancy map reads
}

// NewShowHandler constructs a ShowHandler. Both repositories must be
// non-nil.
func NewShowHandler(shows *repository.ShowRepo, inventory *repository.InventoryRepo) *ShowHandler {
	if shows == nil || inventory == nil {
		panic("nil dependency passed to NewShowHandler")
	}
	return &ShowHandler{Shows: shows, Inventory: inventory}
}

// ListShows handles GET /v1/shows. It returns upcoming shows ordered
// by start time. Occupancy is not loaded here; this response may be
// served from the cache.
func (h *ShowHandler) ListShows(c echo.Context) error {
	shows, err := h.Shows.ListUpcoming(c.Request().Context(), time.Now())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load shows"})
	}
	items := make([]echo.Map, 0, len(shows))
	for _, s := range shows {
		items = append(items, echo.Map{
			"id":               s.ID,
			"movie_ref":        s.MovieRef,
			"starts_at":        s.StartsAt.UTC().Format(time.RFC3339),
			"base_price_cents": s.BasePriceCents,
			"venue":            s.Venue,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetShow handles GET /v1/shows/:id. It returns the show together
// with its current occupancy, so a seat picker needs a single request.
// Holder identities stay server-side; only the claimed labels are
// exposed. This endpoint is never cached.
func (h *ShowHandler) GetShow(c echo.Context) error {
	showID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || showID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	ctx := c.Request().Context()
	rec, err := h.Shows.GetByID(ctx, showID)
	if err != nil {
		if errors.Is(err, repository.ErrShowNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load show"})
	}
	occupancy, err := h.Inventory.OccupancyMap(ctx, showID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load show"})
	}
	show := model.Show{
		ID:             rec.ID,
		MovieRef:       rec.MovieRef,
		StartsAt:       rec.StartsAt,
		BasePriceCents: rec.BasePriceCents,
		Venue:          rec.Venue,
		OccupiedSeats:  occupancy,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}
	occupied := make([]string, 0, len(show.OccupiedSeats))
	for label := range show.OccupiedSeats {
		occupied = append(occupied, label)
	}
	sort.Strings(occupied)
	return c.JSON(http.StatusOK, echo.Map{"item": echo.Map{
		"id":               show.ID,
		"movie_ref":        show.MovieRef,
		"starts_at":        show.StartsAt.UTC().Format(time.RFC3339),
		"base_price_cents": show.BasePriceCents,
		"venue":            show.Venue,
		"occupied_seats":   occupied,
	}})
}
