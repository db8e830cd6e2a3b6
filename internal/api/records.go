package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/birdeye-app/birdeye/internal/records"
)

func (s *Server) listRecords(c echo.Context) error {
	if s.deps.Records == nil {
		return s.HandleError(c, nil, "no record store configured", http.StatusServiceUnavailable)
	}

	limit := s.cfg.RecordListLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return s.HandleError(c, err, "limit must be a positive integer", http.StatusBadRequest)
		}
		limit = min(n, s.cfg.RecordListLimit)
	}
	q := records.Query{Order: records.NewestFirst, Limit: limit}
	if nick := c.QueryParam("nickname"); nick != "" {
		q.Filter = records.Eq(records.ColumnNickname, nick)
	}

	recs, err := s.deps.Records.List(c.Request().Context(), q)
	if err != nil {
		return s.HandleError(c, err, "failed to list records", statusFor(err))
	}
	if recs == nil {
		recs = []records.Record{}
	}
	return c.JSON(http.StatusOK, recs)
}

func (s *Server) deleteRecord(c echo.Context) error {
	if s.deps.Records == nil {
		return s.HandleError(c, nil, "no record store configured", http.StatusServiceUnavailable)
	}
	if err := s.deps.Records.Delete(c.Request().Context(), records.ID(c.Param("id"))); err != nil {
		return s.HandleError(c, err, "failed to delete record", statusFor(err))
	}
	if s.deps.Leaderboard != nil {
		s.deps.Leaderboard.Invalidate()
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) getLeaderboard(c echo.Context) error {
	if s.deps.Leaderboard == nil {
		return s.HandleError(c, nil, "no record store configured", http.StatusServiceUnavailable)
	}
	board, err := s.deps.Leaderboard.Board(c.Request().Context())
	if err != nil {
		return s.HandleError(c, err, "failed to compute leaderboard", statusFor(err))
	}
	return c.JSON(http.StatusOK, board)
}
