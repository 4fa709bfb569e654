package taskboard

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	tbdb "github.com/nao1215/taskboard/internal/taskboard/db"
	"github.com/nao1215/taskboard/pkg/apperr"
	"github.com/nao1215/taskboard/pkg/response"
)

const (
	// defaultActivityLimit はアクティビティ一覧の既定の件数。
	defaultActivityLimit = 50
	// maxActivityLimit はアクティビティ一覧の最大件数。
	maxActivityLimit = 200
)

// activityResponse はアクティビティのJSONレスポンス構造。
type activityResponse struct {
	ID            string          `json:"id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	EventType     string          `json:"event_type"`
	ActorID       string          `json:"actor_id"`
	Data          json.RawMessage `json:"data"`
	CreatedAt     string          `json:"created_at"`
}

func toActivityResponse(a tbdb.Activity) activityResponse {
	return activityResponse{
		ID:            a.ID,
		AggregateID:   a.AggregateID,
		AggregateType: a.AggregateType,
		EventType:     a.EventType,
		ActorID:       a.ActorID,
		Data:          json.RawMessage(a.Data),
		CreatedAt:     formatTime(a.CreatedAt),
	}
}

// handleListActivity はプロジェクトのアクティビティを新しい順に返すハンドラを返す。
// limitで件数を指定できる（1〜200、既定50）。
func (s *Server) handleListActivity() gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := s.requireRole(c, c.Param("id"), RoleViewer)
		if err != nil {
			_ = c.Error(err)
			return
		}

		limit := defaultActivityLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > maxActivityLimit {
				_ = c.Error(apperr.Businessf(apperr.CodeValidationFailed, "limit must be between 1 and %d", maxActivityLimit))
				return
			}
			limit = n
		}

		activities, err := s.queries.ListActivities(c.Request.Context(), m.ProjectID, limit)
		if err != nil {
			_ = c.Error(fmt.Errorf("アクティビティの取得に失敗: %w", err))
			return
		}

		responses := make([]activityResponse, 0, len(activities))
		for _, a := range activities {
			responses = append(responses, toActivityResponse(a))
		}
		response.OK(c, http.StatusOK, responses)
	}
}
