// internal/handlers/actions.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jason-s-yu/onecard/internal/ai"
	"github.com/jason-s-yu/onecard/internal/cache"
	"github.com/jason-s-yu/onecard/internal/database"
	"github.com/jason-s-yu/onecard/internal/game"
	"github.com/jason-s-yu/onecard/internal/gamestore"
	"github.com/jason-s-yu/onecard/internal/models"
)

// ActionTypeFullMove is the composite request type: legality check, play,
// effect and turn handoff in one engine call. It is an API-level type, not
// an engine action.
const ActionTypeFullMove = "FULL_MOVE"

// ActionDTO is the wire form of an action request. Pointer fields
// distinguish "absent" from zero.
type ActionDTO struct {
	Type        string       `json:"type"`
	PlayerIndex *int         `json:"playerIndex"`
	CardIndex   *int         `json:"cardIndex"`
	Amount      *int         `json:"amount"`
	EffectCard  *models.Card `json:"effectCard"`
	WinnerIndex *int         `json:"winnerIndex"`
}

func buildAction(dto ActionDTO) (game.Action, error) {
	switch game.ActionType(dto.Type) {
	case game.ActionStartGame:
		return game.StartGameAction(), nil
	case game.ActionNextTurn:
		return game.NextTurnAction(), nil
	case game.ActionPlayCard:
		if dto.PlayerIndex == nil || dto.CardIndex == nil {
			return game.Action{}, errors.New("PLAY_CARD requires playerIndex and cardIndex")
		}
		return game.PlayCardAction(*dto.PlayerIndex, *dto.CardIndex), nil
	case game.ActionDrawCard:
		amount := 1
		if dto.Amount != nil {
			amount = *dto.Amount
		}
		if amount < 1 {
			return game.Action{}, errors.New("amount must be at least 1")
		}
		return game.DrawCardAction(amount), nil
	case game.ActionApplySpecialEffect:
		if dto.EffectCard == nil {
			return game.Action{}, errors.New("APPLY_SPECIAL_EFFECT requires effectCard")
		}
		return game.ApplySpecialEffectAction(*dto.EffectCard), nil
	case game.ActionEndGame:
		winner := 0
		if dto.WinnerIndex != nil {
			winner = *dto.WinnerIndex
		}
		return game.EndGameAction(winner), nil
	default:
		return game.Action{}, fmt.Errorf("unknown action type %q", dto.Type)
	}
}

func (s *Server) handleApplyAction(w http.ResponseWriter, r *http.Request) {
	session, ok := s.sessionFromRequest(w, r, true)
	if !ok {
		return
	}
	var dto ActionDTO
	if err := decodeBody(r, &dto); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if dto.Type == "" {
		writeError(w, http.StatusBadRequest, "action type is required")
		return
	}

	var trace []game.Action
	var state models.GameState
	var err error

	if dto.Type == ActionTypeFullMove {
		if dto.PlayerIndex == nil || dto.CardIndex == nil {
			writeError(w, http.StatusBadRequest, "FULL_MOVE requires playerIndex and cardIndex")
			return
		}
		state, err = session.Update(func(st models.GameState) (models.GameState, error) {
			next, actions, merr := game.ApplyMove(st, *dto.PlayerIndex, *dto.CardIndex)
			if merr != nil {
				return st, merr
			}
			trace = actions
			return next, nil
		})
	} else {
		action, berr := buildAction(dto)
		if berr != nil {
			writeError(w, http.StatusBadRequest, berr.Error())
			return
		}
		state, err = session.Update(func(st models.GameState) (models.GameState, error) {
			res, serr := game.Step(st, action)
			if serr != nil {
				return st, serr
			}
			trace = []game.Action{res.Action}
			return res.State, nil
		})
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.afterMutation(r.Context(), session, state, trace, "")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"state": state,
		"done":  state.Status == models.StatusFinished,
	})
}

type aiTurnResponse struct {
	State   models.GameState `json:"state"`
	Done    bool             `json:"done"`
	Actions []game.Action    `json:"actions"`
	Source  string           `json:"source,omitempty"`
	Reason  string           `json:"reason,omitempty"`
}

func (s *Server) handleAITurn(w http.ResponseWriter, r *http.Request) {
	session, ok := s.sessionFromRequest(w, r, true)
	if !ok {
		return
	}

	var result *ai.TurnResult
	state, err := session.Update(func(st models.GameState) (models.GameState, error) {
		res, rerr := s.orchestrator.PlayAITurn(r.Context(), st)
		if rerr != nil {
			return st, rerr
		}
		result = res
		if res == nil {
			return st, nil
		}
		return res.State, nil
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if result == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.afterMutation(r.Context(), session, state, result.Actions, result.Source)
	writeJSON(w, http.StatusOK, aiTurnResponse{
		State:   result.State,
		Done:    result.Done,
		Actions: result.Actions,
		Source:  result.Source,
		Reason:  result.Reason,
	})
}

// mirrorSnapshot pushes a fresh state to the Redis mirror, best-effort.
func (s *Server) mirrorSnapshot(r *http.Request, session *gamestore.Session, state models.GameState) {
	if err := cache.SaveGameSnapshot(r.Context(), session.ID, state); err != nil {
		s.logger.WithError(err).Warn("failed to mirror game snapshot")
	}
}

// afterMutation runs the best-effort side channels after a state change:
// the Redis state mirror, the action queue, and the result row when the
// game just finished. None of these can fail the request.
func (s *Server) afterMutation(ctx context.Context, session *gamestore.Session, state models.GameState, actions []game.Action, source string) {
	if err := cache.SaveGameSnapshot(ctx, session.ID, state); err != nil {
		s.logger.WithError(err).Warn("failed to mirror game snapshot")
	}
	for _, action := range actions {
		record := cache.GameActionRecord{
			GameID:      session.ID,
			ActionIndex: session.NextActionIndex(),
			ActorID:     actorFor(state, action),
			ActionType:  string(action.Type),
			Action:      action,
			Source:      source,
			Timestamp:   time.Now().UnixMilli(),
		}
		if err := cache.PublishGameAction(ctx, record); err != nil {
			s.logger.WithError(err).Warn("failed to publish game action")
			break
		}
	}
	if state.Status == models.StatusFinished && state.Winner != nil {
		if err := database.InsertGameResult(ctx, session.ID, *state.Winner, state.Settings); err != nil {
			s.logger.WithError(err).Warn("failed to persist game result")
		}
	}
}

func actorFor(state models.GameState, action game.Action) string {
	if action.Type == game.ActionPlayCard &&
		action.PlayerIndex >= 0 && action.PlayerIndex < len(state.Players) {
		return state.Players[action.PlayerIndex].ID
	}
	if p := state.CurrentPlayer(); p != nil {
		return p.ID
	}
	return ""
}
