// internal/ai/orchestrator_test.go
package ai

import (
	"context"
	"errors"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jason-s-yu/onecard/internal/game"
	"github.com/jason-s-yu/onecard/internal/inference"
	"github.com/jason-s-yu/onecard/internal/models"
)

// scriptedPredictor plays back canned predictions in order, so tests drive
// the model-assisted turn without a real model.
type scriptedPredictor struct {
	results []predictResult
	calls   int
}

type predictResult struct {
	prediction *inference.Prediction
	err        error
}

func (s *scriptedPredictor) PredictAction(context.Context, models.GameState) (*inference.Prediction, error) {
	if s.calls >= len(s.results) {
		return nil, errors.New("no prediction scripted")
	}
	r := s.results[s.calls]
	s.calls++
	return r.prediction, r.err
}

func quietLogger() *log.Logger {
	logger := log.New()
	logger.SetLevel(log.PanicLevel)
	return logger
}

func aiSettings(difficulty models.Difficulty) models.GameSettings {
	return models.GameSettings{
		Mode:            models.ModeSingle,
		NumberOfPlayers: 2,
		IncludeJokers:   false,
		InitHandSize:    5,
		MaxHandSize:     7,
		Difficulty:      difficulty,
	}
}

// aiState seats the human at 0 and puts the AI at seat 1 on turn.
func aiState(difficulty models.Difficulty, aiHand, deck, discard []models.Card) models.GameState {
	return models.GameState{
		Players: []models.Player{
			{ID: "player-0", Name: "me", IsSelf: true, Hand: []models.Card{
				models.NewCard(models.Rank(3), models.SuitClubs),
			}},
			{ID: "player-1", Name: "cpu-1", IsAI: true, Difficulty: difficulty, Hand: aiHand},
		},
		CurrentPlayerIndex: 1,
		Deck:               deck,
		DiscardPile:        discard,
		Direction:          models.DirectionClockwise,
		Status:             models.StatusPlaying,
		Settings:           aiSettings(difficulty),
	}
}

func TestStrategyFor(t *testing.T) {
	assert.Equal(t, StrategyRuleSearch, StrategyFor(models.DifficultyEasy))
	assert.Equal(t, StrategyExternalPolicy, StrategyFor(models.DifficultyMedium))
	assert.Equal(t, StrategyRuleSearch, StrategyFor(models.DifficultyHard))
}

func TestPlayAITurnNotApplicableOnHumanTurn(t *testing.T) {
	orch := New(nil, quietLogger())
	state := aiState(models.DifficultyEasy, []models.Card{models.NewCard(models.Rank(5), models.SuitClubs)}, nil,
		[]models.Card{models.NewCard(models.Rank(9), models.SuitHearts)})
	state.CurrentPlayerIndex = 0

	result, err := orch.PlayAITurn(context.Background(), state)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestPlayAITurnNotApplicableInMultiMode(t *testing.T) {
	orch := New(nil, quietLogger())
	state := aiState(models.DifficultyEasy, []models.Card{models.NewCard(models.Rank(5), models.SuitClubs)}, nil,
		[]models.Card{models.NewCard(models.Rank(9), models.SuitHearts)})
	state.Settings.Mode = models.ModeMulti

	result, err := orch.PlayAITurn(context.Background(), state)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestRuleTurnPlaysFirstLegalCard(t *testing.T) {
	orch := New(nil, quietLogger())
	state := aiState(models.DifficultyEasy,
		[]models.Card{
			models.NewCard(models.Rank(4), models.SuitClubs),
			models.NewCard(models.Rank(9), models.SuitSpades),
		},
		nil,
		[]models.Card{models.NewCard(models.Rank(9), models.SuitHearts)},
	)

	result, err := orch.PlayAITurn(context.Background(), state)
	require.NoError(t, err)
	require.NotNil(t, result)

	require.NotEmpty(t, result.Actions)
	assert.Equal(t, game.ActionPlayCard, result.Actions[0].Type)
	assert.Equal(t, 1, result.Actions[0].CardIndex, "first legal card in hand order")
	assert.Equal(t, game.ActionNextTurn, result.Actions[len(result.Actions)-1].Type)
	assert.Equal(t, 0, result.State.CurrentPlayerIndex)
	assert.Empty(t, result.Source, "rule turns carry no source tag")
	assert.False(t, result.Done)
}

func TestRuleTurnDrawsDamageThenRetries(t *testing.T) {
	orch := New(nil, quietLogger())
	// Nothing playable in hand; the deck's first card matches the top.
	state := aiState(models.DifficultyEasy,
		[]models.Card{models.NewCard(models.Rank(4), models.SuitClubs)},
		[]models.Card{
			models.NewCard(models.Rank(9), models.SuitSpades),
			models.NewCard(models.Rank(5), models.SuitDiamonds),
			models.NewCard(models.Rank(6), models.SuitDiamonds),
		},
		[]models.Card{models.NewCard(models.Rank(9), models.SuitHearts)},
	)
	state.Damage = 2

	result, err := orch.PlayAITurn(context.Background(), state)
	require.NoError(t, err)
	require.NotNil(t, result)

	require.GreaterOrEqual(t, len(result.Actions), 2)
	assert.Equal(t, game.ActionDrawCard, result.Actions[0].Type)
	assert.Equal(t, 2, result.Actions[0].Amount, "draw covers the pending damage")
	assert.Equal(t, game.ActionPlayCard, result.Actions[1].Type, "retry after the draw")
	assert.Equal(t, 0, result.State.Damage)
}

func TestRuleTurnPassesWhenStillBlocked(t *testing.T) {
	orch := New(nil, quietLogger())
	state := aiState(models.DifficultyEasy,
		[]models.Card{models.NewCard(models.Rank(4), models.SuitClubs)},
		[]models.Card{models.NewCard(models.Rank(5), models.SuitDiamonds)},
		[]models.Card{models.NewCard(models.Rank(9), models.SuitHearts)},
	)

	result, err := orch.PlayAITurn(context.Background(), state)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, game.ActionDrawCard, result.Actions[0].Type)
	assert.Equal(t, game.ActionNextTurn, result.Actions[len(result.Actions)-1].Type)
	assert.Equal(t, 0, result.State.CurrentPlayerIndex, "turn passes even without a play")
}

func TestRuleTurnWinningPlayFinishes(t *testing.T) {
	orch := New(nil, quietLogger())
	state := aiState(models.DifficultyEasy,
		[]models.Card{models.NewCard(models.Rank(9), models.SuitSpades)},
		nil,
		[]models.Card{models.NewCard(models.Rank(9), models.SuitHearts)},
	)

	result, err := orch.PlayAITurn(context.Background(), state)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Done)
	assert.Equal(t, models.StatusFinished, result.State.Status)
	require.NotNil(t, result.State.Winner)
	assert.Equal(t, "player-1", result.State.Winner.ID)
	assert.NotEqual(t, game.ActionNextTurn, result.Actions[len(result.Actions)-1].Type)
}

func TestRuleTurnAppliesSpecialEffect(t *testing.T) {
	orch := New(nil, quietLogger())
	state := aiState(models.DifficultyEasy,
		[]models.Card{
			models.NewCard(models.RankTwo, models.SuitHearts),
			models.NewCard(models.Rank(8), models.SuitDiamonds),
		},
		nil,
		[]models.Card{models.NewCard(models.Rank(9), models.SuitHearts)},
	)

	result, err := orch.PlayAITurn(context.Background(), state)
	require.NoError(t, err)
	require.NotNil(t, result)

	require.GreaterOrEqual(t, len(result.Actions), 3)
	assert.Equal(t, game.ActionApplySpecialEffect, result.Actions[1].Type)
	assert.Equal(t, 2, result.State.Damage, "the 2 leaves its attack pending")
}

func TestPolicyTurnTaggedOnnx(t *testing.T) {
	predictor := &scriptedPredictor{results: []predictResult{
		{prediction: &inference.Prediction{ActionIndex: 0, Action: game.PlayCardAction(1, 0)}},
	}}
	orch := New(predictor, quietLogger())
	state := aiState(models.DifficultyMedium,
		[]models.Card{
			models.NewCard(models.Rank(9), models.SuitSpades),
			models.NewCard(models.Rank(4), models.SuitClubs),
		},
		nil,
		[]models.Card{models.NewCard(models.Rank(9), models.SuitHearts)},
	)

	result, err := orch.PlayAITurn(context.Background(), state)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, SourceOnnx, result.Source)
	assert.Empty(t, result.Reason)
	require.Len(t, result.Actions, 2, "plain card: play then hand off")
	assert.Equal(t, game.ActionPlayCard, result.Actions[0].Type)
	assert.Equal(t, game.ActionNextTurn, result.Actions[1].Type)
	assert.Equal(t, 0, result.State.CurrentPlayerIndex)
	assert.Equal(t, 1, predictor.calls)
}

func TestPolicyTurnResolvesSpecialEffect(t *testing.T) {
	predictor := &scriptedPredictor{results: []predictResult{
		{prediction: &inference.Prediction{ActionIndex: 0, Action: game.PlayCardAction(1, 0)}},
	}}
	orch := New(predictor, quietLogger())
	state := aiState(models.DifficultyMedium,
		[]models.Card{
			models.NewCard(models.RankTwo, models.SuitHearts),
			models.NewCard(models.Rank(8), models.SuitDiamonds),
		},
		nil,
		[]models.Card{models.NewCard(models.Rank(9), models.SuitHearts)},
	)

	result, err := orch.PlayAITurn(context.Background(), state)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, SourceOnnx, result.Source)
	require.Len(t, result.Actions, 3)
	assert.Equal(t, game.ActionApplySpecialEffect, result.Actions[1].Type)
	assert.Equal(t, 2, result.State.Damage, "the played 2 leaves its attack pending")
}

func TestPolicyTurnDrawThenSecondQuery(t *testing.T) {
	predictor := &scriptedPredictor{results: []predictResult{
		{prediction: &inference.Prediction{ActionIndex: 7, Action: game.DrawCardAction(1)}},
		{prediction: &inference.Prediction{ActionIndex: 1, Action: game.PlayCardAction(1, 1)}},
	}}
	orch := New(predictor, quietLogger())
	// Nothing playable before the draw; the drawn 9 of spades matches.
	state := aiState(models.DifficultyMedium,
		[]models.Card{models.NewCard(models.Rank(4), models.SuitClubs)},
		[]models.Card{models.NewCard(models.Rank(9), models.SuitSpades)},
		[]models.Card{models.NewCard(models.Rank(9), models.SuitHearts)},
	)

	result, err := orch.PlayAITurn(context.Background(), state)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, SourceOnnx, result.Source)
	require.Len(t, result.Actions, 3)
	assert.Equal(t, game.ActionDrawCard, result.Actions[0].Type)
	assert.Equal(t, game.ActionPlayCard, result.Actions[1].Type)
	assert.Equal(t, game.ActionNextTurn, result.Actions[2].Type)
	assert.Equal(t, 2, predictor.calls, "one query before and one after the draw")
	assert.Len(t, result.State.Players[1].Hand, 1, "drawn card played straight away")
}

func TestPolicyTurnSecondQueryFailureOnlyWarns(t *testing.T) {
	predictor := &scriptedPredictor{results: []predictResult{
		{prediction: &inference.Prediction{ActionIndex: 7, Action: game.DrawCardAction(1)}},
		{err: errors.New("scorer unavailable")},
	}}
	orch := New(predictor, quietLogger())
	state := aiState(models.DifficultyMedium,
		[]models.Card{models.NewCard(models.Rank(4), models.SuitClubs)},
		[]models.Card{models.NewCard(models.Rank(9), models.SuitSpades)},
		[]models.Card{models.NewCard(models.Rank(9), models.SuitHearts)},
	)

	result, err := orch.PlayAITurn(context.Background(), state)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, SourceOnnx, result.Source, "a failed second query never demotes the turn")
	require.Len(t, result.Actions, 2)
	assert.Equal(t, game.ActionDrawCard, result.Actions[0].Type)
	assert.Equal(t, game.ActionNextTurn, result.Actions[1].Type)
}

func TestPolicyTurnFirstQueryFailureFallsBack(t *testing.T) {
	predictor := &scriptedPredictor{results: []predictResult{
		{err: errors.New("model artifacts missing")},
	}}
	orch := New(predictor, quietLogger())
	state := aiState(models.DifficultyMedium,
		[]models.Card{
			models.NewCard(models.Rank(9), models.SuitSpades),
			models.NewCard(models.Rank(4), models.SuitClubs),
		},
		nil,
		[]models.Card{models.NewCard(models.Rank(9), models.SuitHearts)},
	)

	result, err := orch.PlayAITurn(context.Background(), state)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, SourceFallback, result.Source)
	assert.Contains(t, result.Reason, "model artifacts missing")
	assert.Equal(t, game.ActionPlayCard, result.Actions[0].Type, "whole turn redone by rule search")
}

func TestMediumFallsBackWithoutPolicyService(t *testing.T) {
	orch := New(nil, quietLogger())
	state := aiState(models.DifficultyMedium,
		[]models.Card{models.NewCard(models.Rank(9), models.SuitSpades), models.NewCard(models.Rank(4), models.SuitClubs)},
		nil,
		[]models.Card{models.NewCard(models.Rank(9), models.SuitHearts)},
	)

	result, err := orch.PlayAITurn(context.Background(), state)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, SourceFallback, result.Source, "whole turn redone by rule search")
	assert.NotEmpty(t, result.Reason)
	assert.Equal(t, game.ActionPlayCard, result.Actions[0].Type)
}

func TestTurnAlwaysTerminatesWithProgress(t *testing.T) {
	orch := New(nil, quietLogger())
	state, err := game.CreateStartedState(aiSettings(models.DifficultyEasy))
	require.NoError(t, err)

	// Drive the whole game: human turns use the same rule search via the
	// engine, AI turns go through the orchestrator.
	for turns := 0; turns < 500 && state.Status != models.StatusFinished; turns++ {
		if IsAITurn(state) {
			result, terr := orch.PlayAITurn(context.Background(), state)
			require.NoError(t, terr)
			require.NotNil(t, result)
			require.NotEmpty(t, result.Actions, "every turn makes progress")
			state = result.State
			continue
		}
		idx := -1
		if top := state.TopCard(); top != nil {
			idx = game.FindPlayableCard(state.CurrentPlayer().Hand, *top, state.Damage)
		}
		if idx >= 0 {
			state, _, err = game.ApplyMove(state, state.CurrentPlayerIndex, idx)
			require.NoError(t, err)
			continue
		}
		amount := state.Damage
		if amount < 1 {
			amount = 1
		}
		state, err = game.Transition(state, game.DrawCardAction(amount))
		require.NoError(t, err)
		state, err = game.Transition(state, game.NextTurnAction())
		require.NoError(t, err)
	}

	assert.Equal(t, aiSettings(models.DifficultyEasy).DeckSize(), state.TotalCards(), "card conservation across a full game")
}
