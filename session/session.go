// Package session 一局游戏的回合调度：座位映射、人类提交动作、自动座位的回合推进。
// Session 本身不加锁，调用方（房间）持锁后再调用。
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go-splendor/decision"
	"go-splendor/dto"
	"go-splendor/engine"

	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

// DefaultMaxBotSteps 连续自动回合的上限，超过视为异常
const DefaultMaxBotSteps = 100

var (
	ErrNotYourTurn   = errors.New("not your turn")
	ErrGameOver      = engine.ErrGameOver
	ErrIllegalAction = engine.ErrIllegalAction
	ErrNotSeated     = errors.New("player is not seated in this game")
)

type Seat struct {
	Identity string `json:"identity"`
	Bot      bool   `json:"bot"`
	Model    string `json:"model,omitempty"`
}

// ActionRequest 动作下标和结构化动作二选一
type ActionRequest struct {
	Index  *int
	Action *engine.Action
}

func IndexRequest(idx int) ActionRequest {
	return ActionRequest{Index: &idx}
}

func StructuredRequest(a engine.Action) ActionRequest {
	return ActionRequest{Action: &a}
}

// Outcome 一次成功推进的结果，Winner 为 -1 表示还没结束
type Outcome struct {
	Seat     int
	Identity string
	Action   engine.Action
	Log      string
	Winner   int
	Forced   bool
}

type Session struct {
	game      *engine.Game
	seats     []Seat
	providers []decision.Provider
	registry  *decision.Registry
	rng       *rand.Rand
	logger    *zap.Logger

	MaxBotSteps int
}

// New 按座位顺序开局，bot 座位按 Model 从 registry 取决策方，未知模型退回 random
func New(seats []Seat, registry *decision.Registry, rng *rand.Rand, logger *zap.Logger) (*Session, error) {
	ids := make([]string, len(seats))
	for i, s := range seats {
		ids[i] = s.Identity
	}
	g, err := engine.New(ids, rng)
	if err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}

	s := &Session{
		game:        g,
		seats:       append([]Seat(nil), seats...),
		providers:   make([]decision.Provider, len(seats)),
		registry:    registry,
		rng:         rng,
		logger:      logger,
		MaxBotSteps: DefaultMaxBotSteps,
	}
	for i := range s.seats {
		if s.seats[i].Bot {
			s.bindProvider(i)
		}
	}
	return s, nil
}

func (s *Session) bindProvider(seat int) {
	model := s.seats[seat].Model
	p, err := s.registry.New(model)
	if err != nil {
		s.logger.Warn("⚠️ 未知模型，使用 random", zap.String("model", model), zap.Int("seat", seat))
		model = decision.DefaultModel
		p, _ = s.registry.New(model)
	}
	s.seats[seat].Model = model
	s.providers[seat] = p
}

func (s *Session) Game() *engine.Game { return s.game }

func (s *Session) Seats() []Seat { return append([]Seat(nil), s.seats...) }

func (s *Session) Terminal() bool { return s.game.Terminal() }

// Winner 赢家座位和身份，未结束时座位为 -1
func (s *Session) Winner() (int, string) {
	if !s.game.Terminal() {
		return -1, ""
	}
	return s.game.Winner, s.seats[s.game.Winner].Identity
}

func (s *Session) SeatOf(identity string) int {
	for i, seat := range s.seats {
		if !seat.Bot && seat.Identity == identity {
			return i
		}
	}
	return -1
}

func (s *Session) HasHumans() bool {
	for _, seat := range s.seats {
		if !seat.Bot {
			return true
		}
	}
	return false
}

// Submit 人类玩家提交动作，校验不通过时状态不变
func (s *Session) Submit(identity string, req ActionRequest) (Outcome, error) {
	if s.game.Terminal() {
		return Outcome{}, ErrGameOver
	}
	seat := s.game.CurrentSeat()
	if cur := s.seats[seat]; cur.Bot || cur.Identity != identity {
		return Outcome{}, ErrNotYourTurn
	}

	var a engine.Action
	switch {
	case req.Index != nil:
		var err error
		a, err = decision.Decode(s.game, seat, *req.Index)
		if err != nil {
			return Outcome{}, fmt.Errorf("%w: %v", ErrIllegalAction, err)
		}
	case req.Action != nil:
		a = *req.Action
	default:
		return Outcome{}, fmt.Errorf("%w: empty action", ErrIllegalAction)
	}

	winner, err := s.game.Step(a)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Seat: seat, Identity: identity, Action: a, Log: describe(identity, a), Winner: winner}, nil
}

// BotPending 当前是否轮到自动座位
func (s *Session) BotPending() bool {
	return !s.game.Terminal() && s.seats[s.game.CurrentSeat()].Bot
}

// StepBot 自动座位走一步。引擎拒绝了掩码内的动作时记录日志并强制跳过该座位。
func (s *Session) StepBot(ctx context.Context) (Outcome, error) {
	seat := s.game.CurrentSeat()
	bot := s.seats[seat]
	log := s.logger.With(zap.Int("seat", seat), zap.String("player", bot.Identity), zap.String("model", bot.Model))

	choice, err := decision.Choose(ctx, s.providers[seat], s.game, seat, s.rng)
	if err != nil {
		return Outcome{}, fmt.Errorf("bot seat %d: %w", seat, err)
	}
	if choice.Fallback {
		log.Warn("⚠️ 决策失败，改用随机动作", zap.Error(choice.Err), zap.Int("index", choice.Index))
	}

	out := Outcome{Seat: seat, Identity: bot.Identity, Action: choice.Action}
	winner, err := s.game.Step(choice.Action)
	if err != nil {
		log.Error("❌ 自动动作执行失败，跳过该座位", zap.Stringer("action", choice.Action), zap.Error(err))
		out.Winner = s.game.ForceAdvance()
		out.Forced = true
		out.Log = fmt.Sprintf("%s skipped a turn", bot.Identity)
		return out, nil
	}
	out.Winner = winner
	out.Log = describe(bot.Identity, choice.Action)
	return out, nil
}

// Drain 调用时 mu 已持有。连续推进自动座位，每步之间释放锁等待 delay。
// 超过 MaxBotSteps 时强制跳到人类座位。返回执行的步数。
func (s *Session) Drain(ctx context.Context, mu sync.Locker, delay time.Duration, emit func(Outcome)) int {
	steps := 0
	for s.BotPending() {
		if ctx.Err() != nil {
			return steps
		}
		if steps >= s.MaxBotSteps {
			s.logger.Error("❌ 自动回合次数超限，强制跳到人类座位", zap.Int("steps", steps))
			for i := 0; i < len(s.seats) && s.BotPending(); i++ {
				w := s.game.ForceAdvance()
				emit(Outcome{Seat: s.game.CurrentSeat(), Winner: w, Forced: true, Log: "bot turns exhausted, turn passed"})
			}
			return steps
		}

		out, err := s.StepBot(ctx)
		if err != nil {
			s.logger.Error("❌ 自动回合失败", zap.Error(err))
			return steps
		}
		steps++
		emit(out)
		if s.game.Terminal() || !s.BotPending() {
			return steps
		}

		if delay > 0 {
			mu.Unlock()
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
			case <-timer.C:
			}
			timer.Stop()
			mu.Lock()
		}
	}
	return steps
}

// ReplaceWithBot 人类中途离开，座位交给 bot 继续
func (s *Session) ReplaceWithBot(identity, model string) error {
	seat := s.SeatOf(identity)
	if seat < 0 {
		return ErrNotSeated
	}
	s.seats[seat].Bot = true
	s.seats[seat].Model = model
	s.bindProvider(seat)
	return nil
}

func (s *Session) SeatMapping() []dto.SeatInfo {
	out := make([]dto.SeatInfo, len(s.seats))
	for i, seat := range s.seats {
		out[i] = dto.SeatInfo{Seat: i, PlayerID: seat.Identity, Bot: seat.Bot, Model: seat.Model}
	}
	return out
}

// State viewer 视角的快照：只有本人能看到自己的预留卡，轮到本人时附带合法动作下标
func (s *Session) State(viewer string) dto.GameState {
	g := s.game
	st := dto.GameState{
		Bank:        g.Bank,
		Nobles:      append(g.Nobles[:0:0], g.Nobles...),
		CurrentSeat: g.CurrentSeat(),
		Phase:       g.Phase.Kind.String(),
		Turn:        g.Turn,
		Winner:      g.Winner,
	}
	for t := 0; t < engine.Tiers; t++ {
		st.Tiers = append(st.Tiers, dto.TierView{
			Open:      append(g.Board.Open[t][:0:0], g.Board.Open[t]...),
			DeckCount: len(g.Board.Decks[t]),
		})
	}
	for i := range g.Players {
		p := &g.Players[i]
		ps := dto.PlayerState{
			PlayerID:      p.Identity,
			Seat:          i,
			Bot:           s.seats[i].Bot,
			Model:         s.seats[i].Model,
			Tokens:        p.Tokens,
			Discounts:     p.Discounts(),
			Score:         p.Score(),
			Cards:         append(p.Cards[:0:0], p.Cards...),
			Nobles:        append(p.Nobles[:0:0], p.Nobles...),
			ReservedCount: len(p.Reserved),
		}
		if viewer != "" && viewer == p.Identity && !s.seats[i].Bot {
			ps.Reserved = append(p.Reserved[:0:0], p.Reserved...)
			if i == g.CurrentSeat() {
				st.LegalActions = decision.Mask(g, i).Legal()
			}
		}
		st.Players = append(st.Players, ps)
	}
	return st
}
