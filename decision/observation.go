package decision

import (
	"go-splendor/engine"
	"go-splendor/entities"
)

// ObservationSize 观测向量定长，不足补 0
const ObservationSize = 250

const (
	cardFeatures = entities.ColorCount + 2 // cost, points, color
	maxNobles    = 5
)

// Observe 以 seat 为视角的观测，对手按座位相对顺序排列
func Observe(g *engine.Game, seat int) []float32 {
	obs := make([]float32, 0, ObservationSize)

	for _, v := range g.Bank {
		obs = append(obs, float32(v))
	}

	for t := 0; t < engine.Tiers; t++ {
		for s := 0; s < engine.OpenPerTier; s++ {
			if s < len(g.Board.Open[t]) {
				obs = appendCard(obs, g.Board.Open[t][s])
			} else {
				obs = appendZeros(obs, cardFeatures)
			}
		}
	}

	p := &g.Players[seat]
	for _, v := range p.Tokens {
		obs = append(obs, float32(v))
	}
	for _, v := range p.Discounts() {
		obs = append(obs, float32(v))
	}
	obs = append(obs, float32(p.Score()))
	for i := 0; i < engine.MaxReserved; i++ {
		if i < len(p.Reserved) {
			obs = appendCard(obs, p.Reserved[i])
		} else {
			obs = appendZeros(obs, cardFeatures)
		}
	}

	n := len(g.Players)
	for i := 1; i < n; i++ {
		op := &g.Players[(seat+i)%n]
		for _, v := range op.Tokens {
			obs = append(obs, float32(v))
		}
		for _, v := range op.Discounts() {
			obs = append(obs, float32(v))
		}
		obs = append(obs, float32(op.Score()), float32(len(op.Reserved)))
	}

	for i := 0; i < maxNobles; i++ {
		if i < len(g.Nobles) {
			for _, v := range g.Nobles[i].Cost {
				obs = append(obs, float32(v))
			}
		} else {
			obs = appendZeros(obs, entities.ColorCount)
		}
	}

	return appendZeros(obs, ObservationSize-len(obs))
}

func appendCard(obs []float32, c entities.Card) []float32 {
	for _, v := range c.Cost {
		obs = append(obs, float32(v))
	}
	return append(obs, float32(c.Points), float32(c.Bonus))
}

func appendZeros(obs []float32, n int) []float32 {
	for i := 0; i < n; i++ {
		obs = append(obs, 0)
	}
	return obs
}
