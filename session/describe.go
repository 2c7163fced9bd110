package session

import (
	"fmt"
	"strings"

	"go-splendor/engine"
	"go-splendor/entities"
)

// describe GAME_LOG 里给人看的一行
func describe(who string, a engine.Action) string {
	switch a.Type {
	case engine.DiscardToken:
		return fmt.Sprintf("%s discarded one %s", who, a.Gem)
	case engine.GetToken:
		var parts []string
		for c := 0; c < entities.ColorCount; c++ {
			if n := a.Tokens[c]; n > 0 {
				parts = append(parts, fmt.Sprintf("%d %s", n, entities.Gem(c)))
			}
		}
		return fmt.Sprintf("%s took %s", who, strings.Join(parts, ", "))
	case engine.BuyCard:
		return fmt.Sprintf("%s bought a tier %d card", who, a.Tier)
	case engine.BuyReserved:
		return fmt.Sprintf("%s bought a reserved card", who)
	case engine.ReserveCard:
		return fmt.Sprintf("%s reserved a tier %d card", who, a.Tier)
	case engine.ReserveDeck:
		return fmt.Sprintf("%s reserved from the tier %d deck", who, a.Tier)
	case engine.DoNothing:
		return fmt.Sprintf("%s passed", who)
	}
	return fmt.Sprintf("%s: %s", who, a)
}
