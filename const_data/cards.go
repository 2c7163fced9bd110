package const_data

import "go-splendor/entities"

// 费用顺序: diamond, sapphire, emerald, ruby, onyx
type cardRow struct {
	bonus  entities.Gem
	points int
	cost   entities.Cost
}

const (
	w = entities.Diamond
	u = entities.Sapphire
	g = entities.Emerald
	r = entities.Ruby
	k = entities.Onyx
)

var tier1 = []cardRow{
	// onyx
	{k, 0, entities.Cost{1, 1, 1, 1, 0}}, {k, 0, entities.Cost{1, 2, 1, 1, 0}},
	{k, 0, entities.Cost{2, 2, 0, 1, 0}}, {k, 0, entities.Cost{0, 0, 1, 3, 1}},
	{k, 0, entities.Cost{0, 0, 2, 1, 0}}, {k, 0, entities.Cost{2, 0, 2, 0, 0}},
	{k, 0, entities.Cost{0, 0, 3, 0, 0}}, {k, 1, entities.Cost{0, 4, 0, 0, 0}},
	// sapphire
	{u, 0, entities.Cost{1, 0, 1, 1, 1}}, {u, 0, entities.Cost{1, 0, 1, 2, 1}},
	{u, 0, entities.Cost{1, 0, 2, 2, 0}}, {u, 0, entities.Cost{0, 1, 3, 1, 0}},
	{u, 0, entities.Cost{1, 0, 0, 0, 2}}, {u, 0, entities.Cost{0, 0, 2, 0, 2}},
	{u, 0, entities.Cost{0, 0, 0, 0, 3}}, {u, 1, entities.Cost{0, 0, 0, 4, 0}},
	// diamond
	{w, 0, entities.Cost{0, 1, 1, 1, 1}}, {w, 0, entities.Cost{0, 1, 2, 1, 1}},
	{w, 0, entities.Cost{0, 2, 2, 0, 1}}, {w, 0, entities.Cost{3, 1, 0, 0, 1}},
	{w, 0, entities.Cost{0, 0, 0, 2, 1}}, {w, 0, entities.Cost{0, 2, 0, 0, 2}},
	{w, 0, entities.Cost{0, 3, 0, 0, 0}}, {w, 1, entities.Cost{0, 0, 4, 0, 0}},
	// emerald
	{g, 0, entities.Cost{1, 1, 0, 1, 1}}, {g, 0, entities.Cost{1, 1, 0, 1, 2}},
	{g, 0, entities.Cost{0, 1, 0, 2, 2}}, {g, 0, entities.Cost{1, 3, 1, 0, 0}},
	{g, 0, entities.Cost{2, 1, 0, 0, 0}}, {g, 0, entities.Cost{0, 2, 0, 2, 0}},
	{g, 0, entities.Cost{0, 0, 0, 3, 0}}, {g, 1, entities.Cost{0, 0, 0, 0, 4}},
	// ruby
	{r, 0, entities.Cost{1, 1, 1, 0, 1}}, {r, 0, entities.Cost{2, 1, 1, 0, 1}},
	{r, 0, entities.Cost{2, 0, 1, 0, 2}}, {r, 0, entities.Cost{1, 0, 0, 1, 3}},
	{r, 0, entities.Cost{0, 2, 1, 0, 0}}, {r, 0, entities.Cost{2, 0, 0, 2, 0}},
	{r, 0, entities.Cost{3, 0, 0, 0, 0}}, {r, 1, entities.Cost{4, 0, 0, 0, 0}},
}

var tier2 = []cardRow{
	{k, 1, entities.Cost{3, 2, 2, 0, 0}}, {k, 1, entities.Cost{3, 0, 3, 0, 2}},
	{k, 2, entities.Cost{0, 1, 4, 2, 0}}, {k, 2, entities.Cost{0, 0, 5, 3, 0}},
	{k, 2, entities.Cost{5, 0, 0, 0, 0}}, {k, 3, entities.Cost{0, 0, 0, 0, 6}},

	{u, 1, entities.Cost{0, 2, 2, 3, 0}}, {u, 1, entities.Cost{0, 2, 3, 0, 3}},
	{u, 2, entities.Cost{5, 3, 0, 0, 0}}, {u, 2, entities.Cost{2, 0, 0, 1, 4}},
	{u, 2, entities.Cost{0, 5, 0, 0, 0}}, {u, 3, entities.Cost{0, 6, 0, 0, 0}},

	{w, 1, entities.Cost{0, 0, 3, 2, 2}}, {w, 1, entities.Cost{2, 3, 0, 3, 0}},
	{w, 2, entities.Cost{0, 0, 1, 4, 2}}, {w, 2, entities.Cost{0, 0, 0, 5, 3}},
	{w, 2, entities.Cost{0, 0, 0, 5, 0}}, {w, 3, entities.Cost{6, 0, 0, 0, 0}},

	{g, 1, entities.Cost{3, 0, 2, 3, 0}}, {g, 1, entities.Cost{2, 3, 0, 0, 2}},
	{g, 2, entities.Cost{4, 2, 0, 0, 1}}, {g, 2, entities.Cost{0, 5, 3, 0, 0}},
	{g, 2, entities.Cost{0, 0, 5, 0, 0}}, {g, 3, entities.Cost{0, 0, 6, 0, 0}},

	{r, 1, entities.Cost{2, 0, 0, 2, 3}}, {r, 1, entities.Cost{0, 3, 0, 2, 3}},
	{r, 2, entities.Cost{1, 4, 2, 0, 0}}, {r, 2, entities.Cost{3, 0, 0, 0, 5}},
	{r, 2, entities.Cost{0, 0, 0, 0, 5}}, {r, 3, entities.Cost{0, 0, 0, 6, 0}},
}

var tier3 = []cardRow{
	{k, 3, entities.Cost{3, 3, 5, 3, 0}}, {k, 4, entities.Cost{0, 0, 0, 7, 0}},
	{k, 4, entities.Cost{0, 0, 3, 6, 3}}, {k, 5, entities.Cost{0, 0, 0, 7, 3}},

	{u, 3, entities.Cost{3, 0, 3, 3, 5}}, {u, 4, entities.Cost{7, 0, 0, 0, 0}},
	{u, 4, entities.Cost{6, 3, 0, 0, 3}}, {u, 5, entities.Cost{7, 3, 0, 0, 0}},

	{w, 3, entities.Cost{0, 3, 3, 5, 3}}, {w, 4, entities.Cost{0, 0, 0, 0, 7}},
	{w, 4, entities.Cost{3, 0, 0, 3, 6}}, {w, 5, entities.Cost{3, 0, 0, 0, 7}},

	{g, 3, entities.Cost{5, 3, 0, 3, 3}}, {g, 4, entities.Cost{0, 7, 0, 0, 0}},
	{g, 4, entities.Cost{3, 6, 3, 0, 0}}, {g, 5, entities.Cost{0, 7, 3, 0, 0}},

	{r, 3, entities.Cost{3, 5, 3, 0, 3}}, {r, 4, entities.Cost{0, 0, 7, 0, 0}},
	{r, 4, entities.Cost{0, 3, 6, 3, 0}}, {r, 5, entities.Cost{0, 0, 7, 3, 0}},
}

var nobleCosts = []entities.Cost{
	{0, 0, 4, 4, 0},
	{0, 0, 0, 4, 4},
	{0, 4, 4, 0, 0},
	{4, 4, 0, 0, 0},
	{4, 0, 0, 0, 4},
	{0, 0, 3, 3, 3},
	{0, 3, 3, 3, 0},
	{3, 3, 3, 0, 0},
	{3, 0, 0, 3, 3},
	{3, 3, 0, 0, 3},
}

// SplendorCards 三个等级的全部发展卡，下标 0 对应 1 级
var SplendorCards [3][]entities.Card

// NobleTilesList 全部 10 张贵族
var NobleTilesList []entities.Noble

func init() {
	id := 1
	for i, rows := range [][]cardRow{tier1, tier2, tier3} {
		cards := make([]entities.Card, 0, len(rows))
		for _, row := range rows {
			cards = append(cards, entities.Card{
				ID:     id,
				Tier:   i + 1,
				Bonus:  row.bonus,
				Points: row.points,
				Cost:   row.cost,
			})
			id++
		}
		SplendorCards[i] = cards
	}

	for i, cost := range nobleCosts {
		NobleTilesList = append(NobleTilesList, entities.Noble{
			ID:     i + 1,
			Cost:   cost,
			Points: entities.NoblePoints,
		})
	}
}
