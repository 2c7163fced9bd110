package entities

import "fmt"

// Gem 宝石颜色，前 5 种可用于支付，Gold 为万能宝石
type Gem int

const (
	Diamond Gem = iota
	Sapphire
	Emerald
	Ruby
	Onyx
	Gold
)

// ColorCount 可支付的颜色数量（不含 Gold）
const ColorCount = 5

// GemCount 全部宝石种类（含 Gold）
const GemCount = 6

var gemNames = [GemCount]string{"diamond", "sapphire", "emerald", "ruby", "onyx", "gold"}

func (g Gem) String() string {
	if g < 0 || int(g) >= GemCount {
		return fmt.Sprintf("gem(%d)", int(g))
	}
	return gemNames[g]
}

// Valid 是否是合法宝石
func (g Gem) Valid() bool {
	return g >= Diamond && g <= Gold
}

// Tokens 按 Gem 下标存放的宝石数量
type Tokens [GemCount]int

// Total 宝石总数
func (t Tokens) Total() int {
	n := 0
	for _, v := range t {
		n += v
	}
	return n
}

// Cost 五色费用，Gold 永远为 0
type Cost [ColorCount]int

type Card struct {
	ID     int  `json:"id"`     // 卡牌ID
	Tier   int  `json:"tier"`   // 1/2/3
	Bonus  Gem  `json:"bonus"`  // 折扣颜色
	Points int  `json:"points"` // 荣誉分
	Cost   Cost `json:"cost"`   // 五色费用
}

type Noble struct {
	ID     int  `json:"id"`
	Cost   Cost `json:"cost"`   // 需要的折扣卡数量
	Points int  `json:"points"` // 固定 3 分
}

// NoblePoints 贵族固定分数
const NoblePoints = 3

// ParseGem 按名称解析宝石颜色，如 "ruby"
func ParseGem(name string) (Gem, error) {
	for i, n := range gemNames {
		if n == name {
			return Gem(i), nil
		}
	}
	return 0, fmt.Errorf("unknown gem %q", name)
}
