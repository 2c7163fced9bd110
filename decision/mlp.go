package decision

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// MLPWeights 导出的策略网络参数，矩阵按 x @ W 的方向存放（行数 = 输入维度）
type MLPWeights struct {
	Fc0W [][]float64 `json:"fc0_w"`
	Fc0B []float64   `json:"fc0_b"`
	Fc1W [][]float64 `json:"fc1_w"`
	Fc1B []float64   `json:"fc1_b"`
	ActW [][]float64 `json:"act_w"`
	ActB []float64   `json:"act_b"`
}

// MLP tanh -> tanh -> logits，按掩码取 argmax
type MLP struct {
	w MLPWeights
}

func LoadMLP(path string) (*MLP, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read weights: %w", err)
	}
	var w MLPWeights
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode weights %s: %w", path, err)
	}
	return NewMLP(w)
}

func NewMLP(w MLPWeights) (*MLP, error) {
	if err := checkLayer("fc0", w.Fc0W, w.Fc0B, ObservationSize); err != nil {
		return nil, err
	}
	if err := checkLayer("fc1", w.Fc1W, w.Fc1B, len(w.Fc0B)); err != nil {
		return nil, err
	}
	if err := checkLayer("act", w.ActW, w.ActB, len(w.Fc1B)); err != nil {
		return nil, err
	}
	if len(w.ActB) != ActionSpace {
		return nil, fmt.Errorf("act layer has %d outputs, want %d", len(w.ActB), ActionSpace)
	}
	return &MLP{w: w}, nil
}

func checkLayer(name string, w [][]float64, b []float64, in int) error {
	if len(w) != in {
		return fmt.Errorf("%s: %d input rows, want %d", name, len(w), in)
	}
	for i, row := range w {
		if len(row) != len(b) {
			return fmt.Errorf("%s: row %d has %d columns, bias has %d", name, i, len(row), len(b))
		}
	}
	return nil
}

func (m *MLP) Decide(_ context.Context, in Input) (int, error) {
	x := make([]float64, len(in.Observation))
	for i, v := range in.Observation {
		x[i] = float64(v)
	}
	x = dense(x, m.w.Fc0W, m.w.Fc0B, math.Tanh)
	x = dense(x, m.w.Fc1W, m.w.Fc1B, math.Tanh)
	logits := dense(x, m.w.ActW, m.w.ActB, nil)

	best := -1
	for i, ok := range in.Mask {
		if ok && (best < 0 || logits[i] > logits[best]) {
			best = i
		}
	}
	if best < 0 {
		return 0, ErrNoLegalAction
	}
	return best, nil
}

func dense(x []float64, w [][]float64, b []float64, act func(float64) float64) []float64 {
	out := append([]float64(nil), b...)
	for i, xi := range x {
		if xi == 0 {
			continue
		}
		for j, wij := range w[i] {
			out[j] += xi * wij
		}
	}
	if act != nil {
		for j := range out {
			out[j] = act(out[j])
		}
	}
	return out
}
