package decision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RemoteModel 外部决策服务注册时使用的 tag
const RemoteModel = "remote"

var ErrRemoteNoResult = errors.New("remote decision service returned no result")

type remoteRequest struct {
	Seat        int       `json:"seat"`
	Observation []float32 `json:"observation"`
	Mask        []bool    `json:"mask"`
	Legal       []int     `json:"legal"`
}

type remoteResponse struct {
	Result *int `json:"result"`
}

// Remote 把观测和掩码 POST 给外部 AI 服务，服务返回 {"result": 下标}
type Remote struct {
	URL    string
	Client *http.Client
}

func NewRemote(url string, timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Remote{URL: url, Client: &http.Client{Timeout: timeout}}
}

func (r *Remote) Decide(ctx context.Context, in Input) (int, error) {
	payload := remoteRequest{
		Seat:        in.Seat,
		Observation: in.Observation,
		Mask:        in.Mask[:],
		Legal:       in.Mask.Legal(),
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(jsonData))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("调用 AI 服务失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("AI 服务返回 %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	var result remoteResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, fmt.Errorf("AI 服务返回数据解析失败: %w", err)
	}
	if result.Result == nil {
		return 0, ErrRemoteNoResult
	}
	return *result.Result, nil
}
