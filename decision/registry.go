package decision

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultModel = "random"
	GreedyModel  = "greedy"
)

var ErrUnknownModel = errors.New("unknown decision provider")

// Factory 每个自动座位拿到独立的实例
type Factory func() Provider

type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

var seedCounter atomic.Uint64

// NewRegistry 内置 random 和 greedy
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register(DefaultModel, func() Provider {
		return NewRandom(uint64(time.Now().UnixNano()) + seedCounter.Add(1))
	})
	r.Register(GreedyModel, func() Provider { return Greedy{} })
	return r
}

func (r *Registry) Register(tag string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[tag] = f
}

// LoadModels 加载 dir 下的 *.json 权重文件，文件名（去掉扩展名）作为 tag。
// 单个文件加载失败只记录日志。
func (r *Registry) LoadModels(dir string, logger *zap.Logger) (int, error) {
	if dir == "" {
		return 0, nil
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return 0, fmt.Errorf("scan models dir: %w", err)
	}
	loaded := 0
	for _, f := range files {
		m, err := LoadMLP(f)
		if err != nil {
			logger.Warn("⚠️ 模型加载失败", zap.String("file", f), zap.Error(err))
			continue
		}
		tag := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		r.Register(tag, func() Provider { return m })
		loaded++
		logger.Info("✅ 模型已加载", zap.String("model", tag))
	}
	return loaded, nil
}

func (r *Registry) Has(tag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[tag]
	return ok
}

func (r *Registry) New(tag string) (Provider, error) {
	r.mu.RLock()
	f, ok := r.factories[tag]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, tag)
	}
	return f(), nil
}

// Tags 已注册的 tag，按字母序
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.factories))
	for t := range r.factories {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}
