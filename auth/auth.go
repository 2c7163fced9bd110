// Package auth 账号注册与登录校验。密码只保存 bcrypt 哈希。
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists      = errors.New("Username already exists")
	ErrUserNotFound    = errors.New("User not found")
	ErrBadPassword     = errors.New("Invalid password")
	ErrBadUsername     = errors.New("Invalid username")
	ErrMissingPassword = errors.New("Password is required")
)

const maxUsernameLen = 32

// Authenticator 账号存储，登录成功后用户名即玩家 ID
type Authenticator interface {
	Register(ctx context.Context, username, password string) error
	Verify(ctx context.Context, username, password string) error
}

// ValidateCredentials 用户名 1~32 个字符且不含空白，密码非空
func ValidateCredentials(username, password string) error {
	if username == "" || len(username) > maxUsernameLen || strings.IndexFunc(username, unicode.IsSpace) >= 0 {
		return ErrBadUsername
	}
	if password == "" {
		return ErrMissingPassword
	}
	return nil
}

func hashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func checkPassword(hash, password string) error {
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return ErrBadPassword
	}
	return nil
}

// MemoryStore 进程内账号表，重启即丢失
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]string
	Cost  int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]string)}
}

func (s *MemoryStore) Register(ctx context.Context, username, password string) error {
	if err := ValidateCredentials(username, password); err != nil {
		return err
	}
	hash, err := hashPassword(password, s.Cost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return ErrUserExists
	}
	s.users[username] = hash
	return nil
}

func (s *MemoryStore) Verify(ctx context.Context, username, password string) error {
	s.mu.RLock()
	hash, ok := s.users[username]
	s.mu.RUnlock()
	if !ok {
		return ErrUserNotFound
	}
	return checkPassword(hash, password)
}
