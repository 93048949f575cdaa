package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"backend_nae/models"

	"github.com/go-redis/redis/v8"
)

// ErrDraftNotFound возвращается, когда у пользователя нет черновика.
var ErrDraftNotFound = errors.New("draft not found")

// DraftStore хранит сериализованный черновик формы, один слот на
// пользователя. Черновик живёт независимо от отправки на сервер и
// служит единственным источником данных для экрана "Review".
type DraftStore interface {
	Set(ctx context.Context, userID string, data []byte) error
	Get(ctx context.Context, userID string) ([]byte, error)
	Delete(ctx context.Context, userID string) error
}

// RedisDraftStore хранит черновики в Redis под ключом
// models.DraftStorageKey + userID.
type RedisDraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDraftStore создает хранилище черновиков на Redis.
func NewRedisDraftStore(client *redis.Client, ttl time.Duration) *RedisDraftStore {
	return &RedisDraftStore{client: client, ttl: ttl}
}

func draftKey(userID string) string {
	return models.DraftStorageKey + userID
}

func (s *RedisDraftStore) Set(ctx context.Context, userID string, data []byte) error {
	return s.client.Set(ctx, draftKey(userID), data, s.ttl).Err()
}

func (s *RedisDraftStore) Get(ctx context.Context, userID string) ([]byte, error) {
	data, err := s.client.Get(ctx, draftKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, ErrDraftNotFound
	}
	return data, err
}

func (s *RedisDraftStore) Delete(ctx context.Context, userID string) error {
	return s.client.Del(ctx, draftKey(userID)).Err()
}

// MemoryDraftStore хранит черновики в памяти процесса. Используется в
// тестах и когда Redis не настроен; черновики не переживают перезапуск.
type MemoryDraftStore struct {
	mu     sync.RWMutex
	drafts map[string][]byte
}

// NewMemoryDraftStore создает in-memory хранилище черновиков.
func NewMemoryDraftStore() *MemoryDraftStore {
	return &MemoryDraftStore{drafts: make(map[string][]byte)}
}

func (s *MemoryDraftStore) Set(ctx context.Context, userID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]byte, len(data))
	copy(copied, data)
	s.drafts[draftKey(userID)] = copied
	return nil
}

func (s *MemoryDraftStore) Get(ctx context.Context, userID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.drafts[draftKey(userID)]
	if !ok {
		return nil, ErrDraftNotFound
	}
	return data, nil
}

func (s *MemoryDraftStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, draftKey(userID))
	return nil
}

// DraftService сериализует черновики формы поверх DraftStore.
type DraftService struct {
	store DraftStore
}

// NewDraftService создает новый экземпляр DraftService
func NewDraftService(store DraftStore) *DraftService {
	return &DraftService{store: store}
}

// Save сохраняет черновик формы пользователя, перезаписывая предыдущий.
func (ds *DraftService) Save(ctx context.Context, userID string, form models.TestSheetFormData) error {
	data, err := json.Marshal(form)
	if err != nil {
		return fmt.Errorf("failed to serialize draft: %w", err)
	}
	return ds.store.Set(ctx, userID, data)
}

// Get возвращает сохранённый черновик пользователя.
func (ds *DraftService) Get(ctx context.Context, userID string) (models.TestSheetFormData, error) {
	var form models.TestSheetFormData
	data, err := ds.store.Get(ctx, userID)
	if err != nil {
		return form, err
	}
	if err := json.Unmarshal(data, &form); err != nil {
		return form, fmt.Errorf("failed to parse draft: %w", err)
	}
	return form, nil
}

// Clear удаляет черновик пользователя (после успешной отправки формы).
func (ds *DraftService) Clear(ctx context.Context, userID string) error {
	return ds.store.Delete(ctx, userID)
}
