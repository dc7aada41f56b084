package redis

import (
	"fmt"
	"sync"

	"github.com/redis/rueidis"
	"github.com/redqct/redqct/internal/setup/config"
	"go.uber.org/zap"
)

// AssetCacheDBIndex holds downloaded avatars and rich-presence art.
const AssetCacheDBIndex = 0

// Manager maintains a thread-safe mapping of database indices to Redis clients.
type Manager struct {
	clients map[int]rueidis.Client
	config  *config.Redis
	logger  *zap.Logger
	mu      sync.Mutex
}

// NewManager creates a manager. Connections are opened lazily on first use.
func NewManager(config *config.Redis, logger *zap.Logger) *Manager {
	return &Manager{
		clients: make(map[int]rueidis.Client),
		config:  config,
		logger:  logger.Named("redis"),
	}
}

// GetClient retrieves or creates a Redis client for the specified database index.
func (m *Manager) GetClient(dbIndex int) (rueidis.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if client, exists := m.clients[dbIndex]; exists {
		return client, nil
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)},
		Username:    m.config.Username,
		Password:    m.config.Password,
		SelectDB:    dbIndex,
		ClientName:  "redqct",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis client for DB %d: %w", dbIndex, err)
	}

	m.clients[dbIndex] = client
	m.logger.Info("Created new Redis client", zap.Int("dbIndex", dbIndex))

	return client, nil
}

// AssetCache opens the asset cache database and wraps it for the fetcher.
func (m *Manager) AssetCache() (*AssetCache, error) {
	client, err := m.GetClient(AssetCacheDBIndex)
	if err != nil {
		return nil, err
	}

	return NewAssetCache(client, m.config.TTL()), nil
}

// Close shuts down all open clients. Safe to call more than once.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for dbIndex, client := range m.clients {
		client.Close()
		delete(m.clients, dbIndex)
		m.logger.Info("Closed Redis client", zap.Int("dbIndex", dbIndex))
	}
}
