package settings

import (
	"context"
	"fmt"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"github.com/xyths/opensea-floor-monitor/alert"
	"go.uber.org/zap"
	"sync"
)

// FileStore loads the settings from a json/yaml/toml file and reloads it when it changes.
type FileStore struct {
	Sugar *zap.SugaredLogger
	v     *viper.Viper

	mu  sync.RWMutex
	doc Document
}

func NewFileStore(path string, sugar *zap.SugaredLogger) (*FileStore, error) {
	s := &FileStore{Sugar: sugar, v: viper.New()}
	s.v.SetConfigFile(path)
	if err := s.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Watch starts reloading the file on change. A file that fails to decode keeps the last good
// settings.
func (s *FileStore) Watch() {
	s.v.OnConfigChange(func(e fsnotify.Event) {
		if err := s.load(); err != nil {
			s.Sugar.Errorf("reload settings %s error: %s", e.Name, err)
			return
		}
		s.Sugar.Infof("settings reloaded from %s", e.Name)
	})
	s.v.WatchConfig()
}

func (s *FileStore) load() error {
	var doc Document
	if err := s.v.Unmarshal(&doc); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}
	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
	return nil
}

func (s *FileStore) Settings(context.Context) (alert.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Snapshot(), nil
}
