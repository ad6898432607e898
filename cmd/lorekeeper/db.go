package main

import (
	"context"
	"fmt"
	"strings"

	"lorekeeper/internal/config"
	"lorekeeper/internal/session"
	"lorekeeper/internal/store"
	"lorekeeper/internal/store/file"
	"lorekeeper/internal/store/postgres"
	"lorekeeper/internal/store/sqlite"
	"lorekeeper/internal/worlds"
)

const fileScheme = "file://"

// app is what every command works against: the loaded config and the world
// store behind it.
type app struct {
	cfg     *config.ProjectConfig
	worlds  *worlds.Store
	fileDir string
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return nil, err
	}
	applyLogLevel(cfg.Log.Level)

	blobs, dir, err := openStore(ctx, cfg.Store.DSN)
	if err != nil {
		return nil, err
	}
	ws, err := worlds.New(blobs, worlds.WithLogger(logger.Named("worlds")))
	if err != nil {
		_ = blobs.Close(ctx)
		return nil, err
	}
	return &app{cfg: cfg, worlds: ws, fileDir: dir}, nil
}

// openStore picks the backend by DSN scheme. For the file backend it also
// returns the directory, so callers can watch it.
func openStore(ctx context.Context, dsn string) (store.BlobStore, string, error) {
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		c, err := sqlite.New(ctx, dsn)
		return c, "", err
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		c, err := postgres.New(ctx, dsn)
		return c, "", err
	case strings.HasPrefix(dsn, fileScheme):
		dir := strings.TrimPrefix(dsn, fileScheme)
		s, err := file.New(dir)
		if err != nil {
			return nil, "", err
		}
		return s, s.Dir(), nil
	default:
		return nil, "", fmt.Errorf("unsupported store dsn: %s", dsn)
	}
}

func (a *app) Close(ctx context.Context) error {
	return a.worlds.Close(ctx)
}

func (a *app) session(opts ...session.Option) *session.Session {
	return session.NewFromConfig(a.worlds, a.cfg, logger.Named("session"), opts...)
}

// watch keeps the cache in step with edits made to world files by other
// programs. It is a no-op for database backends.
func (a *app) watch(ctx context.Context) (stop func(), err error) {
	if a.fileDir == "" {
		return func() {}, nil
	}
	w, err := file.NewWatcher(a.fileDir, a.worlds.Invalidate, logger.Named("watcher"))
	if err != nil {
		return nil, err
	}
	go w.Run(ctx)
	return func() {
		_ = w.Close()
		<-w.Done()
	}, nil
}

// saveState writes the session's selection back to the config file.
func (a *app) saveState(s *session.Session) error {
	state := s.State()
	a.cfg.WorldInfo.GlobalSelect = state.GlobalSelect
	a.cfg.WorldInfo.CharLore = a.cfg.WorldInfo.CharLore[:0]
	for _, link := range state.CharLore {
		a.cfg.WorldInfo.CharLore = append(a.cfg.WorldInfo.CharLore, config.CharLore{Name: link.Name, ExtraBooks: link.ExtraBooks})
	}
	if state.Character != nil {
		a.cfg.Character.World = state.Character.World
	}
	return config.SaveProjectConfig(configPath, a.cfg)
}

func printNotices(notices []session.Notice) {
	for _, n := range notices {
		fmt.Printf("[%s] %s\n", n.Level, n.Message)
	}
}
