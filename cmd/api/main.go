package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/audiobookroom/audiobookroom/pkg/catalog"
	"github.com/audiobookroom/audiobookroom/pkg/config"
	"github.com/audiobookroom/audiobookroom/pkg/database"
	"github.com/audiobookroom/audiobookroom/pkg/migrations"
	"github.com/audiobookroom/audiobookroom/pkg/playback"
	"github.com/audiobookroom/audiobookroom/pkg/server"
	"github.com/audiobookroom/audiobookroom/pkg/version"
	"github.com/audiobookroom/audiobookroom/pkg/worker"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
)

func main() {
	ctx := context.Background()
	log := logger.New()

	log.Info("starting audiobookroom", logger.Data{"version": version.Version})

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	if err := initLibraryDir(cfg.LibraryDir); err != nil {
		log.Err(err).Fatal("library directory error")
	}
	log.Info("library directory initialized", logger.Data{"path": cfg.LibraryDir})

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}

	group, err := migrations.BringUpToDate(ctx, db)
	if err != nil {
		log.Err(err).Fatal("migrations error")
	}
	if group.ID == 0 {
		log.Info("no new migrations to run")
	} else {
		log.Info("migrated to new group", logger.Data{"group_id": group.ID, "migration_names": group.Migrations.String()})
	}

	manager := playback.NewManager(catalog.New(db), playback.Options{
		Threshold:          cfg.ProgressThresholdSeconds,
		SleepCheckInterval: cfg.SleepCheckIntervalSeconds,
	})

	wrkr := worker.New(cfg, db)

	srv, err := server.New(cfg, db, manager)
	if err != nil {
		log.Err(err).Fatal("server error")
	}

	graceful := signals.Setup()

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort)
		lc := net.ListenConfig{}
		listener, err := lc.Listen(ctx, "tcp", addr)
		if err != nil {
			log.Err(err).Fatal("failed to bind port")
		}
		log.Info("server started", logger.Data{"addr": listener.Addr().String()})

		err = srv.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Fatal("server stopped")
		}
		log.Info("server stopped")
	}()

	wrkr.Start()
	log.Info("worker started")

	<-graceful
	log.Info("starting graceful shutdown")

	err = srv.Shutdown(ctx)
	if err != nil {
		log.Err(err).Error("server shutdown error")
	}
	log.Info("server shutdown")

	manager.Shutdown()
	log.Info("playback sessions closed")

	wrkr.Shutdown()
	log.Info("worker shutdown")

	err = db.Close()
	if err != nil {
		log.Err(err).Error("database close error")
	}
	log.Info("database closed")
}

// initLibraryDir creates the library directory and checks that imports will
// be able to write to it.
func initLibraryDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create library directory: %s", dir)
	}

	testFile := filepath.Join(dir, ".write_test")
	f, err := os.Create(testFile)
	if err != nil {
		return errors.Wrapf(err, "library directory is not writable: %s", dir)
	}
	f.Close()

	if err := os.Remove(testFile); err != nil {
		return errors.Wrapf(err, "failed to clean up write test file: %s", testFile)
	}

	return nil
}
