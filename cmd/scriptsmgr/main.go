package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/scriptsmgr/scriptsmgr"
	"github.com/scriptsmgr/scriptsmgr/auth"
	"github.com/scriptsmgr/scriptsmgr/cmd/scriptsmgr/config"
	"github.com/scriptsmgr/scriptsmgr/internal/geoip"
	"github.com/scriptsmgr/scriptsmgr/internal/logger"
	"github.com/scriptsmgr/scriptsmgr/internal/usage"
	"github.com/scriptsmgr/scriptsmgr/internal/version"
)

func main() {
	var configFile string
	if len(os.Args) > 1 {
		configFile = os.Args[1]
	}
	if err := config.Load(configFile); err != nil {
		log.WithError(err).Fatal("could not load config")
	}
	c := config.Get()
	if err := logger.Init(c.Logging.Conf); err != nil {
		log.WithError(err).Fatal("could not init logging")
	}
	log.WithField("version", version.VERSION).Info("Loaded Config")
	log.WithFields(c.LogFields()).Debug("Effective configuration")
	ctx := context.Background()

	salts := auth.NewSaltStore(c.Auth.SaltFile())
	if _, err := salts.GetOrCreate(); err != nil {
		log.WithError(err).Fatal("could not load salt")
	}
	tokens, err := auth.NewTokens([]byte(c.Auth.JWTSecret), auth.WithLifetime(c.Auth.Lifetime()))
	if err != nil {
		log.WithError(err).Fatal("could not init session tokens")
	}

	warehouse, err := config.LoadStorage(c.Storage)
	if err != nil {
		log.WithError(err).Fatal("could not load storage")
	}
	defer warehouse.Close()
	backs := warehouse.Backends()

	blobs, err := config.LoadBlobStore(ctx, c.Files)
	if err != nil {
		log.WithError(err).Fatal("could not load file storage")
	}
	menus, closeCache, err := config.LoadCache(ctx, c.Caching)
	if err != nil {
		log.WithError(err).Fatal("could not init cache")
	}
	defer closeCache()

	var locator *geoip.Locator
	if c.GeoIP.Database != "" {
		if locator, err = geoip.Open(c.GeoIP.Database); err != nil {
			log.WithError(err).Fatal("could not open geoip database")
		}
		defer locator.Close()
		log.Info("Loaded GeoIP database")
	}
	recorder := usage.NewRecorder(backs.Usage, locator, c.Usage.Buffer)
	defer recorder.Close()

	sm, err := scriptsmgr.NewScriptsManager(
		c.Server, scriptsmgr.Deps{
			AppURL:        c.AppURL,
			Salts:         salts,
			Verifier:      auth.NewVerifier(c.Auth.AdminPassword, salts),
			Tokens:        tokens,
			Backends:      backs,
			Blobs:         blobs,
			MaxUploadSize: c.Files.MaxSize,
			PresignTTL:    c.Files.PresignTTL(),
			Menus:         menus,
			MenuLifetime:  c.Caching.Lifetime(),
			Usage:         recorder,
			AccessLog:     logger.AccessWriter(),
		},
	)
	if err != nil {
		log.WithError(err).Fatal("could not init server")
	}
	log.Info("Initialized Scripts Manager")

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info("Shutting down")
		if err := sm.Shutdown(); err != nil {
			log.WithError(err).Error("shutdown failed")
		}
	}()
	if err = sm.Start(); err != nil {
		log.WithError(err).Error("server stopped")
	}
}
