package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v7"
	"github.com/labstack/gommon/log"

	"github.com/JackBinary/SyncStream/api"
	"github.com/JackBinary/SyncStream/config"
	"github.com/JackBinary/SyncStream/storage"
)

func main() {
	// APP configuration
	c := config.Get()

	// Redis client
	rdb := redis.NewClient(&redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	})
	err := rdb.Ping().Err()
	if err != nil {
		log.Fatal(err)
	}

	// Storage
	s := storage.New(rdb)

	// API
	a := api.New(c, s)

	go func() {
		// Starting API
		if err := a.Start(); err != nil {
			log.Warn(err)
		}
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	// waiting for signals
	quit := <-signals
	log.Infof("signal %s received, stopping server...", quit)
	// Stopping server
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	if err = a.Close(ctx); err != nil {
		log.Error(err)
	}
	cancel()

	if err = rdb.Close(); err != nil {
		log.Error(err)
	}
}
