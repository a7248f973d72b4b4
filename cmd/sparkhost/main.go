// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package main runs a Sparkplug B host application: it announces itself on
// the STATE topic, subscribes to the configured Sparkplug namespace and logs
// the telemetry it receives in sequence order.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/absmach/sparkhost/config"
	"github.com/absmach/sparkhost/host"
	"github.com/absmach/sparkhost/payload"
	"github.com/absmach/sparkhost/transport"
)

func main() {
	configFile := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	switch cfg.Log.Level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	tr := transport.NewMQTT(transport.Config{
		Addr:           cfg.MQTT.Addr,
		ClientID:       cfg.MQTT.ClientID,
		Username:       cfg.MQTT.Username,
		Password:       cfg.MQTT.Password,
		KeepAlive:      cfg.MQTT.KeepAlive,
		ConnectTimeout: cfg.MQTT.ConnectTimeout,
	}, logger)

	opts := host.NewOptions().
		SetHostID(cfg.Host.ID).
		SetSubscriptions(cfg.Host.Subscriptions...).
		SetAlwaysSubscribeWildcard(cfg.Host.Wildcard).
		SetOrdering(cfg.Host.Ordering.Enabled, cfg.Host.Ordering.Timeout).
		SetLogger(logger).
		SetOnMessage(func(msg host.Message) {
			logger.Debug("message",
				"type", msg.Address.Type.String(),
				"group", msg.Address.GroupID,
				"node", msg.Address.EdgeNodeID,
				"device", msg.Address.DeviceID,
				"bytes", len(msg.Payload),
			)
		}).
		SetOnHostState(func(hostID string, st payload.State) {
			logger.Info("host state", "host", hostID, "online", st.Online, "timestamp", st.Timestamp)
		}).
		SetOnRebirthRequest(func(groupID, edgeNodeID string) {
			logger.Warn("rebirth required", "group", groupID, "node", edgeNodeID)
		})

	session, err := host.New(opts, tr)
	if err != nil {
		logger.Error("Failed to create session", "error", err)
		os.Exit(1)
	}
	tr.SetHandler(session.HandleMessage)

	ctx := context.Background()
	if err := session.Start(ctx); err != nil {
		logger.Error("Failed to start session", "error", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("Shutdown signal received")

	stopCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := session.Stop(stopCtx); err != nil {
		logger.Error("Failed to stop session cleanly", "error", err)
		os.Exit(1)
	}
}
