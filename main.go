package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mqtt-relay-bridge/adapters"
	"mqtt-relay-bridge/application"
	"mqtt-relay-bridge/config"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

var Flags = []cli.Flag{
	FlagLogLevel,
	FlagLogWriter,
	FlagConfig,
	FlagHardware,
	FlagDeviceName,
	FlagMQTTUrl,
	FlagMQTTUsername,
	FlagMQTTPassword,
	FlagMQTTTopicPrefix,
}

func main() {
	var logger zerolog.Logger

	app := cli.App{
		Name:    "mqtt-relay-bridge",
		Usage:   "bridge a BME280 sensor and four relays to an MQTT broker",
		Version: "v0.1.0",
		Flags:   Flags,
		Before: func(ctx *cli.Context) error {
			var logWriter io.Writer
			if ctx.String(FlagLogWriter.Name) == "console" {
				logWriter = zerolog.ConsoleWriter{
					Out:        os.Stderr,
					TimeFormat: time.RFC3339Nano,
				}
			} else if ctx.String(FlagLogWriter.Name) == "json" {
				logWriter = os.Stderr
			} else {
				return fmt.Errorf("invalid log writer: %s", ctx.String(FlagLogWriter.Name))
			}

			logger = zerolog.New(logWriter).With().Timestamp().
				Str("service", "mqtt-relay-bridge").
				Str("module", "main").
				Logger()

			level, err := zerolog.ParseLevel(ctx.String(FlagLogLevel.Name))
			if err != nil {
				return err
			}

			zerolog.SetGlobalLevel(level)

			return nil
		},
		Action: func(ctx *cli.Context) error {
			logger.Info().Msg("service starting...")

			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			appCtx, cancel := context.WithCancel(logger.WithContext(context.Background()))
			defer cancel()
			go func() {
				c := make(chan os.Signal, 1)
				signal.Notify(c, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

				<-c

				logger.Warn().Msg("interrupt signal received")
				cancel()
			}()

			hw, err := openHardware(cfg, logger)
			if err != nil {
				return err
			}
			defer hw.Close()

			clientID := fmt.Sprintf("%s%x", cfg.Device.ClientIDPrefix, rand.Intn(0xffff))
			logger.Info().Str("client_id", clientID).Str("device_name", cfg.Device.Name).Msg("device identity")

			link := adapters.NewInterfaceLink(adapters.InterfaceLinkParams{
				Interface: cfg.Network.Interface,
				BrokerURL: cfg.MQTT.URL,
				Log:       logger.With().Str("module", "link").Logger(),
			})
			if err := link.Connect(appCtx); err != nil {
				if appCtx.Err() != nil {
					return nil
				}
				return err
			}

			clock := adapters.NewNTPClock(adapters.NTPClockParams{
				Server:         cfg.NTP.Server,
				UpdateInterval: cfg.NTP.UpdateInterval,
				Log:            logger.With().Str("module", "ntp").Logger(),
			})

			mqttClient := adapters.NewMQTTClient(adapters.MQTTClientParams{
				ClientID:       clientID,
				Username:       cfg.MQTT.Username,
				Password:       cfg.MQTT.Password,
				MQTTUrl:        cfg.MQTT.URL,
				ConnectTimeout: cfg.MQTT.ConnectTimeout,
				Log:            logger.With().Str("module", "mqtt-client").Logger(),
			})
			defer mqttClient.Disconnect()

			bridgeService, err := application.NewBridgeService(application.BridgeServiceParams{
				MQTTClient:         mqttClient,
				TimeSync:           clock,
				Sensor:             hw.Sensor,
				ActuatorBank:       hw.Bank,
				ClientID:           clientID,
				DeviceName:         cfg.Device.Name,
				Topics:             application.Topics{Prefix: cfg.MQTT.TopicPrefix},
				TelemetryInterval:  cfg.Telemetry.Interval,
				LoopInterval:       cfg.Telemetry.LoopInterval,
				ReconnectDelay:     cfg.MQTT.ReconnectDelay,
				TimeSyncRetryDelay: cfg.NTP.RetryDelay,
				PayloadCapacity:    cfg.Telemetry.PayloadCapacity,
				Log:                logger.With().Str("module", "bridge").Logger(),
			})
			if err != nil {
				return err
			}

			logger.Info().Msg("service started")
			err = bridgeService.Run(appCtx)
			if err != nil {
				return err
			}

			logger.Info().Msg("service terminating...")
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Err(err).Msg("service terminated")
		os.Exit(1)
	}
}

func loadConfig(ctx *cli.Context) (config.Config, error) {
	cfg, err := config.Load(ctx.String(FlagConfig.Name))
	if err != nil {
		return config.Config{}, err
	}

	if ctx.IsSet(FlagHardware.Name) {
		cfg.Hardware = ctx.String(FlagHardware.Name)
	}
	if ctx.IsSet(FlagDeviceName.Name) {
		cfg.Device.Name = ctx.String(FlagDeviceName.Name)
	}
	if ctx.IsSet(FlagMQTTUrl.Name) {
		cfg.MQTT.URL = ctx.String(FlagMQTTUrl.Name)
	}
	if ctx.IsSet(FlagMQTTUsername.Name) {
		cfg.MQTT.Username = ctx.String(FlagMQTTUsername.Name)
	}
	if ctx.IsSet(FlagMQTTPassword.Name) {
		cfg.MQTT.Password = ctx.String(FlagMQTTPassword.Name)
	}
	if ctx.IsSet(FlagMQTTTopicPrefix.Name) {
		cfg.MQTT.TopicPrefix = ctx.String(FlagMQTTTopicPrefix.Name)
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
