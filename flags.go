package main

import "github.com/urfave/cli/v2"

var FlagLogLevel = &cli.StringFlag{
	Name:     "log-level",
	EnvVars:  []string{"LOG_LEVEL"},
	Value:    "info",
	Required: false,
}

var FlagLogWriter = &cli.StringFlag{
	Name:     "log-writer",
	Usage:    "one of: [console, json]",
	EnvVars:  []string{"LOG_WRITER"},
	Value:    "console",
	Required: false,
}

var FlagConfig = &cli.StringFlag{
	Name:     "config",
	Usage:    "path to the yaml configuration file",
	EnvVars:  []string{"BRIDGE_CONFIG"},
	Required: false,
}

var FlagHardware = &cli.StringFlag{
	Name:     "hardware",
	Usage:    "one of: [gpio, sim]",
	EnvVars:  []string{"BRIDGE_HARDWARE"},
	Required: false,
}

var FlagDeviceName = &cli.StringFlag{
	Name:     "device-name",
	EnvVars:  []string{"DEVICE_NAME"},
	Required: false,
}

var FlagMQTTUrl = &cli.StringFlag{
	Name:     "mqtt-url",
	Usage:    "tcp://broker:port",
	EnvVars:  []string{"MQTT_URL"},
	Required: false,
}

var FlagMQTTUsername = &cli.StringFlag{
	Name:     "mqtt-username",
	EnvVars:  []string{"MQTT_USERNAME"},
	Required: false,
}

var FlagMQTTPassword = &cli.StringFlag{
	Name:     "mqtt-password",
	EnvVars:  []string{"MQTT_PASSWORD"},
	Required: false,
}

var FlagMQTTTopicPrefix = &cli.StringFlag{
	Name:     "mqtt-topic-prefix",
	EnvVars:  []string{"MQTT_TOPIC_PREFIX"},
	Required: false,
}
