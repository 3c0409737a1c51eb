package application

import "fmt"

const DefaultTopicPrefix = "esp32"

// Topics builds the bridge topic names under a common prefix.
//
//	Topics{Prefix: "esp32"}.RelayStatus(2) // "esp32/relay_02_status"
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	if t.Prefix == "" {
		return DefaultTopicPrefix
	}
	return t.Prefix
}

func (t Topics) Telemetry() string {
	return fmt.Sprintf("%s/telemetry_data", t.prefix())
}

func (t Topics) Command() string {
	return fmt.Sprintf("%s/command", t.prefix())
}

func (t Topics) RelayStatus(id ActuatorID) string {
	return fmt.Sprintf("%s/relay_%02d_status", t.prefix(), int(id))
}
