package adapters

import (
	"fmt"

	"mqtt-relay-bridge/application"

	"github.com/warthog618/go-gpiocdev"
)

const GPIODefaultChip = "gpiochip0"

// GPIOLine drives one output line of a GPIO character device.
type GPIOLine struct {
	line *gpiocdev.Line
}

// OpenGPIOLine requests offset on chip as an output, initially at level.
func OpenGPIOLine(chip string, offset int, consumer string, level application.Level) (*GPIOLine, error) {
	if chip == "" {
		chip = GPIODefaultChip
	}

	line, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsOutput(gpioValue(level)),
		gpiocdev.WithConsumer(consumer),
	)
	if err != nil {
		return nil, fmt.Errorf("request %s line %d: %w", chip, offset, err)
	}
	return &GPIOLine{line: line}, nil
}

func (g *GPIOLine) SetLevel(level application.Level) error {
	return g.line.SetValue(gpioValue(level))
}

func (g *GPIOLine) Close() error {
	return g.line.Close()
}

func gpioValue(level application.Level) int {
	if level == application.LevelHigh {
		return 1
	}
	return 0
}

var _ application.OutputLine = &GPIOLine{}
