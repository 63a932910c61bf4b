package queue

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/seu-repo/workforce-voice/internal/ports"
)

const (
	DriverNATS     = "nats"
	DriverRabbitMQ = "rabbitmq"
	DriverNone     = "none"
)

// New connects to the broker named by driver. DriverNone (or an empty driver)
// returns a nil queue and no error; callers treat that as "publishing off".
func New(driver, url string, log *zap.Logger) (ports.MessageQueue, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverNATS:
		q, err := NewNATSQueue(url, log)
		if err != nil {
			return nil, err
		}
		return q, nil
	case DriverRabbitMQ:
		q, err := NewRabbitMQQueue(url, log)
		if err != nil {
			return nil, err
		}
		return q, nil
	case DriverNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("queue: unknown driver %q", driver)
	}
}
