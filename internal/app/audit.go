package app

import (
	"fmt"

	"cab/internal/audit"
	"cab/internal/config"
)

// NewAuditSink creates the audit sink selected by configuration.
func NewAuditSink(cfg config.AuditConfig) (audit.Sink, error) {
	switch cfg.Sink {
	case "", "file":
		sink, err := audit.NewFileSink(cfg.FilePath)
		if err != nil {
			return nil, err
		}
		return sink, nil
	case "kafka":
		return audit.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case "amqp":
		sink, err := audit.NewAMQPSink(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, err
		}
		return sink, nil
	case "none":
		return audit.NopSink{}, nil
	default:
		return nil, fmt.Errorf("unknown audit sink %q", cfg.Sink)
	}
}
