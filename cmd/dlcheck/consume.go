package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"github.com/spf13/cobra"

	dlcheck "github.com/reoring/dlcheck"
	"github.com/reoring/dlcheck/source"
)

// messageReader is the part of *kafka.Reader the consumer uses.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// messageWriter is the part of *kafka.Writer the report publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type consumeOptions struct {
	reportTopic string
	maxMessages int
	failFast    bool
}

func (a *app) consumeCmd() *cobra.Command {
	var (
		brokers []string
		topic   string
		group   string
		opts    consumeOptions
	)
	cmd := &cobra.Command{
		Use:   "consume",
		Short: "Validate events read from a Kafka topic",
		Long: `Read JSON event records from a Kafka topic and validate each against the schema
named by its "event" field. Reports are logged and counted in metrics; with
--report-topic the report of every invalid record is published there, keyed by
the event name.

Examples:
  dlcheck consume --brokers localhost:9092 --topic datalayer-events
  dlcheck consume --brokers k1:9092,k2:9092 --topic events --report-topic events-invalid`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kc := a.cfg.Kafka
			if cmd.Flags().Changed("brokers") {
				kc.Brokers = brokers
			}
			if cmd.Flags().Changed("topic") {
				kc.Topic = topic
			}
			if cmd.Flags().Changed("group") {
				kc.GroupID = group
			}
			if len(kc.Brokers) == 0 {
				return errors.New("consume: no Kafka brokers configured (--brokers or DLCHECK_KAFKA_BROKERS)")
			}

			dialer := &kafka.Dialer{Timeout: 10 * time.Second, DualStack: true}
			reader := kafka.NewReader(kafka.ReaderConfig{
				Brokers:  kc.Brokers,
				Topic:    kc.Topic,
				GroupID:  kc.GroupID,
				Dialer:   dialer,
				MinBytes: 1,
				MaxBytes: 10e6,
			})
			var writer messageWriter
			if opts.reportTopic != "" {
				writer = &kafka.Writer{
					Addr:         kafka.TCP(kc.Brokers...),
					Topic:        opts.reportTopic,
					Balancer:     &kafka.LeastBytes{},
					BatchTimeout: 10 * time.Millisecond,
					WriteTimeout: 10 * time.Second,
					RequiredAcks: kafka.RequireOne,
					Transport:    &kafka.Transport{Dial: dialer.DialFunc},
				}
			}
			log.Info().
				Strs("brokers", kc.Brokers).
				Str("topic", kc.Topic).
				Str("group", kc.GroupID).
				Str("reportTopic", opts.reportTopic).
				Msg("Kafka consumer initialized")

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.consume(ctx, kc.Topic, reader, writer, opts)
		},
	}
	cmd.Flags().StringSliceVar(&brokers, "brokers", nil, "Kafka brokers (comma separated)")
	cmd.Flags().StringVar(&topic, "topic", "", "Topic to consume")
	cmd.Flags().StringVar(&group, "group", "", "Consumer group ID")
	cmd.Flags().StringVar(&opts.reportTopic, "report-topic", "", "Publish reports of invalid records to this topic")
	cmd.Flags().IntVar(&opts.maxMessages, "max-messages", 0, "Stop after this many messages (0 = run until interrupted)")
	cmd.Flags().BoolVar(&opts.failFast, "fail-fast", false, "Exit with status 1 at the first invalid record")
	return cmd
}

// consume validates messages until ctx ends, the reader is exhausted or
// maxMessages have been handled. Messages that are not JSON are counted and
// skipped.
func (a *app) consume(ctx context.Context, topic string, r messageReader, w messageWriter, opts consumeOptions) error {
	defer func() {
		if err := r.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing Kafka reader")
		}
		if w != nil {
			if err := w.Close(); err != nil {
				log.Error().Err(err).Msg("Error closing Kafka writer")
			}
		}
	}()

	seen, invalid := 0, 0
	for opts.maxMessages == 0 || seen < opts.maxMessages {
		msg, err := r.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("consume: read message: %w", err)
		}
		seen++

		rec, err := source.Decode(msg.Value)
		if err != nil {
			a.metrics.RecordKafkaMessage(topic, "error")
			log.Warn().Err(err).Int("partition", msg.Partition).Int64("offset", msg.Offset).Msg("Skipping message that is not JSON")
			continue
		}

		start := time.Now()
		rep := dlcheck.Validate(eventOf(rec), rec, a.registry(), a.validateOpt())
		a.metrics.ObserveValidation("kafka", time.Since(start))
		a.metrics.RecordReport("kafka", rep)

		if rep.Valid() {
			a.metrics.RecordKafkaMessage(topic, "valid")
			log.Debug().Str("event", rep.Event).Int64("offset", msg.Offset).Msg("Event passed validation")
			continue
		}
		invalid++
		a.metrics.RecordKafkaMessage(topic, "invalid")
		log.Warn().
			Str("event", rep.Event).
			Int("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Strs("violations", rep.Messages()).
			Msg("Event failed validation")

		if w != nil {
			if err := publishReport(ctx, w, msg, rep); err != nil {
				return err
			}
		}
		if opts.failFast {
			return errInvalid
		}
	}
	log.Info().Int("messages", seen).Int("invalid", invalid).Msg("Kafka consumer stopped")
	return nil
}

func publishReport(ctx context.Context, w messageWriter, src kafka.Message, rep dlcheck.Report) error {
	payload, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	out := kafka.Message{
		Key:   []byte(rep.Event),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "sourceTopic", Value: []byte(src.Topic)},
			{Key: "sourceOffset", Value: []byte(fmt.Sprint(src.Offset))},
		},
	}
	if err := w.WriteMessages(ctx, out); err != nil {
		log.Error().Err(err).Str("event", rep.Event).Msg("Failed to publish report to Kafka")
		return fmt.Errorf("consume: publish report: %w", err)
	}
	return nil
}
