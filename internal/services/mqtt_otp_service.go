package services

import (
	"errors"
	"sync"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/vaxwatch/vax-agent/pkg/mqtt"
	"github.com/vaxwatch/vax-agent/pkg/otp"
)

// OtpSink is the push side of the OTP handoff.
type OtpSink interface {
	Submit(otp string)
}

// MqttOtpService is an alternate OTP delivery path: an SMS-forwarder on the
// user's phone publishes the raw message to a broker topic and this service
// extracts the code. Runs alongside the webhook; whichever source delivers
// first wins the single OTP slot.
type MqttOtpService struct {
	topic      string
	qos        int
	mqttClient mqtt.MQTTClient
	sink       OtpSink
	logger     zerolog.Logger

	mu      sync.Mutex
	running bool
}

// NewMqttOtpService initializes a new MqttOtpService instance.
func NewMqttOtpService(topic string, qos int, mqttClient mqtt.MQTTClient,
	sink OtpSink, logger zerolog.Logger) *MqttOtpService {

	return &MqttOtpService{
		topic:      topic,
		qos:        qos,
		mqttClient: mqttClient,
		sink:       sink,
		logger:     logger,
	}
}

// Start subscribes to the forwarder topic.
func (ms *MqttOtpService) Start() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.running {
		ms.logger.Warn().Msg("MQTT OTP service is already running")
		return errors.New("mqtt otp service is already running")
	}

	token := ms.mqttClient.Subscribe(ms.topic, byte(ms.qos), ms.handleMessage)
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}

	ms.running = true
	ms.logger.Info().Str("topic", ms.topic).Msg("MQTT OTP service started")
	return nil
}

// Stop unsubscribes from the forwarder topic.
func (ms *MqttOtpService) Stop() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if !ms.running {
		return errors.New("mqtt otp service is not running")
	}

	token := ms.mqttClient.Unsubscribe(ms.topic)
	if token.Wait() && token.Error() != nil {
		ms.logger.Error().Err(token.Error()).Str("topic", ms.topic).Msg("Failed to unsubscribe")
		return token.Error()
	}

	ms.running = false
	ms.logger.Info().Msg("MQTT OTP service stopped")
	return nil
}

// handleMessage extracts a 6-digit code from the published SMS body.
func (ms *MqttOtpService) handleMessage(_ MQTT.Client, msg MQTT.Message) {
	code, ok := otp.Extract(string(msg.Payload()))
	if !ok {
		ms.logger.Warn().Str("topic", msg.Topic()).Msg("MQTT message carried no 6-digit code")
		return
	}

	ms.logger.Info().Str("otp", code).Msg("Got OTP from MQTT")
	ms.sink.Submit(code)
}
