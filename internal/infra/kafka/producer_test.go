package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"quadruped-gateway/internal/config"
	"quadruped-gateway/internal/infra/mq"
)

func newTestProducer(t *testing.T, encoding mq.Encoding) *KafkaProducer {
	t.Helper()
	p, err := NewKafkaProducer(config.KafkaConfig{Brokers: []string{"127.0.0.1:9092"}}, encoding, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func TestKafkaProducer_Message(t *testing.T) {
	p := newTestProducer(t, mq.EncodingJSON)

	msg, err := p.message("robot_telemetry", "0403010203040000", map[string]int{"soc": 80})
	require.NoError(t, err)
	assert.Equal(t, "robot_telemetry", msg.Topic)
	assert.Equal(t, []byte("0403010203040000"), msg.Key)
	assert.JSONEq(t, `{"soc":80}`, string(msg.Value))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "application/json", string(msg.Headers[0].Value))

	msg, err = p.message("lab_robots", "", 1)
	require.NoError(t, err)
	assert.Equal(t, "lab_robots", msg.Topic)

	_, err = p.message("robot_telemetry", "", make(chan int))
	assert.Error(t, err)
}

// topic 只来自 message_queue.topic, 经分发器传入
func TestKafkaProducer_MessageRequiresTopic(t *testing.T) {
	p := newTestProducer(t, mq.EncodingCBOR)

	_, err := p.message("", "0403010203040000", 1)
	assert.ErrorIs(t, err, ErrNoTopic)
}
