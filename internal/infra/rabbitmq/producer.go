package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"quadruped-gateway/internal/config"
	"quadruped-gateway/internal/infra/mq"
)

var (
	// ErrNotConnected 连接尚未建立或已断开, 后台正在重连
	ErrNotConnected = errors.New("rabbitmq not connected")
	// ErrClosed 生产者已关闭
	ErrClosed = errors.New("rabbitmq producer closed")
)

const reconnectDelay = 5 * time.Second

type RabbitMQProducer struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	cfg        config.RabbitMQConfig
	encoding   mq.Encoding
	logger     *zap.Logger
	mu         sync.Mutex
	isClosed   bool
	reconnectC chan struct{}
}

var _ mq.Producer = (*RabbitMQProducer)(nil)

// NewRabbitMQProducer 在后台建立连接, 不阻塞启动。连接失败时 Produce 返回 ErrNotConnected。
func NewRabbitMQProducer(cfg config.RabbitMQConfig, encoding mq.Encoding, logger *zap.Logger) (*RabbitMQProducer, error) {
	if cfg.Exchange == "" {
		return nil, errors.New("rabbitmq exchange is required")
	}

	p := &RabbitMQProducer{
		cfg:        cfg,
		encoding:   encoding,
		logger:     logger,
		reconnectC: make(chan struct{}, 1),
	}

	go func() {
		if err := p.connect(); err != nil {
			p.logger.Warn("Initial RabbitMQ connection failed (will retry)", zap.Error(err))
			p.signalReconnect()
		}
	}()
	go p.handleReconnect()

	return p, nil
}

// connectionURL 将 virtual_host 拼入连接地址。以 / 开头的 vhost 转义为 %2f。
func connectionURL(cfg config.RabbitMQConfig) string {
	connURL := cfg.URL
	if cfg.VirtualHost == "" {
		return connURL
	}

	vhost := cfg.VirtualHost
	if strings.HasPrefix(vhost, "/") {
		vhost = "%2f" + vhost[1:]
	}

	if strings.HasSuffix(connURL, "/") {
		return connURL + vhost
	}
	// amqp://host[:port][/path], 已有路径时替换
	parts := strings.SplitN(connURL, "/", 4)
	if len(parts) < 3 {
		return connURL + "/" + vhost
	}
	return strings.Join(parts[:3], "/") + "/" + vhost
}

// maskedURL 用于日志, 隐去密码
func maskedURL(connURL string) string {
	u, err := amqp.ParseURI(connURL)
	if err != nil {
		return "<invalid url>"
	}
	u.Password = "******"
	return u.String()
}

// routingKey 每台机器人一个路由键: <routing_key>.<serial>
func (p *RabbitMQProducer) routingKey(key string) string {
	if key == "" {
		return p.cfg.RoutingKey
	}
	if p.cfg.RoutingKey == "" {
		return key
	}
	return p.cfg.RoutingKey + "." + key
}

func (p *RabbitMQProducer) connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	connURL := connectionURL(p.cfg)
	logger := p.logger.With(zap.String("url", maskedURL(connURL)))

	conn, err := amqp.Dial(connURL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open a channel: %w", err)
	}

	if err := p.declare(ch); err != nil {
		ch.Close()
		conn.Close()
		return err
	}

	p.conn = conn
	p.ch = ch

	go func() {
		<-conn.NotifyClose(make(chan *amqp.Error, 1))
		p.signalReconnect()
	}()

	logger.Info("Connected to RabbitMQ", zap.String("exchange", p.cfg.Exchange))
	return nil
}

// declare topic 交换机, 以及可选的队列绑定 (全部幂等)
func (p *RabbitMQProducer) declare(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(p.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", p.cfg.Exchange, err)
	}
	if p.cfg.QueueName == "" {
		return nil
	}

	if _, err := ch.QueueDeclare(p.cfg.QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", p.cfg.QueueName, err)
	}
	// 绑定所有机器人的路由键
	binding := "#"
	if p.cfg.RoutingKey != "" {
		binding = p.cfg.RoutingKey + ".#"
	}
	if err := ch.QueueBind(p.cfg.QueueName, binding, p.cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", p.cfg.QueueName, err)
	}
	return nil
}

func (p *RabbitMQProducer) signalReconnect() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.isClosed {
		select {
		case p.reconnectC <- struct{}{}:
		default:
		}
	}
}

func (p *RabbitMQProducer) closing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isClosed
}

func (p *RabbitMQProducer) handleReconnect() {
	for range p.reconnectC {
		p.logger.Warn("RabbitMQ connection lost, reconnecting")
		for !p.closing() {
			if err := p.connect(); err != nil {
				p.logger.Error("Failed to reconnect to RabbitMQ", zap.Error(err))
				time.Sleep(reconnectDelay)
				continue
			}
			break
		}
	}
}

// Produce 发布到交换机。key 为机器人序列号。
func (p *RabbitMQProducer) Produce(ctx context.Context, topic string, key string, data interface{}) error {
	p.mu.Lock()
	if p.isClosed {
		p.mu.Unlock()
		return ErrClosed
	}
	if p.ch == nil || p.ch.IsClosed() {
		p.mu.Unlock()
		p.signalReconnect()
		return ErrNotConnected
	}
	ch := p.ch
	p.mu.Unlock()

	body, err := p.encoding.Marshal(data)
	if err != nil {
		return err
	}

	routingKey := p.routingKey(key)
	err = ch.PublishWithContext(ctx,
		p.cfg.Exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: p.encoding.ContentType(),
			Type:        topic,
			Body:        body,
			Timestamp:   time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	p.logger.Debug("Published message to RabbitMQ", zap.String("exchange", p.cfg.Exchange), zap.String("routing_key", routingKey))
	return nil
}

func (p *RabbitMQProducer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isClosed {
		return
	}
	p.isClosed = true
	close(p.reconnectC)
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
