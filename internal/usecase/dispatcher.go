package usecase

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// DefaultTopic 遥测数据的默认 Topic
const DefaultTopic = "robot_telemetry"

// Keyed 带有分区键的数据, 例如按机器人序列号分区
type Keyed interface {
	Key() string
}

type DataDispatcher struct {
	dataChan    chan interface{}
	producer    DataProducer
	topic       string
	logger      *zap.Logger
	workerCount int
	dropped     atomic.Uint64
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// NewDataDispatcher 创建一个新的数据分发器。buffer<=0 时使用 10000。
func NewDataDispatcher(producer DataProducer, topic string, workerCount, buffer int, logger *zap.Logger) *DataDispatcher {
	if topic == "" {
		topic = DefaultTopic
	}
	if workerCount <= 0 {
		workerCount = 1
	}
	if buffer <= 0 {
		buffer = 10000
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &DataDispatcher{
		dataChan:    make(chan interface{}, buffer),
		producer:    producer,
		topic:       topic,
		workerCount: workerCount,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start 启动 worker 协程池
func (d *DataDispatcher) Start() {
	for i := 0; i < d.workerCount; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	d.logger.Info("DataDispatcher started", zap.Int("workers", d.workerCount), zap.String("topic", d.topic))
}

// Stop 停止分发器并等待所有 worker 退出, 通道中剩余的数据会被丢弃
func (d *DataDispatcher) Stop() {
	d.cancel()
	d.wg.Wait()
	d.logger.Info("DataDispatcher stopped", zap.Uint64("dropped", d.dropped.Load()))
}

// Dispatch 将数据投递到缓冲通道 (非阻塞, 满则丢弃)。返回是否投递成功。
func (d *DataDispatcher) Dispatch(data interface{}) bool {
	select {
	case d.dataChan <- data:
		return true
	default:
		if n := d.dropped.Add(1); n%1000 == 1 {
			d.logger.Warn("DataDispatcher channel full, dropping data", zap.Uint64("dropped", n))
		}
		return false
	}
}

// Dropped 因通道满而丢弃的数据条数
func (d *DataDispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

func (d *DataDispatcher) worker(id int) {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case data := <-d.dataChan:
			d.process(id, data)
		}
	}
}

func (d *DataDispatcher) process(id int, data interface{}) {
	var key string
	if k, ok := data.(Keyed); ok {
		key = k.Key()
	}
	if err := d.producer.Produce(d.ctx, d.topic, key, data); err != nil {
		d.logger.Error("DataDispatcher failed to send data",
			zap.Int("worker", id),
			zap.String("key", key),
			zap.Error(err))
	}
}
