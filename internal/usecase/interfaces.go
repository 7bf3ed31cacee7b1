package usecase

import "context"

type DataProducer interface {
	// Produce 发送数据到指定 Topic, key 为机器人序列号
	Produce(ctx context.Context, topic string, key string, data interface{}) error
}
