package unitree

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"

	"go.uber.org/zap"

	protocol "quadruped-gateway/internal/protocol/unitree"
	"quadruped-gateway/internal/usecase"
)

// ErrChecksumMismatch 在 DropInvalid 打开时, 校验失败的报文以此错误丢弃
var ErrChecksumMismatch = errors.New("checksum mismatch")

// Stats 处理计数
type Stats struct {
	Received   uint64 `json:"received"`
	Decoded    uint64 `json:"decoded"`
	Malformed  uint64 `json:"malformed"` // 长度或起始符错误
	Rejected   uint64 `json:"rejected"`  // 不在白名单
	Corrupt    uint64 `json:"corrupt"`   // 校验失败
	Dispatched uint64 `json:"dispatched"`
}

type Handler struct {
	Registry    *RobotRegistry
	Dispatcher  *usecase.DataDispatcher
	Filter      SerialFilter
	DropInvalid bool
	logger      *zap.Logger

	received, decoded, malformed, rejected, corrupt, dispatched atomic.Uint64
}

func NewHandler(registry *RobotRegistry, dispatcher *usecase.DataDispatcher, filter SerialFilter, dropInvalid bool, logger *zap.Logger) *Handler {
	return &Handler{
		Registry:    registry,
		Dispatcher:  dispatcher,
		Filter:      filter,
		DropInvalid: dropInvalid,
		logger:      logger,
	}
}

// PayloadType 消息队列中的类型标识
func PayloadType(kind protocol.Kind) string {
	switch kind {
	case protocol.KindHighCmd:
		return "HIGH_CMD"
	case protocol.KindHighState:
		return "HIGH_STATE"
	case protocol.KindLowCmd:
		return "LOW_CMD"
	case protocol.KindLowState:
		return "LOW_STATE"
	default:
		return "UNKNOWN"
	}
}

// HandleBatch 依次处理一批数据报, 返回失败的个数
func (h *Handler) HandleBatch(batch [][]byte) int {
	failed := 0
	for _, data := range batch {
		if err := h.HandleDatagram(data); err != nil {
			failed++
			h.logger.Debug("Datagram dropped", zap.Error(err), zap.Int("len", len(data)))
		}
	}
	return failed
}

// HandleDatagram 处理单个数据报: 识别类型, 过滤, 登记机器人, 分发
func (h *Handler) HandleDatagram(data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Panic in HandleDatagram",
				zap.Any("recover", r),
				zap.Int("len", len(data)),
				zap.String("stack", string(debug.Stack())))
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	h.received.Add(1)

	pkt, err := protocol.DecodeDatagram(data)
	if err != nil {
		h.malformed.Add(1)
		return fmt.Errorf("decode datagram: %w", err)
	}
	h.decoded.Add(1)

	serial := protocol.SerialKey(pkt.Head().SN)
	if h.Filter != nil {
		if err := h.Filter.Allow(serial); err != nil {
			h.rejected.Add(1)
			return err
		}
	}

	logger := h.logger.With(zap.String("serial", serial), zap.Stringer("kind", pkt.Kind()))

	check := pkt.Check()
	if !check.Valid {
		h.corrupt.Add(1)
		logger.Warn("Checksum mismatch", zap.Uint32("trailer", check.Checksum))
	}

	if h.Registry != nil {
		h.Registry.Touch(pkt)
	}

	if !check.Valid && h.DropInvalid {
		return fmt.Errorf("%s from %s: %w", pkt.Kind(), serial, ErrChecksumMismatch)
	}

	logger.Debug("Received packet", zap.Bool("encrypted", check.Encrypted))

	if h.Dispatcher != nil {
		payload := usecase.MQPayload{Type: PayloadType(pkt.Kind()), Serial: serial, Data: pkt}
		if h.Dispatcher.Dispatch(payload) {
			h.dispatched.Add(1)
		}
	}
	return nil
}

// Stats 当前计数
func (h *Handler) Stats() Stats {
	return Stats{
		Received:   h.received.Load(),
		Decoded:    h.decoded.Load(),
		Malformed:  h.malformed.Load(),
		Rejected:   h.rejected.Load(),
		Corrupt:    h.corrupt.Load(),
		Dispatched: h.dispatched.Load(),
	}
}
