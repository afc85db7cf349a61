// Package wireconst holds the AMQP 0-9-1 wire constants: frame types,
// class/method ids, and reply codes. Values are named and numbered to
// match github.com/rabbitmq/amqp091-go's generated spec091 constants so
// frames produced by this core are byte-compatible with that ecosystem.
package wireconst

// Frame types.
const (
	FrameMethod    uint8 = 1
	FrameHeader    uint8 = 2
	FrameBody      uint8 = 3
	FrameHeartbeat uint8 = 8
)

// FrameEnd is the fixed trailer octet of every frame after the protocol
// header.
const FrameEnd uint8 = 0xCE

// ProtocolHeader is the fixed 8-byte AMQP 0-9-1 greeting.
var ProtocolHeader = [8]byte{'A', 'M', 'Q', 'P', 0, 0, 9, 1}

// Class ids.
const (
	ClassConnection uint16 = 10
	ClassChannel    uint16 = 20
	ClassExchange   uint16 = 40
	ClassQueue      uint16 = 50
	ClassBasic      uint16 = 60
	ClassTx         uint16 = 90
	ClassConfirm    uint16 = 85
)

// connection.* method ids.
const (
	ConnectionStart    uint16 = 10
	ConnectionStartOk  uint16 = 11
	ConnectionSecure   uint16 = 20
	ConnectionSecureOk uint16 = 21
	ConnectionTune     uint16 = 30
	ConnectionTuneOk   uint16 = 31
	ConnectionOpen     uint16 = 40
	ConnectionOpenOk   uint16 = 41
	ConnectionClose    uint16 = 50
	ConnectionCloseOk  uint16 = 51
)

// channel.* method ids.
const (
	ChannelOpen    uint16 = 10
	ChannelOpenOk  uint16 = 11
	ChannelFlow    uint16 = 20
	ChannelFlowOk  uint16 = 21
	ChannelClose   uint16 = 40
	ChannelCloseOk uint16 = 41
)

// exchange.* method ids.
const (
	ExchangeDeclare   uint16 = 10
	ExchangeDeclareOk uint16 = 11
	ExchangeDelete    uint16 = 20
	ExchangeDeleteOk  uint16 = 21
	ExchangeBind      uint16 = 30
	ExchangeBindOk    uint16 = 31
	ExchangeUnbind    uint16 = 40
	ExchangeUnbindOk  uint16 = 51
)

// queue.* method ids.
const (
	QueueDeclare   uint16 = 10
	QueueDeclareOk uint16 = 11
	QueueBind      uint16 = 20
	QueueBindOk    uint16 = 21
	QueueUnbind    uint16 = 50
	QueueUnbindOk  uint16 = 51
	QueuePurge     uint16 = 30
	QueuePurgeOk   uint16 = 31
	QueueDelete    uint16 = 40
	QueueDeleteOk  uint16 = 41
)

// basic.* method ids.
const (
	BasicQos          uint16 = 10
	BasicQosOk        uint16 = 11
	BasicConsume      uint16 = 20
	BasicConsumeOk    uint16 = 21
	BasicCancel       uint16 = 30
	BasicCancelOk     uint16 = 31
	BasicPublish      uint16 = 40
	BasicReturn       uint16 = 50
	BasicDeliver      uint16 = 60
	BasicGet          uint16 = 70
	BasicGetOk        uint16 = 71
	BasicGetEmpty     uint16 = 72
	BasicAck          uint16 = 80
	BasicReject       uint16 = 90
	BasicRecoverAsync uint16 = 100
	BasicRecover      uint16 = 110
	BasicRecoverOk    uint16 = 111
	BasicNack         uint16 = 120
)

// tx.* method ids.
const (
	TxSelect     uint16 = 10
	TxSelectOk   uint16 = 11
	TxCommit     uint16 = 20
	TxCommitOk   uint16 = 21
	TxRollback   uint16 = 30
	TxRollbackOk uint16 = 31
)

// confirm.* method ids.
const (
	ConfirmSelect   uint16 = 10
	ConfirmSelectOk uint16 = 11
)

// Reply codes (a subset; the ones the core itself ever needs to construct
// locally-detected protocol errors with).
const (
	ReplySuccess            uint16 = 200
	ReplyContentTooLarge    uint16 = 311
	ReplyNoRoute            uint16 = 312
	ReplyNoConsumers        uint16 = 313
	ReplyConnectionForced   uint16 = 320
	ReplyInvalidPath        uint16 = 402
	ReplyAccessRefused      uint16 = 403
	ReplyNotFound           uint16 = 404
	ReplyResourceLocked     uint16 = 405
	ReplyPreconditionFailed uint16 = 406
	ReplyFrameError         uint16 = 501
	ReplySyntaxError        uint16 = 502
	ReplyCommandInvalid     uint16 = 503
	ReplyChannelError       uint16 = 504
	ReplyUnexpectedFrame    uint16 = 505
	ReplyResourceError      uint16 = 506
	ReplyNotAllowed         uint16 = 530
	ReplyNotImplemented     uint16 = 540
	ReplyInternalError      uint16 = 541
)
