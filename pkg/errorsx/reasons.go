package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	// Session-level failure classes.
	ReasonInput     ReasonCode = "input"
	ReasonSynthesis ReasonCode = "synthesis"
	ReasonTranscode ReasonCode = "transcode"
	ReasonDelivery  ReasonCode = "delivery"
	ReasonCleanup   ReasonCode = "cleanup"

	// Provider-level TTS reasons.
	ReasonTTSConnect   ReasonCode = "tts_connect"
	ReasonTTSSend      ReasonCode = "tts_send"
	ReasonTTSRateLimit ReasonCode = "tts_rate_limit"

	ReasonChannelHangup ReasonCode = "channel_hangup"
)
