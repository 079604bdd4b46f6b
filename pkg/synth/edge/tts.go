// Package edge implements the synth.Engine contract against the
// Microsoft Edge neural text-to-speech websocket endpoint.
package edge

import (
	"context"
	"encoding/binary"
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/voztel/ttsgate/pkg/errorsx"
	"github.com/voztel/ttsgate/pkg/synth"
)

const (
	endpoint = "wss://speech.platform.bing.com/consumer/speech/synthesize/readaloud/edge/v1"
	// TrustedClientToken is the fixed token the Edge browser itself uses.
	trustedClientToken = "6A5AA1D4EAFF4E9FB37E23D68491D6F4"

	headerPathAudio   = "Path:audio"
	headerPathTurnEnd = "Path:turn.end"
)

// Config holds the optional knobs of the Edge engine.
type Config struct {
	// DialTimeout bounds the websocket handshake. Zero means 10s.
	DialTimeout time.Duration
}

// Engine speaks the Edge readaloud websocket protocol. It is stateless
// between Synthesize calls: each call dials its own connection, so
// concurrent sessions never share one.
type Engine struct {
	cfg Config
}

// New returns an Edge engine.
func New(cfg Config) *Engine {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	return &Engine{cfg: cfg}
}

func (e *Engine) Name() string { return "edge_tts" }

// Synthesize renders text to destPath. The connection lives only for
// the duration of one turn: config message, SSML message, then binary
// audio frames until turn.end.
func (e *Engine) Synthesize(ctx context.Context, voiceID string, format synth.Format, text string, destPath string) error {
	if strings.TrimSpace(text) == "" {
		return errorsx.Wrap(errors.New("empty text"), errorsx.ReasonTTSSend)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	connID := strings.ReplaceAll(uuid.NewString(), "-", "")
	url := fmt.Sprintf("%s?TrustedClientToken=%s&ConnectionId=%s", endpoint, trustedClientToken, connID)

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: e.cfg.DialTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, url, http.Header{
		"Origin": []string{"chrome-extension://jdiccldimpdaibmpdkjnbmckianbfold"},
	})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
			slog.Error("edge tts rate limit exceeded", slog.String("status", resp.Status))
			return errorsx.Wrap(err, errorsx.ReasonTTSRateLimit)
		}
		slog.Error("failed to connect to edge tts", slog.String("error", err.Error()))
		return errorsx.Wrap(err, errorsx.ReasonTTSConnect)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
		_ = conn.SetWriteDeadline(deadline)
	}

	if err := e.sendConfig(conn, format); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonTTSSend)
	}
	if err := e.sendSSML(conn, voiceID, text); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonTTSSend)
	}

	audio, err := e.collectAudio(ctx, conn)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonSynthesis)
	}
	if len(audio) == 0 {
		return errorsx.Wrap(errors.New("edge tts returned no audio"), errorsx.ReasonSynthesis)
	}
	if err := os.WriteFile(destPath, audio, 0o644); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonSynthesis)
	}
	slog.Debug("edge tts synthesis complete",
		slog.String("voice", voiceID),
		slog.String("path", destPath),
		slog.Int("bytes", len(audio)))
	return nil
}

func (e *Engine) sendConfig(conn *websocket.Conn, format synth.Format) error {
	msg := "X-Timestamp:" + timestamp() + "\r\n" +
		"Content-Type:application/json; charset=utf-8\r\n" +
		"Path:speech.config\r\n\r\n" +
		`{"context":{"synthesis":{"audio":{"metadataoptions":{"sentenceBoundaryEnabled":"false","wordBoundaryEnabled":"false"},"outputFormat":"` + outputFormat(format) + `"}}}}`
	return conn.WriteMessage(websocket.TextMessage, []byte(msg))
}

func (e *Engine) sendSSML(conn *websocket.Conn, voiceID, text string) error {
	var escaped strings.Builder
	if err := xml.EscapeText(&escaped, []byte(text)); err != nil {
		return err
	}
	ssml := "<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='en-US'>" +
		"<voice name='" + voiceID + "'>" + escaped.String() + "</voice></speak>"
	msg := "X-RequestId:" + strings.ReplaceAll(uuid.NewString(), "-", "") + "\r\n" +
		"X-Timestamp:" + timestamp() + "\r\n" +
		"Content-Type:application/ssml+xml\r\n" +
		"Path:ssml\r\n\r\n" + ssml
	return conn.WriteMessage(websocket.TextMessage, []byte(msg))
}

// collectAudio reads frames until the service signals turn.end. Binary
// frames carry a two-byte header length, the header block, then raw
// audio; only Path:audio frames contribute payload.
func (e *Engine) collectAudio(ctx context.Context, conn *websocket.Conn) ([]byte, error) {
	var audio []byte
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		switch msgType {
		case websocket.BinaryMessage:
			if len(data) < 2 {
				continue
			}
			headerLen := int(binary.BigEndian.Uint16(data[:2]))
			if len(data) < 2+headerLen {
				continue
			}
			header := string(data[2 : 2+headerLen])
			if strings.Contains(header, headerPathAudio) {
				audio = append(audio, data[2+headerLen:]...)
			}
		case websocket.TextMessage:
			if strings.Contains(string(data), headerPathTurnEnd) {
				return audio, nil
			}
		}
	}
}

// outputFormat renders the vendor's format string, e.g.
// audio-24khz-96kbitrate-mono-mp3.
func outputFormat(f synth.Format) string {
	channels := "mono"
	if f.Channels > 1 {
		channels = "stereo"
	}
	return fmt.Sprintf("audio-%dkhz-%dkbitrate-%s-%s",
		f.SampleRate/1000, f.BitrateKbps, channels, f.Container)
}

func timestamp() string {
	return time.Now().UTC().Format("Mon Jan 02 2006 15:04:05 GMT+0000 (Coordinated Universal Time)")
}
