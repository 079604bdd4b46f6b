package agi

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/voztel/ttsgate/pkg/telephony"
)

// readEnv parses the agi_* variable block Asterisk sends on connect,
// terminated by a blank line.
func readEnv(r *bufio.Reader) (map[string]string, error) {
	env := make(map[string]string)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			return env, nil
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		env[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
}

// requestFromEnv maps the raw variable block to a channel request.
// Positional dialplan arguments arrive as agi_arg_1, agi_arg_2, ...
func requestFromEnv(env map[string]string) telephony.Request {
	req := telephony.Request{
		CallerID:  env["agi_callerid"],
		Extension: env["agi_extension"],
		Context:   env["agi_context"],
	}
	for i := 1; ; i++ {
		arg, ok := env[fmt.Sprintf("agi_arg_%d", i)]
		if !ok {
			break
		}
		req.Args = append(req.Args, arg)
	}
	return req
}

// parseReply extracts the result value from an AGI reply line, e.g.
// "200 result=0 endpos=12345" or "200 result= (timeout)".
func parseReply(line string) (result string, err error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "200 ") {
		return "", fmt.Errorf("agi: unexpected reply %q", line)
	}
	rest := strings.TrimPrefix(line, "200 ")
	if !strings.HasPrefix(rest, "result=") {
		return "", fmt.Errorf("agi: malformed reply %q", line)
	}
	rest = strings.TrimPrefix(rest, "result=")
	if idx := strings.IndexByte(rest, ' '); idx >= 0 {
		rest = rest[:idx]
	}
	return rest, nil
}
