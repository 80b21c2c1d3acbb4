// pkg/machine/codec.go
package machine

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/iancoleman/orderedmap"
)

// Message is one parsed line of the wire protocol of spec.md §4.H/§6.5:
// `<cmd> key1=value1 key2=value2 …`, values URL-decoded, list-valued keys
// repeated rather than comma-joined.
type Message struct {
	Cmd    string
	Fields map[string][]string
	CmdSeq string
}

// ParseLine decodes one request line. A key with no '=' is treated as a
// boolean-present flag (value ""), matching the teacher's tolerant
// command-line parsing style rather than rejecting the line outright.
func ParseLine(line string) (Message, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Message{}, fmt.Errorf("machine: empty line")
	}
	msg := Message{Cmd: fields[0], Fields: map[string][]string{}}
	for _, tok := range fields[1:] {
		key, value, _ := strings.Cut(tok, "=")
		dec, err := url.QueryUnescape(value)
		if err != nil {
			return Message{}, fmt.Errorf("machine: decoding %q: %w", tok, err)
		}
		if key == "cmdseq" {
			msg.CmdSeq = dec
			continue
		}
		msg.Fields[key] = append(msg.Fields[key], dec)
	}
	return msg, nil
}

func (m Message) Get(key string) (string, bool) {
	v, ok := m.Fields[key]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

func (m Message) GetAll(key string) []string { return m.Fields[key] }

func (m Message) Int(key string, def int) int {
	v, ok := m.Get(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func (m Message) Float(key string, def float32) float32 {
	v, ok := m.Get(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return def
	}
	return float32(f)
}

func (m Message) Bool(key string, def bool) bool {
	v, ok := m.Get(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Response builds one reply/event line with a stable field order —
// `iancoleman/orderedmap` is used purely for its insertion-ordered
// iteration (not its JSON marshaling), so the same command always
// renders its keys in the same order across runs (spec.md §4.H).
type Response struct {
	cmd    string
	fields *orderedmap.OrderedMap
}

func NewResponse(cmd string) *Response {
	return &Response{cmd: cmd, fields: orderedmap.New()}
}

func (r *Response) Set(key string, value string) *Response {
	r.fields.Set(key, value)
	return r
}

func (r *Response) SetInt(key string, value int) *Response {
	return r.Set(key, strconv.Itoa(value))
}

func (r *Response) SetFloat(key string, value float64) *Response {
	return r.Set(key, strconv.FormatFloat(value, 'f', -1, 64))
}

func (r *Response) SetBool(key string, value bool) *Response {
	return r.Set(key, strconv.FormatBool(value))
}

func (r *Response) WithCmdSeq(seq string) *Response {
	if seq != "" {
		r.Set("cmdseq", seq)
	}
	return r
}

func (r *Response) String() string {
	var b strings.Builder
	b.WriteString(r.cmd)
	for _, k := range r.fields.Keys() {
		v, _ := r.fields.Get(k)
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(v.(string)))
	}
	return b.String()
}

func errorLine(cmd, cmdseq, msg string) string {
	return NewResponse(cmd).WithCmdSeq(cmdseq).Set("error", msg).String()
}
